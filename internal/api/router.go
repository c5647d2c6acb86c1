package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/travelmate/internal/planner"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *planner.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Trips.
	r.Get("/trips", h.ListTrips)
	r.Post("/trips", h.CreateTrip)
	r.Get("/trips/recent", h.RecentTrips)
	r.Get("/trips/{id}", h.GetTrip)
	r.Patch("/trips/{id}", h.UpdateTrip)
	r.Delete("/trips/{id}", h.DeleteTrip)

	// Overview.
	r.Get("/dashboard", h.Dashboard)

	// Search.
	r.Get("/flights", h.SearchFlights)
	r.Get("/hotels", h.SearchHotels)
	r.Get("/cities", h.SearchCities)

	// Preferences.
	r.Get("/preferences", h.GetPreferences)
	r.Patch("/preferences", h.UpdatePreferences)
	r.Post("/preferences/theme/toggle", h.ToggleTheme)
	r.Post("/preferences/reset", h.ResetPreferences)

	// Data management.
	r.Delete("/cache", h.ClearCache)
	r.Get("/export", h.Export)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
