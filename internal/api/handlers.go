package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/export"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/planner"
	"github.com/starford/travelmate/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *planner.Service
	now func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *planner.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// ListTrips handles GET /api/trips.
//
//	@Summary	List trips, optionally filtered by status
//	@Tags		trips
//	@Produce	json
//	@Param		status	query		string	false	"Status filter"	Enums(all, planning, active, completed)
//	@Success	200		{object}	TripListResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/trips [get]
func (h *Handler) ListTrips(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != "all" && !models.TripStatus(status).Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status"))
		return
	}
	store := h.svc.Trips()
	trips := store.Filter(status)
	writeJSON(w, http.StatusOK, TripListResponse{
		Trips: trips,
		Total: len(trips),
		Count: store.Counts(),
	})
}

// RecentTrips handles GET /api/trips/recent.
//
//	@Summary	Most recently updated trips
//	@Tags		trips
//	@Produce	json
//	@Success	200	{object}	TripListResponse
//	@Security	BearerAuth
//	@Router		/trips/recent [get]
func (h *Handler) RecentTrips(w http.ResponseWriter, _ *http.Request) {
	store := h.svc.Trips()
	trips := store.Recent()
	writeJSON(w, http.StatusOK, TripListResponse{
		Trips: trips,
		Total: len(trips),
		Count: store.Counts(),
	})
}

// GetTrip handles GET /api/trips/{id}.
//
//	@Summary	Get a single trip
//	@Tags		trips
//	@Produce	json
//	@Param		id	path		string	true	"Trip id"
//	@Success	200	{object}	models.Trip
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/trips/{id} [get]
func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := h.svc.Trips().ByID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// CreateTrip handles POST /api/trips.
//
//	@Summary	Create a trip
//	@Tags		trips
//	@Accept		json
//	@Produce	json
//	@Param		body	body		TripRequest	true	"Trip to create"
//	@Success	201		{object}	models.Trip
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/trips [post]
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	trip, err := h.svc.Trips().Add(req.Draft())
	if err != nil {
		writeStoreError(w, "create trip failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// UpdateTrip handles PATCH /api/trips/{id}.
//
//	@Summary	Partially update a trip
//	@Tags		trips
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Trip id"
//	@Param		body	body		TripPatchRequest	true	"Fields to change"
//	@Success	200		{object}	models.Trip
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/trips/{id} [patch]
func (h *Handler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	store := h.svc.Trips()
	if _, ok := store.ByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	var req TripPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	patch := req.Patch()
	if patch.Empty() {
		writeJSON(w, http.StatusBadRequest, errorBody("no fields to update"))
		return
	}

	if err := store.Update(id, patch); err != nil {
		writeStoreError(w, "update trip failed", err)
		return
	}
	trip, ok := store.ByID(id)
	if !ok {
		// Deleted concurrently.
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /api/trips/{id}.
//
//	@Summary	Delete a trip
//	@Tags		trips
//	@Param		id	path	string	true	"Trip id"
//	@Success	204	"Trip deleted"
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/trips/{id} [delete]
func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	store := h.svc.Trips()
	if _, ok := store.ByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard handles GET /api/dashboard.
//
//	@Summary	Landing overview
//	@Tags		dashboard
//	@Produce	json
//	@Success	200	{object}	planner.Dashboard
//	@Security	BearerAuth
//	@Router		/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Dashboard(r.Context()))
}

// SearchFlights handles GET /api/flights.
//
//	@Summary	Search flights
//	@Tags		search
//	@Produce	json
//	@Param		from	query	string	true	"Departure city"
//	@Param		to		query	string	true	"Arrival city"
//	@Param		date	query	string	false	"Departure date"
//	@Param		sort	query	string	false	"Sort key"	Enums(price-asc, price-desc, duration-asc, departure-asc)
//	@Success	200		{object}	FlightListResponse
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Failure	502		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/flights [get]
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'from' and 'to' are required"))
		return
	}
	key, err := search.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	flights, err := h.svc.SearchFlights(r.Context(), planner.FlightQuery{
		From: from, To: to, Date: q.Get("date"), Sort: key,
	})
	if err != nil {
		writeSearchError(w, "search flights failed", err)
		return
	}
	writeJSON(w, http.StatusOK, FlightListResponse{Flights: flights})
}

// SearchHotels handles GET /api/hotels.
//
//	@Summary	Search hotels
//	@Tags		search
//	@Produce	json
//	@Param		location	query	string	true	"City"
//	@Param		checkIn		query	string	false	"Check-in date"
//	@Param		checkOut	query	string	false	"Check-out date"
//	@Param		priceRange	query	string	false	"Price band"	Enums(all, budget, mid, luxury)
//	@Param		minRating	query	number	false	"Minimum rating"
//	@Success	200			{object}	HotelListResponse
//	@Failure	400			{object}	errResponse
//	@Failure	409			{object}	errResponse
//	@Failure	502			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/hotels [get]
func (h *Handler) SearchHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'location' is required"))
		return
	}
	band, err := search.ParsePriceRange(q.Get("priceRange"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	var minRating float64
	if v := q.Get("minRating"); v != "" {
		minRating, err = strconv.ParseFloat(v, 64)
		if err != nil || minRating < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("minRating must be a non-negative number"))
			return
		}
	}

	hotels, err := h.svc.SearchHotels(r.Context(), planner.HotelQuery{
		Location: location,
		CheckIn:  q.Get("checkIn"),
		CheckOut: q.Get("checkOut"),
		Filter:   search.HotelFilter{PriceRange: band, MinRating: minRating},
	})
	if err != nil {
		writeSearchError(w, "search hotels failed", err)
		return
	}
	writeJSON(w, http.StatusOK, HotelListResponse{Hotels: hotels})
}

// SearchCities handles GET /api/cities.
//
//	@Summary	City suggestions for a type-ahead query
//	@Tags		search
//	@Produce	json
//	@Param		q	query	string	true	"Query; fewer than three characters yields no results"
//	@Success	200	{object}	CityListResponse
//	@Failure	409	{object}	errResponse
//	@Failure	502	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/cities [get]
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.svc.SearchCities(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeSearchError(w, "search cities failed", err)
		return
	}
	writeJSON(w, http.StatusOK, CityListResponse{Cities: cities})
}

// GetPreferences handles GET /api/preferences.
//
//	@Summary	Current preferences
//	@Tags		preferences
//	@Produce	json
//	@Success	200	{object}	models.UserPreferences
//	@Security	BearerAuth
//	@Router		/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Preferences().Get())
}

// UpdatePreferences handles PATCH /api/preferences.
//
//	@Summary	Change preferences
//	@Tags		preferences
//	@Accept		json
//	@Produce	json
//	@Param		body	body		PreferencesPatchRequest	true	"Fields to change"
//	@Success	200		{object}	models.UserPreferences
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/preferences [patch]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	prefs, err := h.svc.Preferences().Update(req)
	if err != nil {
		writeStoreError(w, "update preferences failed", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// ToggleTheme handles POST /api/preferences/theme/toggle.
//
//	@Summary	Flip between light and dark
//	@Tags		preferences
//	@Produce	json
//	@Success	200	{object}	ThemeResponse
//	@Security	BearerAuth
//	@Router		/preferences/theme/toggle [post]
func (h *Handler) ToggleTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeResponse{Theme: h.svc.Preferences().ToggleTheme()})
}

// ResetPreferences handles POST /api/preferences/reset.
//
//	@Summary	Restore default preferences
//	@Tags		preferences
//	@Produce	json
//	@Success	200	{object}	models.UserPreferences
//	@Security	BearerAuth
//	@Router		/preferences/reset [post]
func (h *Handler) ResetPreferences(w http.ResponseWriter, _ *http.Request) {
	prefs := h.svc.Preferences()
	if err := prefs.Reset(); err != nil {
		slog.Error("reset preferences failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, prefs.Get())
}

// ClearCache handles DELETE /api/cache.
//
//	@Summary	Remove all persisted trips
//	@Tags		data
//	@Success	204	"Cache cleared"
//	@Security	BearerAuth
//	@Router		/cache [delete]
func (h *Handler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.ClearCache(); err != nil {
		slog.Error("clear cache failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/export.
//
//	@Summary	Download trips and settings as one JSON document
//	@Tags		data
//	@Produce	json
//	@Success	200	{object}	export.Document
//	@Security	BearerAuth
//	@Router		/export [get]
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	doc := h.svc.Export()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if err := doc.Write(w); err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
	}
}

func writeStoreError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, apperr.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	slog.Error(msg, slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

func writeSearchError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, search.ErrStale):
		writeJSON(w, http.StatusConflict, errorBody("superseded by a newer search"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Warn(msg, slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("provider unavailable"))
	}
}
