package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/prefstore"
	"github.com/starford/travelmate/internal/tripstore"
)

// Date accepts either a calendar date ("2025-06-01") or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// TripRequest is the request body for creating a trip.
type TripRequest struct {
	Title       string            `json:"title"`
	Destination models.Location   `json:"destination"`
	StartDate   Date              `json:"startDate"`
	EndDate     Date              `json:"endDate"`
	Budget      float64           `json:"budget"`
	Currency    string            `json:"currency"`
	Status      models.TripStatus `json:"status"`
	Notes       string            `json:"notes"`
}

// Validate checks the fields every new trip needs.
func (r *TripRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Budget, validation.Min(0.0)),
		validation.Field(&r.Status, validation.In(models.TripPlanning, models.TripActive, models.TripCompleted)),
	)
}

// Draft converts the request into a store draft.
func (r *TripRequest) Draft() models.TripDraft {
	return models.TripDraft{
		Title:       strings.TrimSpace(r.Title),
		Destination: r.Destination,
		StartDate:   r.StartDate.Time,
		EndDate:     r.EndDate.Time,
		Budget:      r.Budget,
		Currency:    strings.ToUpper(r.Currency),
		Status:      r.Status,
		Notes:       r.Notes,
	}
}

// TripPatchRequest is the request body for a partial trip update.
type TripPatchRequest struct {
	Title       *string            `json:"title"`
	Destination *models.Location   `json:"destination"`
	StartDate   *Date              `json:"startDate"`
	EndDate     *Date              `json:"endDate"`
	Budget      *float64           `json:"budget"`
	Currency    *string            `json:"currency"`
	Status      *models.TripStatus `json:"status"`
	Notes       *string            `json:"notes"`
}

// Validate checks the fields that are present.
func (r *TripPatchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty),
		validation.Field(&r.Budget, validation.Min(0.0)),
		validation.Field(&r.Status, validation.In(models.TripPlanning, models.TripActive, models.TripCompleted)),
	)
}

// Patch converts the request into a store patch.
func (r *TripPatchRequest) Patch() models.TripPatch {
	p := models.TripPatch{
		Title:       r.Title,
		Destination: r.Destination,
		Budget:      r.Budget,
		Currency:    r.Currency,
		Status:      r.Status,
		Notes:       r.Notes,
	}
	if r.StartDate != nil {
		p.StartDate = &r.StartDate.Time
	}
	if r.EndDate != nil {
		p.EndDate = &r.EndDate.Time
	}
	return p
}

// TripListResponse wraps trip listings.
type TripListResponse struct {
	Trips []models.Trip    `json:"trips"`
	Total int              `json:"total"`
	Count tripstore.Counts `json:"counts"`
}

// FlightListResponse is the body of GET /flights.
type FlightListResponse struct {
	Flights []models.Flight `json:"flights"`
}

// HotelListResponse is the body of GET /hotels.
type HotelListResponse struct {
	Hotels []models.Hotel `json:"hotels"`
}

// CityListResponse is the body of GET /cities.
type CityListResponse struct {
	Cities []models.Location `json:"cities"`
}

// PreferencesPatchRequest is the request body for PATCH /preferences.
type PreferencesPatchRequest = prefstore.Patch

// ThemeResponse is returned by the theme toggle.
type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}
