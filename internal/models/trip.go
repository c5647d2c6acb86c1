package models

import "time"

// TripStatus is the lifecycle stage of a trip.
type TripStatus string

// Trip statuses.
const (
	TripPlanning  TripStatus = "planning"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
)

// TripStatuses lists every valid status in display order.
var TripStatuses = []TripStatus{TripPlanning, TripActive, TripCompleted}

// Valid reports whether s is one of the known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripPlanning, TripActive, TripCompleted:
		return true
	}
	return false
}

// Trip is a user's travel plan. Field names and JSON tags match the persisted
// layout under the travel-app-trips key; dates are RFC 3339 strings on the wire.
type Trip struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Destination Location   `json:"destination"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Budget      float64    `json:"budget"`
	Currency    string     `json:"currency"`
	Status      TripStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Nights returns the whole number of days between start and end, rounded up.
func (t Trip) Nights() int {
	d := t.EndDate.Sub(t.StartDate)
	if d < 0 {
		d = -d
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// TripDraft is the caller-supplied part of a new trip. The store assigns the
// id and both timestamps.
type TripDraft struct {
	Title       string     `json:"title"`
	Destination Location   `json:"destination"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Budget      float64    `json:"budget"`
	Currency    string     `json:"currency"`
	Status      TripStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
}

// Trip builds the entity for d with the given identity and creation time.
func (d TripDraft) Trip(id string, now time.Time) Trip {
	return Trip{
		ID:          id,
		Title:       d.Title,
		Destination: d.Destination,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Budget:      d.Budget,
		Currency:    d.Currency,
		Status:      d.Status,
		Notes:       d.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TripPatch is a partial update. Nil fields are left untouched.
type TripPatch struct {
	Title       *string     `json:"title,omitempty"`
	Destination *Location   `json:"destination,omitempty"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	Budget      *float64    `json:"budget,omitempty"`
	Currency    *string     `json:"currency,omitempty"`
	Status      *TripStatus `json:"status,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
}

// Apply merges p into t. Identity and timestamps are never touched here.
func (p TripPatch) Apply(t Trip) Trip {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Destination != nil {
		t.Destination = *p.Destination
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Budget != nil {
		t.Budget = *p.Budget
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return t
}

// Empty reports whether the patch sets no field.
func (p TripPatch) Empty() bool {
	return p == TripPatch{}
}
