package provider

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
)

var (
	newYork = models.Location{
		ID: "1", Name: "New York", Country: "USA",
		Latitude: 40.7128, Longitude: -74.0060, Timezone: "America/New_York",
	}
	losAngeles = models.Location{
		ID: "2", Name: "Los Angeles", Country: "USA",
		Latitude: 34.0522, Longitude: -118.2437, Timezone: "America/Los_Angeles",
	}
	london = models.Location{
		ID: "3", Name: "London", Country: "UK",
		Latitude: 51.5074, Longitude: -0.1278, Timezone: "Europe/London",
	}
	miami = models.Location{
		ID: "4", Name: "Miami", Country: "USA",
		Latitude: 25.7617, Longitude: -80.1918, Timezone: "America/New_York",
	}
)

var devWeather = models.Weather{
	Temperature: 22,
	Condition:   "Sunny",
	Humidity:    65,
	WindSpeed:   8,
	Icon:        "01d",
}

// Rates are relative to USD.
var devCurrencies = []models.Currency{
	{Code: "USD", Name: "US Dollar", Symbol: "$", Rate: 1.0},
	{Code: "EUR", Name: "Euro", Symbol: "€", Rate: 0.85},
	{Code: "GBP", Name: "British Pound", Symbol: "£", Rate: 0.73},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Rate: 110.0},
}

var devFlights = []models.Flight{
	{
		ID:           "1",
		Airline:      "American Airlines",
		FlightNumber: "AA123",
		Departure:    models.FlightEndpoint{Airport: "JFK", City: "New York", Time: "08:00", Date: "2025-02-01"},
		Arrival:      models.FlightEndpoint{Airport: "LAX", City: "Los Angeles", Time: "11:30", Date: "2025-02-01"},
		Duration:     "5h 30m",
		Price:        299,
		Currency:     "USD",
		Class:        models.ClassEconomy,
	},
	{
		ID:           "2",
		Airline:      "Delta",
		FlightNumber: "DL456",
		Departure:    models.FlightEndpoint{Airport: "JFK", City: "New York", Time: "14:00", Date: "2025-02-01"},
		Arrival:      models.FlightEndpoint{Airport: "LAX", City: "Los Angeles", Time: "17:45", Date: "2025-02-01"},
		Duration:     "5h 45m",
		Price:        349,
		Currency:     "USD",
		Class:        models.ClassEconomy,
	},
}

var devHotels = []models.Hotel{
	{
		ID:          "1",
		Name:        "Grand Plaza Hotel",
		Location:    losAngeles,
		Rating:      4.5,
		Price:       150,
		Currency:    "USD",
		Amenities:   []string{"Pool", "WiFi", "Gym", "Restaurant"},
		Images:      []string{"https://images.pexels.com/photos/164595/pexels-photo-164595.jpeg"},
		Description: "Luxury hotel in the heart of downtown Los Angeles",
		ReviewCount: 1250,
		CheckIn:     "15:00",
		CheckOut:    "11:00",
	},
	{
		ID:          "2",
		Name:        "Seaside Resort",
		Location:    miami,
		Rating:      4.8,
		Price:       220,
		Currency:    "USD",
		Amenities:   []string{"Beach Access", "Spa", "Pool", "Restaurant"},
		Images:      []string{"https://images.pexels.com/photos/261102/pexels-photo-261102.jpeg"},
		Description: "Beachfront resort with stunning ocean views",
		ReviewCount: 890,
		CheckIn:     "16:00",
		CheckOut:    "12:00",
	},
}

var devCities = []models.Location{newYork, losAngeles, london}

// Mock serves a fixed development data set after a simulated network delay.
// A non-nil Err makes every call fail with it.
type Mock struct {
	Latency time.Duration
	Err     error
}

// NewMock returns a Mock with the given simulated latency.
func NewMock(latency time.Duration) *Mock {
	return &Mock{Latency: latency}
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Latency > 0 {
		t := time.NewTimer(m.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	return m.Err
}

// UserLocation implements Provider.
func (m *Mock) UserLocation(ctx context.Context) (models.Location, error) {
	if err := m.wait(ctx); err != nil {
		return models.Location{}, err
	}
	return newYork, nil
}

// Weather implements Provider.
func (m *Mock) Weather(ctx context.Context, _ models.Location) (models.Weather, error) {
	if err := m.wait(ctx); err != nil {
		return models.Weather{}, err
	}
	return devWeather, nil
}

// CurrencyRates implements Provider. Rates are rebased onto base; an empty
// base means USD.
func (m *Mock) CurrencyRates(ctx context.Context, base string) ([]models.Currency, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if base == "" {
		base = "USD"
	}
	i := slices.IndexFunc(devCurrencies, func(c models.Currency) bool {
		return strings.EqualFold(c.Code, base)
	})
	if i < 0 {
		return nil, fmt.Errorf("provider: currency %s: %w", base, apperr.ErrNotFound)
	}

	baseRate := devCurrencies[i].Rate
	out := make([]models.Currency, len(devCurrencies))
	for j, c := range devCurrencies {
		c.Rate = c.Rate / baseRate
		out[j] = c
	}
	return out, nil
}

// SearchFlights implements Provider. The data set is route independent; a
// non-empty date is stamped on both endpoints.
func (m *Mock) SearchFlights(ctx context.Context, _, _, date string) ([]models.Flight, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	out := slices.Clone(devFlights)
	if date != "" {
		for i := range out {
			out[i].Departure.Date = date
			out[i].Arrival.Date = date
		}
	}
	return out, nil
}

// SearchHotels implements Provider.
func (m *Mock) SearchHotels(ctx context.Context, _, _, _ string) ([]models.Hotel, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Hotel, len(devHotels))
	for i, h := range devHotels {
		h.Amenities = slices.Clone(h.Amenities)
		h.Images = slices.Clone(h.Images)
		out[i] = h
	}
	return out, nil
}

// SearchCities implements Provider with a case-insensitive name match.
func (m *Mock) SearchCities(ctx context.Context, query string) ([]models.Location, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []models.Location{}
	for _, c := range devCities {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out, nil
}
