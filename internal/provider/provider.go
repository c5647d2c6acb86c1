// Package provider defines the remote data source for location, weather,
// currency and travel search results, and a development implementation.
package provider

import (
	"context"

	"github.com/starford/travelmate/internal/models"
)

// Provider is the remote data source. Every call may block and may fail;
// implementations must return promptly once ctx is done.
type Provider interface {
	UserLocation(ctx context.Context) (models.Location, error)
	Weather(ctx context.Context, loc models.Location) (models.Weather, error)
	CurrencyRates(ctx context.Context, base string) ([]models.Currency, error)
	SearchFlights(ctx context.Context, from, to, date string) ([]models.Flight, error)
	SearchHotels(ctx context.Context, location, checkIn, checkOut string) ([]models.Hotel, error)
	SearchCities(ctx context.Context, query string) ([]models.Location, error)
}
