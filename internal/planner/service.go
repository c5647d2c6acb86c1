// Package planner coordinates the stores, the remote data provider and the
// search pipeline for the HTTP and MCP surfaces.
package planner

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/starford/travelmate/internal/export"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/prefstore"
	"github.com/starford/travelmate/internal/provider"
	"github.com/starford/travelmate/internal/search"
	"github.com/starford/travelmate/internal/storage"
	"github.com/starford/travelmate/internal/tripstore"
)

// MinCityQuery is the shortest query sent to the provider; shorter queries
// yield no suggestions.
const MinCityQuery = 3

// Dashboard is the landing overview. Provider-backed fields are nil or empty
// when their lookup failed.
type Dashboard struct {
	Location    *models.Location  `json:"location"`
	Weather     *models.Weather   `json:"weather"`
	Currencies  []models.Currency `json:"currencies"`
	Counts      tripstore.Counts  `json:"counts"`
	Active      []models.Trip     `json:"activeTrips"`
	Upcoming    []models.Trip     `json:"upcomingTrips"`
	Completed   []models.Trip     `json:"completedTrips"`
	Recent      []models.Trip     `json:"recentTrips"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// FlightQuery is a flight search request.
type FlightQuery struct {
	From string
	To   string
	Date string
	Sort search.SortKey
}

// HotelQuery is a hotel search request.
type HotelQuery struct {
	Location string
	CheckIn  string
	CheckOut string
	Filter   search.HotelFilter
}

// Service is the application service.
type Service struct {
	port     storage.Port
	trips    *tripstore.Store
	prefs    *prefstore.Store
	provider provider.Provider
	log      *slog.Logger
	now      func() time.Time

	flights *search.FlightResults
	hotels  *search.HotelResults
	cities  *search.CityResults
}

// New creates a Service over stores that persist to port.
func New(port storage.Port, trips *tripstore.Store, prefs *prefstore.Store, p provider.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		port:     port,
		trips:    trips,
		prefs:    prefs,
		provider: p,
		log:      logger,
		now:      time.Now,
		flights:  search.NewFlightResults(logger),
		hotels:   search.NewHotelResults(logger),
		cities:   search.NewCityResults(logger),
	}
}

// Trips returns the trip store.
func (s *Service) Trips() *tripstore.Store { return s.trips }

// Preferences returns the preference store.
func (s *Service) Preferences() *prefstore.Store { return s.prefs }

// Flights returns the latest flight results.
func (s *Service) Flights() *search.FlightResults { return s.flights }

// Hotels returns the latest hotel results.
func (s *Service) Hotels() *search.HotelResults { return s.hotels }

// Export assembles the data-export document from the persisted trips and
// the current preferences.
func (s *Service) Export() export.Document {
	return export.Build(s.port, s.prefs.Get(), s.now())
}

// ClearCache removes the persisted trips.
func (s *Service) ClearCache() error {
	return s.trips.Clear()
}

// Dashboard gathers the overview. Location, weather and currency lookups run
// concurrently; a failing lookup is logged and leaves its field empty.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	d := Dashboard{
		Currencies:  []models.Currency{},
		Counts:      s.trips.Counts(),
		Active:      s.trips.Active(),
		Upcoming:    s.trips.Planning(),
		Completed:   s.trips.Completed(),
		Recent:      s.trips.Recent(),
		GeneratedAt: s.now(),
	}

	var g errgroup.Group
	g.Go(func() error {
		loc, err := s.provider.UserLocation(ctx)
		if err != nil {
			s.log.Warn("dashboard: location lookup failed", slog.String("error", err.Error()))
			return nil
		}
		d.Location = &loc

		w, err := s.provider.Weather(ctx, loc)
		if err != nil {
			s.log.Warn("dashboard: weather lookup failed", slog.String("location", loc.Name), slog.String("error", err.Error()))
			return nil
		}
		d.Weather = &w
		return nil
	})
	g.Go(func() error {
		base := s.prefs.Get().Currency
		rates, err := s.provider.CurrencyRates(ctx, base)
		if err != nil {
			s.log.Warn("dashboard: currency lookup failed", slog.String("base", base), slog.String("error", err.Error()))
			return nil
		}
		d.Currencies = rates
		return nil
	})
	_ = g.Wait()

	return d
}

// SearchFlights fetches flights and returns them sorted by q.Sort. A lookup
// superseded by a newer one returns search.ErrStale.
func (s *Service) SearchFlights(ctx context.Context, q FlightQuery) ([]models.Flight, error) {
	if q.Sort == "" {
		q.Sort = search.DefaultSortKey
	}
	s.flights.SetSort(q.Sort)

	var got []models.Flight
	err := s.flights.Search(ctx, func(ctx context.Context) ([]models.Flight, error) {
		var err error
		got, err = s.provider.SearchFlights(ctx, q.From, q.To, q.Date)
		return got, err
	})
	if err != nil {
		return nil, err
	}
	// Sorted from this request's own lookup and key. The holder's Sorted view
	// follows whichever request set the key last and serves subscribers.
	return search.SortFlights(got, q.Sort), nil
}

// SearchHotels fetches hotels and returns those passing q.Filter.
func (s *Service) SearchHotels(ctx context.Context, q HotelQuery) ([]models.Hotel, error) {
	if q.Filter.PriceRange == "" {
		q.Filter.PriceRange = search.PriceAll
	}
	s.hotels.SetFilter(q.Filter)

	var got []models.Hotel
	err := s.hotels.Search(ctx, func(ctx context.Context) ([]models.Hotel, error) {
		var err error
		got, err = s.provider.SearchHotels(ctx, q.Location, q.CheckIn, q.CheckOut)
		return got, err
	})
	if err != nil {
		return nil, err
	}
	// Same as SearchFlights: the holder's Filtered view may already carry
	// another request's filter.
	return search.FilterHotels(got, q.Filter), nil
}

// SearchCities returns city suggestions for a type-ahead query. Queries of
// fewer than MinCityQuery characters are not sent and yield no suggestions.
func (s *Service) SearchCities(ctx context.Context, query string) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinCityQuery {
		s.cities.Clear()
		return []models.Location{}, nil
	}

	var got []models.Location
	err := s.cities.Search(ctx, func(ctx context.Context) ([]models.Location, error) {
		var err error
		got, err = s.provider.SearchCities(ctx, query)
		return got, err
	})
	if err != nil {
		return nil, err
	}
	if got == nil {
		got = []models.Location{}
	}
	return got, nil
}
