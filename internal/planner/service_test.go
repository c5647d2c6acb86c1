package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/prefstore"
	"github.com/starford/travelmate/internal/provider"
	"github.com/starford/travelmate/internal/search"
	"github.com/starford/travelmate/internal/storage"
	"github.com/starford/travelmate/internal/tripstore"
)

// flakyProvider fails selected calls and counts city lookups.
type flakyProvider struct {
	*provider.Mock
	failLocation bool
	failRates    bool
	cityCalls    atomic.Int32
}

func (p *flakyProvider) UserLocation(ctx context.Context) (models.Location, error) {
	if p.failLocation {
		return models.Location{}, errors.New("geolocation denied")
	}
	return p.Mock.UserLocation(ctx)
}

func (p *flakyProvider) CurrencyRates(ctx context.Context, base string) ([]models.Currency, error) {
	if p.failRates {
		return nil, errors.New("rates unavailable")
	}
	return p.Mock.CurrencyRates(ctx, base)
}

func (p *flakyProvider) SearchCities(ctx context.Context, q string) ([]models.Location, error) {
	p.cityCalls.Add(1)
	return p.Mock.SearchCities(ctx, q)
}

func newService(t *testing.T, p provider.Provider) *Service {
	t.Helper()
	port := storage.NewMemory()
	trips := tripstore.New(port)
	prefs := prefstore.New(port)
	t.Cleanup(prefs.Close)
	return New(port, trips, prefs, p, nil)
}

func TestDashboard(t *testing.T) {
	svc := newService(t, provider.NewMock(0))
	_, err := svc.Trips().Add(models.TripDraft{Title: "Paris Trip", Status: models.TripActive, Currency: "EUR"})
	require.NoError(t, err)
	_, err = svc.Trips().Add(models.TripDraft{Title: "Rome", Currency: "EUR"})
	require.NoError(t, err)

	d := svc.Dashboard(context.Background())

	require.NotNil(t, d.Location)
	assert.Equal(t, "New York", d.Location.Name)
	require.NotNil(t, d.Weather)
	assert.Equal(t, "Sunny", d.Weather.Condition)
	assert.Len(t, d.Currencies, 4)
	assert.Equal(t, tripstore.Counts{Total: 2, Planning: 1, Active: 1}, d.Counts)
	assert.Len(t, d.Active, 1)
	assert.Len(t, d.Upcoming, 1)
	assert.Empty(t, d.Completed)
	assert.Len(t, d.Recent, 2)
}

func TestDashboard_ProviderFailuresLeaveFieldsEmpty(t *testing.T) {
	p := &flakyProvider{Mock: provider.NewMock(0), failLocation: true, failRates: true}
	svc := newService(t, p)

	d := svc.Dashboard(context.Background())
	assert.Nil(t, d.Location)
	assert.Nil(t, d.Weather)
	assert.NotNil(t, d.Currencies)
	assert.Empty(t, d.Currencies)
}

func TestDashboard_RatesUseCurrencyPreference(t *testing.T) {
	svc := newService(t, provider.NewMock(0))
	require.NoError(t, svc.Preferences().SetCurrency("EUR"))

	d := svc.Dashboard(context.Background())
	require.Len(t, d.Currencies, 4)
	assert.InDelta(t, 1.0, d.Currencies[1].Rate, 1e-9)
}

func TestSearchFlights_Sorted(t *testing.T) {
	svc := newService(t, provider.NewMock(0))

	got, err := svc.SearchFlights(context.Background(), FlightQuery{From: "New York", To: "Los Angeles", Sort: search.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "DL456", got[0].FlightNumber)
	assert.Equal(t, search.SortPriceDesc, svc.Flights().SortKey())
	assert.Equal(t, got, svc.Flights().Sorted())
}

func TestSearchFlights_ResultKeepsOwnSortKey(t *testing.T) {
	svc := newService(t, provider.NewMock(0))
	ctx := context.Background()

	desc, err := svc.SearchFlights(ctx, FlightQuery{From: "New York", To: "Los Angeles", Sort: search.SortPriceDesc})
	require.NoError(t, err)
	asc, err := svc.SearchFlights(ctx, FlightQuery{From: "New York", To: "Los Angeles", Sort: search.SortPriceAsc})
	require.NoError(t, err)

	require.Len(t, desc, 2)
	assert.GreaterOrEqual(t, desc[0].Price, desc[1].Price)
	assert.LessOrEqual(t, asc[0].Price, asc[1].Price)
	assert.Equal(t, asc, svc.Flights().Sorted())
}

func TestSearchHotels_Filtered(t *testing.T) {
	svc := newService(t, provider.NewMock(0))

	got, err := svc.SearchHotels(context.Background(), HotelQuery{
		Location: "Los Angeles",
		Filter:   search.HotelFilter{PriceRange: search.PriceMid, MinRating: 4.6},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Seaside Resort", got[0].Name)
	assert.Len(t, svc.Hotels().Results(), 2)
}

func TestSearchHotels_ProviderFailure(t *testing.T) {
	svc := newService(t, &provider.Mock{Err: errors.New("down")})

	_, err := svc.SearchHotels(context.Background(), HotelQuery{Location: "Miami"})
	assert.Error(t, err)
	assert.Empty(t, svc.Hotels().Filtered())
}

func TestSearchCities_ShortQueriesNotSent(t *testing.T) {
	p := &flakyProvider{Mock: provider.NewMock(0)}
	svc := newService(t, p)

	for _, q := range []string{"", "lo", " lo ", "Lo"} {
		got, err := svc.SearchCities(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got, q)
	}
	assert.Zero(t, p.cityCalls.Load())

	got, err := svc.SearchCities(context.Background(), "lon")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "London", got[0].Name)
	assert.EqualValues(t, 1, p.cityCalls.Load())
}

func TestSearchCities_HonoursCancellation(t *testing.T) {
	svc := newService(t, provider.NewMock(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.SearchCities(ctx, "London")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExport(t *testing.T) {
	svc := newService(t, provider.NewMock(0))
	_, err := svc.Trips().Add(models.TripDraft{Title: "Paris Trip", Currency: "EUR"})
	require.NoError(t, err)
	require.NoError(t, svc.Preferences().SetTheme(models.ThemeDark))

	doc := svc.Export()
	assert.Contains(t, string(doc.Trips), "Paris Trip")
	assert.Equal(t, models.ThemeDark, doc.Settings.Theme)

	require.NoError(t, svc.ClearCache())
	assert.JSONEq(t, `[]`, string(svc.Export().Trips))
	assert.Empty(t, svc.Trips().List())
}
