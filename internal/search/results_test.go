package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/travelmate/internal/models"
)

func staticFlights(flights ...models.Flight) func(context.Context) ([]models.Flight, error) {
	return func(context.Context) ([]models.Flight, error) { return flights, nil }
}

func TestFlightResults_SortedView(t *testing.T) {
	r := NewFlightResults(nil)
	require.NoError(t, r.Search(context.Background(), staticFlights(sample()...)))

	assert.Equal(t, []string{"d", "b", "e", "a", "c"}, flightIDs(r.Sorted()))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, flightIDs(r.Results()))

	notified := 0
	r.Subscribe(func() { notified++ })
	r.SetSort(SortDurationAsc)

	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"d", "a", "e", "b", "c"}, flightIDs(r.Sorted()))
	assert.False(t, r.Loading())
}

func TestFlightResults_FailureYieldsEmpty(t *testing.T) {
	r := NewFlightResults(nil)
	require.NoError(t, r.Search(context.Background(), staticFlights(sample()...)))

	boom := errors.New("provider down")
	err := r.Search(context.Background(), func(context.Context) ([]models.Flight, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, r.Sorted())
	assert.False(t, r.Loading())
}

func TestFlightResults_StaleLookupDiscarded(t *testing.T) {
	r := NewFlightResults(nil)

	started := make(chan struct{})
	release := make(chan struct{})
	slowErr := make(chan error, 1)
	var slowCtxErr error

	go func() {
		slowErr <- r.Search(context.Background(), func(ctx context.Context) ([]models.Flight, error) {
			close(started)
			<-release
			slowCtxErr = ctx.Err()
			return []models.Flight{flight("old", 1, "1h", "09:00")}, nil
		})
	}()
	<-started

	require.NoError(t, r.Search(context.Background(), staticFlights(flight("new", 2, "2h", "10:00"))))
	close(release)

	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("slow lookup did not return")
	}
	assert.ErrorIs(t, slowCtxErr, context.Canceled)
	assert.Equal(t, []string{"new"}, flightIDs(r.Sorted()))
}

func TestHotelResults_FilteredView(t *testing.T) {
	r := NewHotelResults(nil)
	hotels := []models.Hotel{hotel("a", 80, 4.5), hotel("b", 180, 3.5), hotel("c", 320, 4.9)}
	err := r.Search(context.Background(), func(context.Context) ([]models.Hotel, error) {
		return hotels, nil
	})
	require.NoError(t, err)
	assert.Len(t, r.Filtered(), 3)

	r.SetFilter(HotelFilter{PriceRange: PriceAll, MinRating: 4})
	assert.Equal(t, []string{"a", "c"}, ids(r.Filtered()))

	r.SetFilter(HotelFilter{PriceRange: PriceLuxury})
	assert.Equal(t, []string{"c"}, ids(r.Filtered()))
	assert.Equal(t, PriceLuxury, r.Filter().PriceRange)
	assert.Len(t, r.Results(), 3)
}

func TestCityResults_ClearSupersedesInFlight(t *testing.T) {
	r := NewCityResults(nil)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- r.Search(context.Background(), func(ctx context.Context) ([]models.Location, error) {
			close(started)
			<-ctx.Done()
			return []models.Location{{Name: "London"}}, nil
		})
	}()
	<-started

	r.Clear()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight lookup was not cancelled")
	}
	assert.Empty(t, r.Suggestions())
	assert.False(t, r.loading.Get())
}
