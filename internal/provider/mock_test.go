package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/travelmate/internal/apperr"
)

func TestMock_SearchCities(t *testing.T) {
	m := NewMock(0)

	got, err := m.SearchCities(context.Background(), "lon")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "London", got[0].Name)

	got, err = m.SearchCities(context.Background(), "NEW")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New York", got[0].Name)

	got, err = m.SearchCities(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMock_CurrencyRatesRebased(t *testing.T) {
	m := NewMock(0)

	usd, err := m.CurrencyRates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, usd, 4)
	assert.Equal(t, 1.0, usd[0].Rate)

	eur, err := m.CurrencyRates(context.Background(), "eur")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, eur[1].Rate, 1e-9)
	assert.InDelta(t, 1/0.85, eur[0].Rate, 1e-9)

	_, err = m.CurrencyRates(context.Background(), "XXX")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMock_SearchFlightsStampsDate(t *testing.T) {
	m := NewMock(0)
	got, err := m.SearchFlights(context.Background(), "New York", "Los Angeles", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-01", got[0].Departure.Date)
	assert.Equal(t, "2025-02-01", devFlights[0].Departure.Date, "shared data set must not change")
}

func TestMock_SearchHotelsReturnsCopies(t *testing.T) {
	m := NewMock(0)
	got, err := m.SearchHotels(context.Background(), "Los Angeles", "", "")
	require.NoError(t, err)
	got[0].Amenities[0] = "Moat"
	assert.Equal(t, "Pool", devHotels[0].Amenities[0])
}

func TestMock_HonoursContext(t *testing.T) {
	m := NewMock(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.UserLocation(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMock_Err(t *testing.T) {
	boom := errors.New("upstream unavailable")
	m := &Mock{Err: boom}
	_, err := m.Weather(context.Background(), newYork)
	assert.ErrorIs(t, err, boom)
}
