package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/reactive"
)

// ErrStale is returned by a lookup that finished after a newer one started.
// Its result is discarded.
var ErrStale = errors.New("search: superseded by a newer lookup")

// requests hands out a token per lookup and cancels the previous one, so only
// the latest lookup may publish its result.
type requests struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (r *requests) begin(parent context.Context) (uint64, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	r.cancel = cancel
	return r.seq, ctx
}

// finish reports whether token is still the latest lookup.
func (r *requests) finish(token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.seq {
		return false
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return true
}

// results is the shared holder behind FlightResults and HotelResults.
type results[T any] struct {
	log     *slog.Logger
	kind    string
	items   *reactive.Signal[[]T]
	loading *reactive.Signal[bool]
	reqs    requests
}

func newResults[T any](kind string, logger *slog.Logger) *results[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &results[T]{
		log:     logger,
		kind:    kind,
		items:   reactive.New([]T{}),
		loading: reactive.New(false),
	}
}

func (r *results[T]) run(ctx context.Context, lookup func(context.Context) ([]T, error)) error {
	token, ctx := r.reqs.begin(ctx)
	r.loading.Set(true)

	items, err := lookup(ctx)
	if !r.reqs.finish(token) {
		return ErrStale
	}
	defer r.loading.Set(false)

	if err != nil {
		r.log.Warn("search: lookup failed", slog.String("kind", r.kind), slog.String("error", err.Error()))
		r.items.Set([]T{})
		return err
	}
	if items == nil {
		items = []T{}
	}
	r.items.Set(items)
	return nil
}

// reset publishes an empty result and supersedes any lookup in flight.
func (r *results[T]) reset() {
	token, _ := r.reqs.begin(context.Background())
	r.reqs.finish(token)
	r.items.Set([]T{})
	r.loading.Set(false)
}

// FlightResults holds the latest flight result set, the chosen sort key and
// the sorted view over both.
type FlightResults struct {
	*results[models.Flight]
	sortKey *reactive.Signal[SortKey]
	sorted  *reactive.Computed[[]models.Flight]
}

// NewFlightResults creates an empty holder sorted by DefaultSortKey.
func NewFlightResults(logger *slog.Logger) *FlightResults {
	r := &FlightResults{
		results: newResults[models.Flight]("flights", logger),
		sortKey: reactive.New(DefaultSortKey),
	}
	r.sorted = reactive.NewComputed(func() []models.Flight {
		return SortFlights(r.items.Get(), r.sortKey.Get())
	}, r.items, r.sortKey)
	return r
}

// Search runs lookup and publishes its flights unless a newer Search started
// meanwhile, in which case ErrStale is returned. A failed lookup publishes an
// empty result.
func (r *FlightResults) Search(ctx context.Context, lookup func(context.Context) ([]models.Flight, error)) error {
	return r.run(ctx, lookup)
}

// SetSort changes the sort key.
func (r *FlightResults) SetSort(key SortKey) { r.sortKey.Set(key) }

// SortKey returns the current sort key.
func (r *FlightResults) SortKey() SortKey { return r.sortKey.Get() }

// Results returns the flights in provider order.
func (r *FlightResults) Results() []models.Flight { return r.items.Get() }

// Sorted returns the flights ordered by the current sort key.
func (r *FlightResults) Sorted() []models.Flight { return r.sorted.Get() }

// Loading reports whether a lookup is in flight.
func (r *FlightResults) Loading() bool { return r.loading.Get() }

// Subscribe registers fn to run whenever the sorted view is invalidated.
func (r *FlightResults) Subscribe(fn func()) func() { return r.sorted.Subscribe(fn) }

// HotelResults holds the latest hotel result set, the active filter and the
// filtered view over both.
type HotelResults struct {
	*results[models.Hotel]
	filter   *reactive.Signal[HotelFilter]
	filtered *reactive.Computed[[]models.Hotel]
}

// NewHotelResults creates an empty holder with no filter applied.
func NewHotelResults(logger *slog.Logger) *HotelResults {
	r := &HotelResults{
		results: newResults[models.Hotel]("hotels", logger),
		filter:  reactive.New(HotelFilter{PriceRange: PriceAll}),
	}
	r.filtered = reactive.NewComputed(func() []models.Hotel {
		return FilterHotels(r.items.Get(), r.filter.Get())
	}, r.items, r.filter)
	return r
}

// Search runs lookup and publishes its hotels. See FlightResults.Search.
func (r *HotelResults) Search(ctx context.Context, lookup func(context.Context) ([]models.Hotel, error)) error {
	return r.run(ctx, lookup)
}

// SetFilter replaces the active filter.
func (r *HotelResults) SetFilter(f HotelFilter) { r.filter.Set(f) }

// Filter returns the active filter.
func (r *HotelResults) Filter() HotelFilter { return r.filter.Get() }

// Results returns the hotels in provider order.
func (r *HotelResults) Results() []models.Hotel { return r.items.Get() }

// Filtered returns the hotels passing the active filter.
func (r *HotelResults) Filtered() []models.Hotel { return r.filtered.Get() }

// Loading reports whether a lookup is in flight.
func (r *HotelResults) Loading() bool { return r.loading.Get() }

// Subscribe registers fn to run whenever the filtered view is invalidated.
func (r *HotelResults) Subscribe(fn func()) func() { return r.filtered.Subscribe(fn) }

// CityResults holds the latest city suggestions for a type-ahead lookup.
type CityResults struct {
	*results[models.Location]
}

// NewCityResults creates an empty suggestion holder.
func NewCityResults(logger *slog.Logger) *CityResults {
	return &CityResults{results: newResults[models.Location]("cities", logger)}
}

// Search runs lookup and publishes its cities. See FlightResults.Search.
func (r *CityResults) Search(ctx context.Context, lookup func(context.Context) ([]models.Location, error)) error {
	return r.run(ctx, lookup)
}

// Clear drops the suggestions and supersedes any lookup in flight.
func (r *CityResults) Clear() {
	r.reset()
}

// Suggestions returns the current suggestions.
func (r *CityResults) Suggestions() []models.Location { return r.items.Get() }

// Subscribe registers fn to run whenever the suggestions change.
func (r *CityResults) Subscribe(fn func()) func() { return r.items.Subscribe(fn) }
