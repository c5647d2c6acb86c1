// Package tripstore holds the canonical trip list, its derived views and its
// persistence under the travel-app-trips key.
package tripstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/reactive"
	"github.com/starford/travelmate/internal/storage"
)

// DefaultRecentLimit is the size of the Recent view when none is configured.
const DefaultRecentLimit = 3

// Validator checks a trip before it enters the store.
type Validator func(models.Trip) error

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger for persistence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithValidator enables validation of added and updated trips.
func WithValidator(v Validator) Option {
	return func(s *Store) { s.validate = v }
}

// WithRecentLimit sets the size of the Recent view.
func WithRecentLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// Counts summarises the partitions.
type Counts struct {
	Total     int `json:"total"`
	Planning  int `json:"planning"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Store is the trip entity store. Reads never block on writers; mutations are
// serialised so they are applied and observed in call order. Subscribers are
// notified synchronously and must not mutate the store from the callback.
type Store struct {
	port        storage.Port
	log         *slog.Logger
	now         func() time.Time
	newID       func() string
	validate    Validator
	recentLimit int

	mu      sync.Mutex
	lastRaw []byte

	trips      *reactive.Signal[[]models.Trip]
	partitions map[models.TripStatus]*reactive.Computed[[]models.Trip]
	recent     *reactive.Computed[[]models.Trip]
}

// New loads the persisted trips from port and builds the derived views.
// Missing or malformed persisted data yields an empty store.
func New(port storage.Port, opts ...Option) *Store {
	s := &Store{
		port:        port,
		log:         slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		recentLimit: DefaultRecentLimit,
	}
	for _, o := range opts {
		o(s)
	}

	raw, trips := s.load()
	s.lastRaw = raw
	s.trips = reactive.New(trips)

	s.partitions = make(map[models.TripStatus]*reactive.Computed[[]models.Trip], len(models.TripStatuses))
	for _, st := range models.TripStatuses {
		s.partitions[st] = reactive.NewComputed(func() []models.Trip {
			return filterStatus(s.trips.Get(), st)
		}, s.trips)
	}
	s.recent = reactive.NewComputed(func() []models.Trip {
		return mostRecent(s.trips.Get(), s.recentLimit)
	}, s.trips)

	return s
}

// Trips exposes the canonical list as a read-only reactive value. Every Get
// returns a fresh copy.
func (s *Store) Trips() reactive.Readable[[]models.Trip] {
	return listView{src: s.trips.ReadOnly()}
}

type listView struct {
	src reactive.Readable[[]models.Trip]
}

func (v listView) Get() []models.Trip         { return slices.Clone(v.src.Get()) }
func (v listView) Subscribe(fn func()) func() { return v.src.Subscribe(fn) }

// Subscribe registers fn to run after every change of the trip list.
func (s *Store) Subscribe(fn func()) func() {
	return s.trips.Subscribe(fn)
}

// List returns the trips in insertion order.
func (s *Store) List() []models.Trip {
	return slices.Clone(s.trips.Get())
}

// ByStatus returns the trips with the given status in insertion order.
// An unknown status yields an empty list.
func (s *Store) ByStatus(status models.TripStatus) []models.Trip {
	c, ok := s.partitions[status]
	if !ok {
		return []models.Trip{}
	}
	return slices.Clone(c.Get())
}

// Planning, Active and Completed are the status partitions.
func (s *Store) Planning() []models.Trip  { return s.ByStatus(models.TripPlanning) }
func (s *Store) Active() []models.Trip    { return s.ByStatus(models.TripActive) }
func (s *Store) Completed() []models.Trip { return s.ByStatus(models.TripCompleted) }

// Filter returns all trips for "all" or "", otherwise the status partition.
func (s *Store) Filter(status string) []models.Trip {
	if status == "" || status == "all" {
		return s.List()
	}
	return s.ByStatus(models.TripStatus(status))
}

// Recent returns the most recently updated trips, newest first.
func (s *Store) Recent() []models.Trip {
	return slices.Clone(s.recent.Get())
}

// Counts returns the size of every partition.
func (s *Store) Counts() Counts {
	c := Counts{
		Total:     len(s.trips.Get()),
		Planning:  len(s.partitions[models.TripPlanning].Get()),
		Active:    len(s.partitions[models.TripActive].Get()),
		Completed: len(s.partitions[models.TripCompleted].Get()),
	}
	return c
}

// ByID returns the trip with the given id.
func (s *Store) ByID(id string) (models.Trip, bool) {
	for _, t := range s.trips.Get() {
		if t.ID == id {
			return t, true
		}
	}
	return models.Trip{}, false
}

// Add creates a trip from d, appends it and persists the list.
// An empty status defaults to planning.
func (s *Store) Add(d models.TripDraft) (models.Trip, error) {
	if d.Status == "" {
		d.Status = models.TripPlanning
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.trips.Get()
	t := d.Trip(s.uniqueID(current), s.now())
	if err := checkStatus(t); err != nil {
		return models.Trip{}, err
	}
	if s.validate != nil {
		if err := s.validate(t); err != nil {
			return models.Trip{}, err
		}
	}

	next := make([]models.Trip, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, t)

	s.trips.Set(next)
	s.persist(next)
	return t, nil
}

// Update merges p into the trip with the given id and bumps its updatedAt.
// An unknown id is a silent no-op.
func (s *Store) Update(id string, p models.TripPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.trips.Get()
	i := indexOf(current, id)
	if i < 0 {
		return nil
	}

	updated := p.Apply(current[i])
	updated.UpdatedAt = s.now()
	if err := checkStatus(updated); err != nil {
		return err
	}
	if s.validate != nil {
		if err := s.validate(updated); err != nil {
			return err
		}
	}

	next := slices.Clone(current)
	next[i] = updated

	s.trips.Set(next)
	s.persist(next)
	return nil
}

// checkStatus rejects statuses outside the three partitions, whatever
// validator is configured.
func checkStatus(t models.Trip) error {
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, t.Status)
	}
	return nil
}

// Delete removes the trip with the given id. An unknown id is a silent no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.trips.Get()
	i := indexOf(current, id)
	if i < 0 {
		return
	}

	next := slices.Delete(slices.Clone(current), i, i+1)

	s.trips.Set(next)
	s.persist(next)
}

// Clear removes the persisted trips and empties the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.port.Remove(storage.KeyTrips); err != nil {
		return err
	}
	s.lastRaw = nil
	s.trips.Set([]models.Trip{})
	return nil
}

// Reload re-reads the persisted trips. It is a no-op when the stored bytes
// are the ones this store last wrote or read.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, trips := s.load()
	if bytes.Equal(raw, s.lastRaw) {
		return
	}
	s.lastRaw = raw
	s.trips.Set(trips)
}

func (s *Store) load() ([]byte, []models.Trip) {
	raw, err := s.port.Get(storage.KeyTrips)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn("trips: read failed", slog.String("error", err.Error()))
		}
		return nil, []models.Trip{}
	}
	trips, err := decode(raw)
	if err != nil {
		s.log.Warn("trips: malformed persisted data, starting empty", slog.String("error", err.Error()))
		return raw, []models.Trip{}
	}
	return raw, s.normalize(trips)
}

// normalize repairs entries that would break store invariants: missing ids,
// duplicate ids and unknown statuses.
func (s *Store) normalize(trips []models.Trip) []models.Trip {
	seen := make(map[string]struct{}, len(trips))
	out := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		if t.ID == "" {
			t.ID = s.newID()
		}
		if _, dup := seen[t.ID]; dup {
			s.log.Warn("trips: dropping duplicate id", slog.String("id", t.ID))
			continue
		}
		if !t.Status.Valid() {
			t.Status = models.TripPlanning
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *Store) persist(trips []models.Trip) {
	raw, err := json.Marshal(trips)
	if err != nil {
		s.log.Warn("trips: encode failed", slog.String("error", err.Error()))
		return
	}
	if err := s.port.Set(storage.KeyTrips, raw); err != nil {
		s.log.Warn("trips: persist failed", slog.String("error", err.Error()))
		return
	}
	s.lastRaw = raw
}

func (s *Store) uniqueID(trips []models.Trip) string {
	for {
		id := s.newID()
		if id != "" && indexOf(trips, id) < 0 {
			return id
		}
	}
}

func decode(raw []byte) ([]models.Trip, error) {
	var trips []models.Trip
	if err := json.Unmarshal(raw, &trips); err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	return trips, nil
}

func indexOf(trips []models.Trip, id string) int {
	return slices.IndexFunc(trips, func(t models.Trip) bool { return t.ID == id })
}

func filterStatus(trips []models.Trip, status models.TripStatus) []models.Trip {
	out := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

func mostRecent(trips []models.Trip, limit int) []models.Trip {
	sorted := slices.Clone(trips)
	slices.SortStableFunc(sorted, func(a, b models.Trip) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
