// Package reactive provides a small observable-value primitive with derived
// views and effects.
//
// A Signal holds a value and notifies its subscribers synchronously, in
// registration order, once per Set. A Computed view subscribes to its sources,
// marks itself dirty when any of them changes and recomputes on the next Get.
// An Effect re-runs a side-effecting function after every upstream change.
//
// The package assumes a single logical writer per signal. Set calls are not
// batched: every call is observed independently.
package reactive

import "sync"

// Source is anything a derived view or effect can depend on.
type Source interface {
	// Subscribe registers fn to be called after every change and returns a
	// function that removes the registration.
	Subscribe(fn func()) (unsubscribe func())
}

// Readable is a read-only view of a reactive value.
type Readable[T any] interface {
	Source
	Get() T
}

// Signal is a mutable reactive value.
type Signal[T any] struct {
	mu    sync.RWMutex
	value T
	subs  listeners
}

// New creates a Signal holding initial.
func New[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies every subscriber exactly once.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	s.subs.notify()
}

// Update is equivalent to Set(fn(Get())).
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.Get()))
}

// Subscribe implements Source.
func (s *Signal[T]) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// ReadOnly returns a view of s without Set/Update.
func (s *Signal[T]) ReadOnly() Readable[T] {
	return readOnly[T]{s: s}
}

type readOnly[T any] struct {
	s *Signal[T]
}

func (r readOnly[T]) Get() T                     { return r.s.Get() }
func (r readOnly[T]) Subscribe(fn func()) func() { return r.s.Subscribe(fn) }

// listeners is an ordered subscriber list. Notification works on a snapshot
// so callbacks may subscribe or unsubscribe while being notified.
type listeners struct {
	mu     sync.Mutex
	nextID uint64
	subs   []listener
}

type listener struct {
	id uint64
	fn func()
}

func (l *listeners) add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *listeners) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sub := range l.subs {
		if sub.id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}

func (l *listeners) notify() {
	l.mu.Lock()
	snapshot := make([]listener, len(l.subs))
	copy(snapshot, l.subs)
	l.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn()
	}
}

func (l *listeners) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}
