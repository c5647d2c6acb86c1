package reactive

import "sync"

// Computed is a memoized derived view. It is recomputed lazily on the first
// Get after any of its sources changes; reads in between return the cached
// value. A Computed is itself a Source, so views can be chained.
type Computed[T any] struct {
	fn func() T

	mu    sync.Mutex
	dirty bool
	value T

	subs   listeners
	unsubs []func()
}

// NewComputed creates a derived view of fn over deps.
func NewComputed[T any](fn func() T, deps ...Source) *Computed[T] {
	c := &Computed[T]{fn: fn, dirty: true}
	for _, d := range deps {
		c.unsubs = append(c.unsubs, d.Subscribe(c.invalidate))
	}
	return c
}

// Get returns the cached value, recomputing it first if a source changed.
func (c *Computed[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dirty {
		c.value = c.fn()
		c.dirty = false
	}
	return c.value
}

// Subscribe implements Source. Subscribers are notified when the view is
// invalidated, before it is recomputed.
func (c *Computed[T]) Subscribe(fn func()) func() {
	return c.subs.add(fn)
}

// Stop detaches the view from its sources. The last computed value stays
// readable.
func (c *Computed[T]) Stop() {
	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
}

func (c *Computed[T]) invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()

	c.subs.notify()
}

// Effect runs a side-effecting function once on creation and again after
// every change of any of its sources.
type Effect struct {
	fn func()

	mu      sync.Mutex
	stopped bool
	unsubs  []func()
}

// NewEffect runs fn immediately and subscribes it to deps.
func NewEffect(fn func(), deps ...Source) *Effect {
	e := &Effect{fn: fn}
	e.run()
	for _, d := range deps {
		e.unsubs = append(e.unsubs, d.Subscribe(e.run))
	}
	return e
}

// Stop detaches the effect; fn is not called again.
func (e *Effect) Stop() {
	e.mu.Lock()
	e.stopped = true
	unsubs := e.unsubs
	e.unsubs = nil
	e.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (e *Effect) run() {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return
	}
	e.fn()
}
