// Package sse implements a Server-Sent Events broker that pushes trip and
// preference changes to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventTripsChanged       = "trips.changed"
	EventPreferencesChanged = "preferences.changed"
	EventThemeChanged       = "theme.changed"
	EventDashboardUpdated   = "dashboard.updated"
)

// replayed are the state events whose latest frame a new client receives on
// connect, in this order.
var replayed = []string{EventTripsChanged, EventPreferencesChanged, EventThemeChanged}

const (
	clientBuffer      = 64
	retryMillis       = 3000
	heartbeatInterval = 25 * time.Second
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DashboardPayload is the data of a dashboard.updated event. Cause is the
// type of the last change folded into it.
type DashboardPayload struct {
	Cause string `json:"cause"`
}

type client struct {
	ch    chan []byte
	types map[string]bool // nil means every type
}

func (c *client) wants(typ string) bool {
	return c.types == nil || c.types[typ]
}

type publication struct {
	event  Event
	change bool
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set, the replay frames and the
// dashboard throttle; public methods talk to it over channels.
//
// dashboard.updated is sent at most once per throttle window. A change that
// lands inside the window schedules one trailing update at its end, so the
// last change is never left without a dashboard refresh.
type Broker struct {
	dashboardMin time.Duration

	subscribeCh   chan *client
	unsubscribeCh chan chan []byte
	publishCh     chan publication
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given dashboard throttle interval.
func NewBroker(dashboardThrottle time.Duration) *Broker {
	if dashboardThrottle <= 0 {
		dashboardThrottle = 2 * time.Second
	}

	b := &Broker{
		dashboardMin:  dashboardThrottle,
		subscribeCh:   make(chan *client),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan publication, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]*client)
	latest := make(map[string][]byte)

	var (
		seq           uint64
		lastDashboard time.Time
		cause         string
		trailing      *time.Timer
		trailingC     <-chan time.Time
	)

	send := func(c *client, frame []byte) {
		select {
		case c.ch <- frame:
		default:
			// Slow client; drop rather than stall the others.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
		if slices.Contains(replayed, event.Type) {
			latest[event.Type] = frame
		}
		for _, c := range clients {
			if c.wants(event.Type) {
				send(c, frame)
			}
		}
	}

	dashboard := func(now time.Time) {
		lastDashboard = now
		broadcast(Event{Type: EventDashboardUpdated, Data: DashboardPayload{Cause: cause}})
	}

	handle := func(p publication) {
		broadcast(p.event)
		if !p.change {
			return
		}
		cause = p.event.Type
		now := time.Now()
		wait := b.dashboardMin - now.Sub(lastDashboard)
		switch {
		case wait <= 0:
			dashboard(now)
		case trailingC == nil:
			trailing = time.NewTimer(wait)
			trailingC = trailing.C
		}
	}

	// flush applies queued publications so a subscriber or counter sees
	// everything published before its request.
	flush := func() {
		for {
			select {
			case p := <-b.publishCh:
				handle(p)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			flush()
			clients[c.ch] = c
			for _, typ := range replayed {
				if frame, ok := latest[typ]; ok && c.wants(typ) {
					send(c, frame)
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case p := <-b.publishCh:
			handle(p)

		case <-trailingC:
			trailingC = nil
			dashboard(time.Now())

		case resp := <-b.countReqCh:
			flush()
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client interested in the given event types (every type
// when none are given) and returns its channel. The latest trips,
// preferences and theme frames are queued on it straight away.
func (b *Broker) Subscribe(types ...string) chan []byte {
	c := &client{ch: make(chan []byte, clientBuffer)}
	if len(types) > 0 {
		c.types = make(map[string]bool, len(types))
		for _, t := range types {
			c.types[t] = true
		}
	}

	if b.closed.Load() {
		close(c.ch)
		return c.ch
	}
	select {
	case b.subscribeCh <- c:
	case <-b.stopped:
		close(c.ch)
	}
	return c.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all interested clients.
func (b *Broker) Publish(event Event) {
	b.enqueue(publication{event: event})
}

// PublishChange publishes a state change and folds it into the throttled
// dashboard.updated stream.
func (b *Broker) PublishChange(event Event) {
	b.enqueue(publication{event: event, change: true})
}

func (b *Broker) enqueue(p publication) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- p:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// "types" query parameter is a comma-separated list of event types to
// receive.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe(parseTypes(r.URL.Query().Get("types"))...)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(heartbeatInterval)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		}
	}
}

func parseTypes(raw string) []string {
	var types []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}
