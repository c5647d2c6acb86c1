package sse

import (
	"sync"

	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/reactive"
)

// TripsPayload is the data of a trips.changed event.
type TripsPayload struct {
	Count int `json:"count"`
}

// ThemePayload is the data of a theme.changed event.
type ThemePayload struct {
	Theme models.Theme `json:"theme"`
}

// Feed subscribes to the stores' reactive values and publishes a change event
// for each update. theme.changed is only sent when the theme actually differs
// from the last one seen. The returned function detaches the feed.
func Feed(b *Broker, trips reactive.Readable[[]models.Trip], prefs reactive.Readable[models.UserPreferences]) (stop func()) {
	var mu sync.Mutex
	lastTheme := prefs.Get().Theme

	unsubTrips := trips.Subscribe(func() {
		b.PublishChange(Event{Type: EventTripsChanged, Data: TripsPayload{Count: len(trips.Get())}})
	})
	unsubPrefs := prefs.Subscribe(func() {
		p := prefs.Get()
		b.PublishChange(Event{Type: EventPreferencesChanged, Data: p})

		mu.Lock()
		changed := p.Theme != lastTheme
		lastTheme = p.Theme
		mu.Unlock()
		if changed {
			b.Publish(Event{Type: EventThemeChanged, Data: ThemePayload{Theme: p.Theme}})
		}
	})

	return func() {
		unsubTrips()
		unsubPrefs()
	}
}
