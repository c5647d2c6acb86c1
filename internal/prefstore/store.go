// Package prefstore holds the session's user preferences, applies theme
// changes to the presentation layer and writes every change through to the
// persistence port.
package prefstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/reactive"
	"github.com/starford/travelmate/internal/storage"
)

// ThemeApplier pushes a theme to the presentation layer.
type ThemeApplier interface {
	ApplyTheme(models.Theme)
}

// ThemeApplierFunc adapts a function to ThemeApplier.
type ThemeApplierFunc func(models.Theme)

// ApplyTheme implements ThemeApplier.
func (f ThemeApplierFunc) ApplyTheme(t models.Theme) { f(t) }

// SystemThemeDetector reports the ambient light/dark preference, if any.
type SystemThemeDetector interface {
	SystemTheme() (models.Theme, bool)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for persistence diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithThemeApplier sets the theme side effect.
func WithThemeApplier(a ThemeApplier) Option {
	return func(s *Store) { s.applier = a }
}

// WithSystemTheme sets the ambient theme detector consulted when nothing is
// persisted.
func WithSystemTheme(d SystemThemeDetector) Option {
	return func(s *Store) { s.detector = d }
}

// Patch is a partial preferences update. Nil fields are left untouched.
type Patch struct {
	Theme         *models.Theme `json:"theme,omitempty"`
	Language      *string       `json:"language,omitempty"`
	Currency      *string       `json:"currency,omitempty"`
	Units         *models.Units `json:"units,omitempty"`
	Notifications *bool         `json:"notifications,omitempty"`
}

func (p Patch) apply(prefs models.UserPreferences) models.UserPreferences {
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	if p.Language != nil {
		prefs.Language = *p.Language
	}
	if p.Currency != nil {
		prefs.Currency = strings.ToUpper(*p.Currency)
	}
	if p.Units != nil {
		prefs.Units = *p.Units
	}
	if p.Notifications != nil {
		prefs.Notifications = *p.Notifications
	}
	return prefs
}

// Store is the preference store.
type Store struct {
	port     storage.Port
	log      *slog.Logger
	applier  ThemeApplier
	detector SystemThemeDetector

	mu            sync.Mutex
	settingsRaw   []byte
	themeRaw      []byte
	applied       models.Theme
	prefs         *reactive.Signal[models.UserPreferences]
	theme         *reactive.Computed[models.Theme]
	applyEffect   *reactive.Effect
	persistEffect *reactive.Effect
}

// New loads the persisted preferences, applies the initial theme and starts
// writing every change through to port.
func New(port storage.Port, opts ...Option) *Store {
	s := &Store{
		port: port,
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	prefs := s.load()
	s.prefs = reactive.New(prefs)
	s.theme = reactive.NewComputed(func() models.Theme {
		return s.prefs.Get().Theme
	}, s.prefs)

	s.applyEffect = reactive.NewEffect(s.applyTheme, s.theme)
	s.persistEffect = reactive.NewEffect(func() { s.persist(s.prefs.Get()) }, s.prefs)
	return s
}

// Close stops the theme and persistence effects.
func (s *Store) Close() {
	s.applyEffect.Stop()
	s.persistEffect.Stop()
	s.theme.Stop()
}

// Preferences exposes the preference record as a read-only reactive value.
func (s *Store) Preferences() reactive.Readable[models.UserPreferences] {
	return s.prefs.ReadOnly()
}

// Theme exposes the theme as a derived reactive value.
func (s *Store) Theme() reactive.Readable[models.Theme] {
	return s.theme
}

// Subscribe registers fn to run after every preference change.
func (s *Store) Subscribe(fn func()) func() {
	return s.prefs.Subscribe(fn)
}

// Get returns the current preferences.
func (s *Store) Get() models.UserPreferences {
	return s.prefs.Get()
}

// SetTheme switches to theme. Setting the current theme changes nothing.
func (s *Store) SetTheme(theme models.Theme) error {
	_, err := s.Update(Patch{Theme: &theme})
	return err
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Store) ToggleTheme() models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.prefs.Get()
	next.Theme = next.Theme.Toggle()
	s.prefs.Set(next)
	return next.Theme
}

// SetLanguage sets the locale code.
func (s *Store) SetLanguage(lang string) error {
	_, err := s.Update(Patch{Language: &lang})
	return err
}

// SetCurrency sets the display currency.
func (s *Store) SetCurrency(code string) error {
	_, err := s.Update(Patch{Currency: &code})
	return err
}

// SetUnits sets the measurement system.
func (s *Store) SetUnits(u models.Units) error {
	_, err := s.Update(Patch{Units: &u})
	return err
}

// SetNotifications toggles notifications.
func (s *Store) SetNotifications(enabled bool) error {
	_, err := s.Update(Patch{Notifications: &enabled})
	return err
}

// Update validates and applies p. An update that changes nothing does not
// notify subscribers.
func (s *Store) Update(p Patch) (models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.prefs.Get()
	next := p.apply(current)
	if err := next.Validate(); err != nil {
		return current, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if next == current {
		return current, nil
	}
	s.prefs.Set(next)
	return next, nil
}

// Reset restores the default preferences and removes the persisted settings
// record. The theme key keeps the reset theme.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.Set(models.DefaultPreferences())
	if err := s.port.Remove(storage.KeySettings); err != nil {
		return fmt.Errorf("prefstore: reset: %w", err)
	}
	s.settingsRaw = nil
	return nil
}

// Reload re-reads the persisted preferences. It is a no-op when the stored
// bytes are the ones this store last wrote or read.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	settingsRaw := s.read(storage.KeySettings)
	themeRaw := s.read(storage.KeyTheme)
	if bytes.Equal(settingsRaw, s.settingsRaw) && bytes.Equal(themeRaw, s.themeRaw) {
		return
	}
	s.settingsRaw, s.themeRaw = settingsRaw, themeRaw

	next := s.resolve(settingsRaw, themeRaw)
	if next != s.prefs.Get() {
		s.prefs.Set(next)
	}
}

func (s *Store) load() models.UserPreferences {
	s.settingsRaw = s.read(storage.KeySettings)
	s.themeRaw = s.read(storage.KeyTheme)
	return s.resolve(s.settingsRaw, s.themeRaw)
}

// resolve builds the preference record from the persisted values. The theme
// comes from the theme key, then the settings record, then the system
// preference, then light.
func (s *Store) resolve(settingsRaw, themeRaw []byte) models.UserPreferences {
	prefs, settingsTheme := s.decodeSettings(settingsRaw)

	switch {
	case themeRaw != nil && decodeTheme(themeRaw).Valid():
		prefs.Theme = decodeTheme(themeRaw)
	case settingsTheme:
	default:
		prefs.Theme = s.systemTheme()
	}
	return prefs
}

// decodeSettings returns the persisted settings with invalid fields reset to
// their defaults, and whether the record carried a valid theme.
func (s *Store) decodeSettings(raw []byte) (models.UserPreferences, bool) {
	defaults := models.DefaultPreferences()
	if raw == nil {
		return defaults, false
	}

	prefs := defaults
	prefs.Theme = ""
	if err := json.Unmarshal(raw, &prefs); err != nil {
		s.log.Warn("preferences: malformed persisted settings, using defaults", slog.String("error", err.Error()))
		return defaults, false
	}

	err := prefs.Validate()
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field := range fieldErrs {
			switch field {
			case "theme":
				prefs.Theme = ""
			case "language":
				prefs.Language = defaults.Language
			case "currency":
				prefs.Currency = defaults.Currency
			case "units":
				prefs.Units = defaults.Units
			}
		}
	}
	if !prefs.Theme.Valid() {
		prefs.Theme = defaults.Theme
		return prefs, false
	}
	return prefs, true
}

func (s *Store) systemTheme() models.Theme {
	if s.detector != nil {
		if t, ok := s.detector.SystemTheme(); ok && t.Valid() {
			return t
		}
	}
	return models.ThemeLight
}

func (s *Store) read(key string) []byte {
	raw, err := s.port.Get(key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn("preferences: read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil
	}
	return raw
}

func (s *Store) applyTheme() {
	theme := s.theme.Get()
	if theme == s.applied {
		return
	}
	s.applied = theme
	if s.applier != nil {
		s.applier.ApplyTheme(theme)
	}
}

func (s *Store) persist(prefs models.UserPreferences) {
	settingsRaw, err := json.Marshal(prefs)
	if err != nil {
		s.log.Warn("preferences: encode failed", slog.String("error", err.Error()))
		return
	}
	themeRaw, _ := json.Marshal(prefs.Theme)

	if !bytes.Equal(settingsRaw, s.settingsRaw) {
		if err := s.port.Set(storage.KeySettings, settingsRaw); err != nil {
			s.log.Warn("preferences: persist failed", slog.String("key", storage.KeySettings), slog.String("error", err.Error()))
		} else {
			s.settingsRaw = settingsRaw
		}
	}
	if !bytes.Equal(themeRaw, s.themeRaw) {
		if err := s.port.Set(storage.KeyTheme, themeRaw); err != nil {
			s.log.Warn("preferences: persist failed", slog.String("key", storage.KeyTheme), slog.String("error", err.Error()))
		} else {
			s.themeRaw = themeRaw
		}
	}
}

// decodeTheme accepts both a JSON string and the bare word written by older
// clients.
func decodeTheme(raw []byte) models.Theme {
	var t models.Theme
	if err := json.Unmarshal(raw, &t); err == nil {
		return t
	}
	return models.Theme(strings.TrimSpace(string(raw)))
}
