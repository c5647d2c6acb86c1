package prefstore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
	"github.com/starford/travelmate/internal/storage"
)

type recorder struct{ themes []models.Theme }

func (r *recorder) ApplyTheme(t models.Theme) { r.themes = append(r.themes, t) }

type fixedDetector struct {
	theme models.Theme
	ok    bool
}

func (d fixedDetector) SystemTheme() (models.Theme, bool) { return d.theme, d.ok }

func persistedTheme(t *testing.T, port storage.Port) models.Theme {
	t.Helper()
	raw, err := port.Get(storage.KeyTheme)
	require.NoError(t, err)
	var th models.Theme
	require.NoError(t, json.Unmarshal(raw, &th))
	return th
}

func persistedSettings(t *testing.T, port storage.Port) models.UserPreferences {
	t.Helper()
	raw, err := port.Get(storage.KeySettings)
	require.NoError(t, err)
	var p models.UserPreferences
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestInit_Defaults(t *testing.T) {
	rec := &recorder{}
	s := New(storage.NewMemory(), WithThemeApplier(rec))

	assert.Equal(t, models.DefaultPreferences(), s.Get())
	assert.Equal(t, []models.Theme{models.ThemeLight}, rec.themes)
}

func TestInit_ThemePrecedence(t *testing.T) {
	dark := fixedDetector{theme: models.ThemeDark, ok: true}

	tests := []struct {
		name     string
		theme    string
		settings string
		detector SystemThemeDetector
		want     models.Theme
	}{
		{"theme key wins", `"dark"`, `{"theme":"light"}`, nil, models.ThemeDark},
		{"bare theme word", `dark`, ``, nil, models.ThemeDark},
		{"settings theme", ``, `{"theme":"dark"}`, fixedDetector{theme: models.ThemeLight, ok: true}, models.ThemeDark},
		{"invalid theme key falls through", `"purple"`, `{"theme":"dark"}`, nil, models.ThemeDark},
		{"system preference", ``, ``, dark, models.ThemeDark},
		{"system preference unknown", ``, ``, fixedDetector{}, models.ThemeLight},
		{"nothing", ``, ``, nil, models.ThemeLight},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			port := storage.NewMemory()
			if tc.theme != "" {
				require.NoError(t, port.Set(storage.KeyTheme, []byte(tc.theme)))
			}
			if tc.settings != "" {
				require.NoError(t, port.Set(storage.KeySettings, []byte(tc.settings)))
			}
			var opts []Option
			if tc.detector != nil {
				opts = append(opts, WithSystemTheme(tc.detector))
			}
			s := New(port, opts...)
			assert.Equal(t, tc.want, s.Get().Theme)
		})
	}
}

func TestInit_MalformedSettings(t *testing.T) {
	port := storage.NewMemory()
	require.NoError(t, port.Set(storage.KeySettings, []byte(`{{{`)))

	var s *Store
	require.NotPanics(t, func() { s = New(port) })
	assert.Equal(t, models.DefaultPreferences(), s.Get())
}

func TestInit_InvalidFieldsFallBackIndividually(t *testing.T) {
	port := storage.NewMemory()
	raw := `{"theme":"dark","language":"fr","currency":"EURO","units":"parsecs","notifications":false}`
	require.NoError(t, port.Set(storage.KeySettings, []byte(raw)))

	s := New(port)
	got := s.Get()
	assert.Equal(t, models.ThemeDark, got.Theme)
	assert.Equal(t, "fr", got.Language)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, models.UnitsMetric, got.Units)
	assert.False(t, got.Notifications)
}

func TestSetTheme_AppliesOncePerChangeAndPersists(t *testing.T) {
	port := storage.NewMemory()
	rec := &recorder{}
	s := New(port, WithThemeApplier(rec))

	require.NoError(t, s.SetTheme(models.ThemeDark))
	require.NoError(t, s.SetTheme(models.ThemeDark))

	assert.Equal(t, []models.Theme{models.ThemeLight, models.ThemeDark}, rec.themes)
	assert.Equal(t, models.ThemeDark, persistedTheme(t, port))
	assert.Equal(t, models.ThemeDark, persistedSettings(t, port).Theme)
}

func TestSetTheme_Invalid(t *testing.T) {
	s := New(storage.NewMemory())
	err := s.SetTheme("sepia")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.ThemeLight, s.Get().Theme)
}

func TestToggleTheme(t *testing.T) {
	port := storage.NewMemory()
	rec := &recorder{}
	s := New(port, WithThemeApplier(rec))

	assert.Equal(t, models.ThemeDark, s.ToggleTheme())
	assert.Equal(t, models.ThemeLight, s.ToggleTheme())
	assert.Equal(t, []models.Theme{models.ThemeLight, models.ThemeDark, models.ThemeLight}, rec.themes)
	assert.Equal(t, models.ThemeLight, persistedTheme(t, port))
}

func TestNonThemeChangesDoNotApplyTheme(t *testing.T) {
	port := storage.NewMemory()
	rec := &recorder{}
	s := New(port, WithThemeApplier(rec))

	require.NoError(t, s.SetLanguage("de"))
	require.NoError(t, s.SetCurrency("eur"))
	require.NoError(t, s.SetUnits(models.UnitsImperial))
	require.NoError(t, s.SetNotifications(false))

	assert.Len(t, rec.themes, 1)
	got := persistedSettings(t, port)
	assert.Equal(t, "de", got.Language)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, models.UnitsImperial, got.Units)
	assert.False(t, got.Notifications)
}

func TestWriteThroughOnEveryChange(t *testing.T) {
	port := &countingPort{Port: storage.NewMemory()}
	s := New(port)
	initial := port.sets

	require.NoError(t, s.SetLanguage("it"))
	require.NoError(t, s.SetLanguage("it"))
	require.NoError(t, s.SetLanguage("es"))

	assert.Equal(t, initial+2, port.sets)
}

type countingPort struct {
	storage.Port
	sets int
}

func (c *countingPort) Set(key string, value []byte) error {
	c.sets++
	return c.Port.Set(key, value)
}

func TestUpdate_Validation(t *testing.T) {
	s := New(storage.NewMemory())
	bad := "x"
	_, err := s.Update(Patch{Language: &bad})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "en", s.Get().Language)
}

func TestReset(t *testing.T) {
	port := storage.NewMemory()
	rec := &recorder{}
	s := New(port, WithThemeApplier(rec))
	require.NoError(t, s.SetTheme(models.ThemeDark))
	require.NoError(t, s.SetCurrency("GBP"))

	require.NoError(t, s.Reset())

	assert.Equal(t, models.DefaultPreferences(), s.Get())
	_, err := port.Get(storage.KeySettings)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, models.ThemeLight, persistedTheme(t, port))
	assert.Equal(t, models.ThemeLight, rec.themes[len(rec.themes)-1])
}

func TestReload(t *testing.T) {
	port := storage.NewMemory()
	rec := &recorder{}
	s := New(port, WithThemeApplier(rec))

	notified := 0
	s.Subscribe(func() { notified++ })

	s.Reload()
	assert.Zero(t, notified, "reloading our own writes must not notify")

	require.NoError(t, port.Set(storage.KeyTheme, []byte(`"dark"`)))
	s.Reload()
	assert.Equal(t, 1, notified)
	assert.Equal(t, models.ThemeDark, s.Get().Theme)
	assert.Equal(t, models.ThemeDark, rec.themes[len(rec.themes)-1])
}

func TestClose_StopsWriteThrough(t *testing.T) {
	port := &countingPort{Port: storage.NewMemory()}
	s := New(port)
	s.Close()
	before := port.sets

	s.ToggleTheme()
	assert.Equal(t, before, port.sets)
}
