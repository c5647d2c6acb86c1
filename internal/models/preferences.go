package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Theme is the presentation color scheme.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is light or dark.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme. Anything that is not dark toggles to dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Units is the measurement system used for display.
type Units string

// Measurement systems.
const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// UserPreferences is the per-session settings record persisted under the
// travel-app-settings key.
type UserPreferences struct {
	Theme         Theme  `json:"theme"`
	Language      string `json:"language"`
	Currency      string `json:"currency"`
	Units         Units  `json:"units"`
	Notifications bool   `json:"notifications"`
}

// DefaultPreferences returns the factory settings.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:         ThemeLight,
		Language:      "en",
		Currency:      "USD",
		Units:         UnitsMetric,
		Notifications: true,
	}
}

// Validate checks every field against its allowed values.
func (p *UserPreferences) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Theme, validation.Required, validation.In(ThemeLight, ThemeDark)),
		validation.Field(&p.Language, validation.Required, validation.Length(2, 10)),
		validation.Field(&p.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&p.Units, validation.Required, validation.In(UnitsMetric, UnitsImperial)),
	)
}
