package prefstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/travelmate/internal/models"
)

func TestEnvThemeDetector(t *testing.T) {
	env := func(v string) func(string) string {
		return func(string) string { return v }
	}

	tests := []struct {
		name   string
		d      EnvThemeDetector
		want   models.Theme
		wantOK bool
	}{
		{"override dark", EnvThemeDetector{Override: "Dark", Getenv: env("15;0")}, models.ThemeDark, true},
		{"dark background", EnvThemeDetector{Getenv: env("15;0")}, models.ThemeDark, true},
		{"light background", EnvThemeDetector{Getenv: env("0;15")}, models.ThemeLight, true},
		{"three fields", EnvThemeDetector{Getenv: env("15;default;0")}, models.ThemeDark, true},
		{"unset", EnvThemeDetector{Getenv: env("")}, "", false},
		{"garbage", EnvThemeDetector{Getenv: env("x;y")}, "", false},
		{"invalid override ignored", EnvThemeDetector{Override: "blue", Getenv: env("0;15")}, models.ThemeLight, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.d.SystemTheme()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
