package prefstore

import (
	"os"
	"strconv"
	"strings"

	"github.com/starford/travelmate/internal/models"
)

// EnvThemeDetector derives the ambient theme from the process environment.
// Override, when set to light or dark, wins. Otherwise the background color
// index in COLORFGBG ("fg;bg") decides: 0-6 and 8 are dark backgrounds.
type EnvThemeDetector struct {
	Override string
	Getenv   func(string) string
}

// SystemTheme implements SystemThemeDetector.
func (d EnvThemeDetector) SystemTheme() (models.Theme, bool) {
	if t := models.Theme(strings.ToLower(strings.TrimSpace(d.Override))); t.Valid() {
		return t, true
	}

	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	v := getenv("COLORFGBG")
	if v == "" {
		return "", false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", false
	}
	if bg <= 6 || bg == 8 {
		return models.ThemeDark, true
	}
	return models.ThemeLight, true
}
