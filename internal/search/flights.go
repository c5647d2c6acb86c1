package search

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
)

// SortKey orders a flight result set.
type SortKey string

// Flight sort keys.
const (
	SortPriceAsc     SortKey = "price-asc"
	SortPriceDesc    SortKey = "price-desc"
	SortDurationAsc  SortKey = "duration-asc"
	SortDepartureAsc SortKey = "departure-asc"
)

// DefaultSortKey is applied until the user picks another one.
const DefaultSortKey = SortPriceAsc

// ParseSortKey maps transport input to a SortKey. Empty means the default.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return DefaultSortKey, nil
	case SortPriceAsc, SortPriceDesc, SortDurationAsc, SortDepartureAsc:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", apperr.ErrValidation, s)
	}
}

// SortFlights returns a sorted copy of flights. The sort is stable and the
// input is never reordered. An unknown key returns the input order.
func SortFlights(flights []models.Flight, key SortKey) []models.Flight {
	out := slices.Clone(flights)
	if out == nil {
		out = []models.Flight{}
	}

	var less func(a, b models.Flight) int
	switch key {
	case SortPriceAsc:
		less = func(a, b models.Flight) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceDesc:
		less = func(a, b models.Flight) int { return cmp.Compare(b.Price, a.Price) }
	case SortDurationAsc:
		less = func(a, b models.Flight) int {
			return compareParsed(a.Duration, b.Duration, ParseDuration)
		}
	case SortDepartureAsc:
		less = func(a, b models.Flight) int {
			return compareParsed(a.Departure.Time, b.Departure.Time, parseClock)
		}
	default:
		return out
	}

	slices.SortStableFunc(out, less)
	return out
}

// compareParsed orders by parsed value. Values that fail to parse sort after
// every parseable one and among themselves by their text.
func compareParsed(a, b string, parse func(string) (time.Duration, bool)) int {
	da, okA := parse(a)
	db, okB := parse(b)
	switch {
	case okA && okB:
		return cmp.Compare(da, db)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

var (
	humanDuration = regexp.MustCompile(`^(?:(\d+)\s*h)?\s*(?:(\d+)\s*m(?:in)?)?$`)
	isoDuration   = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)
)

// ParseDuration reads flight durations such as "5h 30m", "45m", "2h" or the
// ISO-8601 form "PT5H30M".
func ParseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	m := humanDuration.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		m = isoDuration.FindStringSubmatch(strings.ToUpper(s))
	}
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}

	var d time.Duration
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		d += time.Duration(h) * time.Hour
	}
	if m[2] != "" {
		mins, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		d += time.Duration(mins) * time.Minute
	}
	return d, true
}

// parseClock reads a "HH:MM" time of day as an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}
