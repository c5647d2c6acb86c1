// Package search holds the filter and sort stages applied to provider results
// before they are displayed, plus reactive holders for the latest result set.
package search

import (
	"fmt"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
)

// PriceRange is a fixed per-night price band.
type PriceRange string

// Price bands. Budget is below 100, mid is 100 to 250 inclusive and luxury is
// above 250.
const (
	PriceAll    PriceRange = "all"
	PriceBudget PriceRange = "budget"
	PriceMid    PriceRange = "mid"
	PriceLuxury PriceRange = "luxury"
)

const (
	budgetCeiling = 100.0
	midCeiling    = 250.0
)

// ParsePriceRange maps transport input to a PriceRange. Empty means all.
func ParsePriceRange(s string) (PriceRange, error) {
	switch r := PriceRange(s); r {
	case "":
		return PriceAll, nil
	case PriceAll, PriceBudget, PriceMid, PriceLuxury:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown price range %q", apperr.ErrValidation, s)
	}
}

// PriceBand returns the band a nightly price falls in.
func PriceBand(price float64) PriceRange {
	switch {
	case price < budgetCeiling:
		return PriceBudget
	case price <= midCeiling:
		return PriceMid
	default:
		return PriceLuxury
	}
}

// HotelFilter selects hotels by price band and minimum rating.
type HotelFilter struct {
	PriceRange PriceRange `json:"priceRange"`
	MinRating  float64    `json:"minRating"`
}

// Match reports whether h passes the filter.
func (f HotelFilter) Match(h models.Hotel) bool {
	if f.PriceRange != "" && f.PriceRange != PriceAll && PriceBand(h.Price) != f.PriceRange {
		return false
	}
	return h.Rating >= f.MinRating
}

// FilterHotels returns the hotels matching f in their original order.
// The input is not modified.
func FilterHotels(hotels []models.Hotel, f HotelFilter) []models.Hotel {
	out := make([]models.Hotel, 0, len(hotels))
	for _, h := range hotels {
		if f.Match(h) {
			out = append(out, h)
		}
	}
	return out
}
