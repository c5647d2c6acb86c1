package tripstore

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/models"
)

// Validate is the cross-field check for trips. It is not applied unless the
// store is created WithValidator(Validate).
func Validate(t models.Trip) error {
	var dates error
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		dates = errors.New("must not be before the start date")
	}

	err := validation.Errors{
		"title":       validation.Validate(strings.TrimSpace(t.Title), validation.Required, validation.RuneLength(3, 0)),
		"destination": validation.Validate(t.Destination.Name, validation.Required),
		"startDate":   validation.Validate(t.StartDate, validation.Required),
		"endDate":     firstErr(validation.Validate(t.EndDate, validation.Required), dates),
		"budget":      validation.Validate(t.Budget, validation.Min(0.0)),
		"currency":    validation.Validate(t.Currency, validation.Required, validation.RuneLength(3, 3)),
		"status": validation.Validate(t.Status, validation.Required,
			validation.In(models.TripPlanning, models.TripActive, models.TripCompleted)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
