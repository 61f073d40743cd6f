package usecase

import (
	"context"
	"errors"

	"PriceQuery/internal/domain/models"
)

// ErrorKind labels err for metrics.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrConflictingArgs):
		return "conflicting_args"
	case errors.Is(err, models.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, models.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, models.ErrUnknownSecurity):
		return "unknown_security"
	case errors.Is(err, models.ErrUnsupportedField):
		return "unsupported_field"
	case errors.Is(err, models.ErrIncompatibleOptions):
		return "incompatible_options"
	case errors.Is(err, models.ErrNoCalendarData):
		return "no_calendar_data"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
