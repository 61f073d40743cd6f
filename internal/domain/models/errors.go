package models

import (
	"errors"
	"fmt"
)

// Query errors. Call sites wrap these with fmt.Errorf("%w: ...") so callers
// can classify them with errors.Is.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConflictingArgs     = fmt.Errorf("%w: conflicting arguments", ErrInvalidArgument)
	ErrInvalidCode         = errors.New("invalid security code")
	ErrUnknownSecurity     = errors.New("unknown security")
	ErrUnsupportedField    = errors.New("unsupported field")
	ErrIncompatibleOptions = errors.New("incompatible options")
	ErrNoCalendarData      = errors.New("no calendar data")
)
