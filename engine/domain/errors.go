package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrInvalidVehicle      = errors.New("invalid vehicle")
	ErrInvalidVIN          = errors.New("invalid VIN")
	ErrUnsupportedMake     = errors.New("unsupported make")
	ErrUnsupportedModel    = errors.New("unsupported model")
	ErrYearOutOfRange      = errors.New("year out of range")
	ErrDecodedYearMismatch = errors.New("year does not match VIN model year")
)

// ValidationError wraps a sentinel with context. Cause, when set, carries the
// lower-level reason (for VINs, a *vin.ValidationError).
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation: %s: %s (value=%q): %s", e.Wrapped, e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Wrapped}
	}
	return []error{e.Wrapped, e.Cause}
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
