package binding

import (
	"errors"
	"fmt"
)

var (
	// ErrConversion is returned when a stored value cannot be converted to a
	// field's type.
	ErrConversion = errors.New("value conversion failed")

	// ErrValueTooLong is returned when a variable-length value exceeds the
	// column's declared size.
	ErrValueTooLong = errors.New("value exceeds declared column size")

	// ErrTypeMismatch is returned when a destination is not a pointer to the
	// plan's entity type.
	ErrTypeMismatch = errors.New("destination type mismatch")
)

// ConversionError describes a failed conversion of one column value.
type ConversionError struct {
	Entity string
	Column string
	From   string
	To     string
	Cause  error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s.%s: cannot convert %s to %s", e.Entity, e.Column, e.From, e.To)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}
