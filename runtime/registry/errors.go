package registry

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is returned when looking up a type or id the registry
// never indexed.
var ErrNotRegistered = errors.New("type not registered")

// NotRegisteredError names the type or id that was looked up.
type NotRegisteredError struct {
	Type string
	ID   int
}

// Error implements the error interface.
func (e *NotRegisteredError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s is not registered", e.Type)
	}
	return fmt.Sprintf("registry id %d is not registered", e.ID)
}

// Is checks if the error is ErrNotRegistered.
func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// IsNotRegistered checks if an error is a not-registered error.
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}
