package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAnEntityObject is returned when a type without the entity marker
	// is bound, extracted or registered.
	ErrNotAnEntityObject = errors.New("not an entity object")

	// ErrConfiguration is returned when entity metadata is inconsistent or
	// would produce a degenerate statement.
	ErrConfiguration = errors.New("configuration error")
)

// NotAnEntityError names the type that lacks the entity marker.
type NotAnEntityError struct {
	Type string
}

// Error implements the error interface.
func (e *NotAnEntityError) Error() string {
	return fmt.Sprintf("%s is not an entity object", e.Type)
}

// Is checks if the error is ErrNotAnEntityObject.
func (e *NotAnEntityError) Is(target error) bool {
	return target == ErrNotAnEntityObject
}

// ConfigurationError describes a metadata inconsistency on an entity, or on
// one of its columns when Column is set.
type ConfigurationError struct {
	Entity string
	Column string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("configuration error: %s.%s: %s", e.Entity, e.Column, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Entity, e.Reason)
}

// Is checks if the error is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configf creates a ConfigurationError with a formatted reason.
func Configf(entity, column, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Entity: entity,
		Column: column,
		Reason: fmt.Sprintf(format, args...),
	}
}

// IsNotAnEntity checks if an error is a not-an-entity error.
func IsNotAnEntity(err error) bool {
	return errors.Is(err, ErrNotAnEntityObject)
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
