package executor

import (
	"errors"
	"fmt"
)

// ErrDriver is matched by every failure reported by the database driver.
var ErrDriver = errors.New("driver failure")

// DriverError wraps a failure from the database driver with the operation
// that caused it.
type DriverError struct {
	Op    string
	Table string
	// Index is the batch element being written, or -1 outside batches.
	Index int
	Cause error
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s %s (element %d): %v", e.Op, e.Table, e.Index, e.Cause)
	}
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DriverError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrDriver.
func (e *DriverError) Is(target error) bool {
	return target == ErrDriver
}

func driverErr(op, table string, cause error) *DriverError {
	return &DriverError{Op: op, Table: table, Index: -1, Cause: cause}
}

// IsDriver checks if an error came from the database driver.
func IsDriver(err error) bool {
	return errors.Is(err, ErrDriver)
}
