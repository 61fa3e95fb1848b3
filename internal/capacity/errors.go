package capacity

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrCapacityExceeded is matched by every *CapacityExceededError.
var ErrCapacityExceeded = errors.New("capacity exceeded")

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// CapacityExceededError carries the capacity left in the requested window so
// the caller can retry with a smaller allocation.
type CapacityExceededError struct {
	Available   int
	Requested   int
	MaxCapacity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("engineer capacity exceeded. Available: %d%%", e.Available)
}

func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }

// IsCallerError reports whether err is an expected, caller-correctable outcome.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrCapacityExceeded)
}
