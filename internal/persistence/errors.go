package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConstraintViolation is returned when a write would break an entity invariant.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrConflict is returned when a conditional write finds the row in an unexpected state.
	ErrConflict = errors.New("persistence: conflict")
)
