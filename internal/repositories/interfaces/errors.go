package interfaces

import "errors"

var (
	// ErrNotFound is returned when no document matches, including when a
	// conditional update's precondition does not hold.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)
