package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a stored entity is not found.
	ErrNotFound = errors.New("entity not found")
)
