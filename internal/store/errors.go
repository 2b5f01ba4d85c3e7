package store

import "errors"

// Domain errors for the store package.
var (
	// ErrClosed is returned by readers once the cell is closed and all
	// buffered values have been consumed.
	ErrClosed = errors.New("store: cell closed")

	// ErrInvalidCapacity is returned when a ring policy is created with
	// a capacity below 1.
	ErrInvalidCapacity = errors.New("store: ring capacity must be at least 1")
)
