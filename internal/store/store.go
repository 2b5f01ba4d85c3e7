package store

import (
	"context"
	"fmt"
)

// policyKind discriminates the buffer shapes.
type policyKind int

const (
	kindLatest policyKind = iota
	kindRing
)

// Policy selects the buffer shape for a record cell.
type Policy struct {
	kind     policyKind
	capacity int
}

// LatestPolicy returns a policy for a single-slot latest-value cell.
func LatestPolicy() Policy {
	return Policy{kind: kindLatest}
}

// RingPolicy returns a policy for a bounded ring with the given capacity.
func RingPolicy(capacity int) Policy {
	return Policy{kind: kindRing, capacity: capacity}
}

// String returns a human-readable policy description.
func (p Policy) String() string {
	switch p.kind {
	case kindRing:
		return fmt.Sprintf("ring(%d)", p.capacity)
	default:
		return "latest"
	}
}

// Reader delivers values from a cell to one consumer.
type Reader[T any] interface {
	// Next blocks until a value is available, the context is cancelled,
	// or the cell is closed (ErrClosed).
	Next(ctx context.Context) (T, error)
}

// Cell is a single-writer, multi-reader buffer for one record type.
type Cell[T any] interface {
	// Set publishes a value. It never blocks on readers.
	Set(value T)

	// Subscribe returns an independent reader. A Latest reader's first
	// Next returns the current value once one exists, then blocks for
	// changes. A Ring reader sees only values written after Subscribe.
	Subscribe() Reader[T]

	// Close marks the cell closed. Blocked readers wake with ErrClosed.
	// Safe to call multiple times.
	Close()
}

// New creates a cell with the buffer shape the policy selects.
func New[T any](p Policy) (Cell[T], error) {
	switch p.kind {
	case kindRing:
		if p.capacity < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, p.capacity)
		}
		return newRing[T](p.capacity), nil
	default:
		return newLatest[T](), nil
	}
}
