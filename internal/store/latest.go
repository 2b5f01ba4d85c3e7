package store

import (
	"context"
	"sync"
)

// latest is a single-slot cell holding the most recent value.
type latest[T any] struct {
	mu     sync.Mutex
	value  T
	seq    uint64 // 0 means no value written yet
	notify chan struct{}
	closed bool
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{
		notify: make(chan struct{}),
	}
}

// Set replaces the stored value and wakes all waiting readers.
func (c *latest[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.value = value
	c.seq++

	close(c.notify)
	c.notify = make(chan struct{})
}

// Subscribe returns a reader that delivers the current value on its
// first Next (blocking until one exists), then each change after that.
func (c *latest[T]) Subscribe() Reader[T] {
	return &latestReader[T]{cell: c}
}

// Close wakes all waiting readers with ErrClosed.
func (c *latest[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.notify)
}

// latestReader tracks the last sequence number this consumer observed.
type latestReader[T any] struct {
	cell *latest[T]
	seen uint64
}

func (r *latestReader[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		r.cell.mu.Lock()

		if r.cell.seq > r.seen {
			v := r.cell.value
			r.seen = r.cell.seq
			r.cell.mu.Unlock()
			return v, nil
		}

		if r.cell.closed {
			r.cell.mu.Unlock()
			return zero, ErrClosed
		}

		notify := r.cell.notify
		r.cell.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
