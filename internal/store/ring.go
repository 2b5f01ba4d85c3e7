package store

import (
	"context"
	"sync"
)

// ring is a bounded multi-reader ring buffer. The writer never blocks;
// a reader that falls more than the capacity behind skips forward to
// the oldest value still buffered.
type ring[T any] struct {
	mu     sync.Mutex
	buf    []T
	total  uint64 // values ever written
	notify chan struct{}
	closed bool
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{
		buf:    make([]T, capacity),
		notify: make(chan struct{}),
	}
}

// Set appends a value, overwriting the oldest once the ring is full,
// and wakes all waiting readers.
func (c *ring[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.buf[c.total%uint64(len(c.buf))] = value
	c.total++

	close(c.notify)
	c.notify = make(chan struct{})
}

// Subscribe returns a reader positioned after the most recent value, so
// it sees only values written from this point on.
func (c *ring[T]) Subscribe() Reader[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &ringReader[T]{cell: c, cursor: c.total}
}

// Close wakes all waiting readers. Buffered values remain readable;
// readers get ErrClosed once they drain.
func (c *ring[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.notify)
}

// ringReader holds one consumer's position in the ring.
type ringReader[T any] struct {
	cell    *ring[T]
	cursor  uint64
	skipped uint64
}

func (r *ringReader[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		r.cell.mu.Lock()

		if r.cursor < r.cell.total {
			capacity := uint64(len(r.cell.buf))
			oldest := uint64(0)
			if r.cell.total > capacity {
				oldest = r.cell.total - capacity
			}
			if r.cursor < oldest {
				// Lagging consumer: the writer overwrote these slots.
				r.skipped += oldest - r.cursor
				r.cursor = oldest
			}

			v := r.cell.buf[r.cursor%capacity]
			r.cursor++
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

// Skipped reports how many values this reader lost to overwrites.
func (r *ringReader[T]) Skipped() uint64 {
	r.cell.mu.Lock()
	defer r.cell.mu.Unlock()
	return r.skipped
}
