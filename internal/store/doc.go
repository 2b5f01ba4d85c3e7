// Package store provides the in-memory buffers that sit between a
// record's inbound source and its outbound sinks.
//
// Two buffer shapes are available, selected by Policy:
//
//   - Latest: a single-slot cell holding the most recent value. Readers
//     block until the first write, then observe every change. Writes
//     never block; intermediate values may be skipped by slow readers.
//
//   - Ring: a bounded multi-reader ring. Every reader has an independent
//     cursor and sees values in write order. Writes never block; a
//     reader that falls more than the capacity behind skips forward to
//     the oldest value still buffered.
//
// Both shapes fan out to any number of readers and accept exactly one
// writer. Readers are created with Subscribe and block in Next until a
// value, context cancellation, or cell close.
//
// Thread Safety: all operations are safe for concurrent use.
package store
