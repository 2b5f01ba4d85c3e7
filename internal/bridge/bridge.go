package bridge

import (
	"context"
	"sync"
	"sync/atomic"
)

// Logger is the logging interface accepted by this package.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Stats holds the bridge's message counters.
type Stats struct {
	// InboundMessages counts values accepted from inbound links.
	InboundMessages uint64

	// OutboundMessages counts payloads delivered to outbound links.
	OutboundMessages uint64

	// DecodeErrors counts inbound payloads that failed to decode.
	// Malformed inbound traffic is dropped, never fatal.
	DecodeErrors uint64

	// EncodeErrors counts records that failed to encode for an
	// outbound link.
	EncodeErrors uint64

	// PublishErrors counts outbound deliveries that failed.
	PublishErrors uint64
}

// Bridge is a running assembly of record flows.
//
// A Bridge is created by Assembly.Build and torn down with Stop.
type Bridge struct {
	logger Logger

	ctx    context.Context
	cancel context.CancelFunc

	wg      sync.WaitGroup
	closers []func()

	stopOnce sync.Once

	inbound       atomic.Uint64
	outbound      atomic.Uint64
	decodeErrors  atomic.Uint64
	encodeErrors  atomic.Uint64
	publishErrors atomic.Uint64
}

// Stop tears the bridge down: it cancels all link and monitor
// goroutines, closes the record buffers, and waits for everything to
// exit. Safe to call multiple times.
//
// Connectors are owned by the caller and stay open; only the flows
// stop.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.cancel()
		for _, closeFn := range b.closers {
			closeFn()
		}
		b.wg.Wait()
		if b.logger != nil {
			b.logger.Info("bridge stopped")
		}
	})
}

// Done returns a channel closed when the bridge's context ends.
func (b *Bridge) Done() <-chan struct{} {
	return b.ctx.Done()
}

// Stats returns a snapshot of the bridge's counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		InboundMessages:  b.inbound.Load(),
		OutboundMessages: b.outbound.Load(),
		DecodeErrors:     b.decodeErrors.Load(),
		EncodeErrors:     b.encodeErrors.Load(),
		PublishErrors:    b.publishErrors.Load(),
	}
}

// addCloser registers a cleanup to run on Stop, before waiting for
// goroutines.
func (b *Bridge) addCloser(fn func()) {
	b.closers = append(b.closers, fn)
}
