package bridge

import "context"

// PublishOptions carries transport hints for an outbound link. The
// KNX side ignores them; the MQTT side maps them to QoS and retain.
type PublishOptions struct {
	QoS    byte
	Retain bool
}

// Connector binds an endpoint scheme to a transport.
//
// A connector delivers payloads both ways: Send pushes a payload to a
// path, Receive registers a handler for payloads arriving on a path.
// Handlers may be invoked from the transport's own goroutines and must
// not block.
type Connector interface {
	// Scheme returns the endpoint scheme this connector serves.
	Scheme() string

	// Send delivers a payload to the given transport path.
	Send(ctx context.Context, path string, payload []byte, opts PublishOptions) error

	// Receive registers a handler for payloads arriving on the given
	// path. At most one handler per path.
	Receive(path string, handler func(payload []byte)) error

	// Close releases the underlying transport.
	Close() error
}
