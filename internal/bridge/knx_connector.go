package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/homespan/knxbridge/internal/bridges/knx"
)

// KNXClient is the slice of the knxd client the connector needs.
type KNXClient interface {
	Send(ctx context.Context, ga knx.GroupAddress, data []byte) error
	SetOnTelegram(callback func(knx.Telegram))
	Close() error
}

// KNXConnector serves knx:// endpoints. Paths are 3-level group
// addresses ("1/0/7"); payloads are raw DPT-encoded bytes.
//
// Incoming group writes and responses are routed to the handler
// registered for their destination address. Read requests carry no
// value and are not delivered.
type KNXConnector struct {
	client KNXClient

	mu        sync.RWMutex
	handlers  map[string]func([]byte)
	installed bool
}

// NewKNXConnector wraps a knxd client as a bridge connector.
func NewKNXConnector(client KNXClient) *KNXConnector {
	return &KNXConnector{
		client:   client,
		handlers: make(map[string]func([]byte)),
	}
}

// Scheme returns "knx".
func (c *KNXConnector) Scheme() string { return "knx" }

// Send writes a payload to a group address as a group write telegram.
// PublishOptions have no meaning on the bus and are ignored.
func (c *KNXConnector) Send(ctx context.Context, path string, payload []byte, _ PublishOptions) error {
	ga, err := knx.ParseGroupAddress(path)
	if err != nil {
		return err
	}
	return c.client.Send(ctx, ga, payload)
}

// Receive registers a handler for group telegrams addressed to path.
func (c *KNXConnector) Receive(path string, handler func(payload []byte)) error {
	ga, err := knx.ParseGroupAddress(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := ga.String()
	if _, exists := c.handlers[key]; exists {
		return fmt.Errorf("%w: knx://%s", ErrReceiverConflict, key)
	}
	c.handlers[key] = handler

	// One telegram dispatcher serves all registered addresses.
	if !c.installed {
		c.client.SetOnTelegram(c.dispatch)
		c.installed = true
	}

	return nil
}

// dispatch routes a received telegram to the handler for its
// destination, if any. Runs on the knxd client's dispatch goroutine.
func (c *KNXConnector) dispatch(t knx.Telegram) {
	if !t.IsWrite() && !t.IsResponse() {
		return
	}

	c.mu.RLock()
	handler := c.handlers[t.Destination.String()]
	c.mu.RUnlock()

	if handler != nil {
		handler(t.Data)
	}
}

// Close closes the underlying knxd connection.
func (c *KNXConnector) Close() error {
	return c.client.Close()
}
