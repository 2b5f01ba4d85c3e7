package bridge

import (
	"context"

	"github.com/homespan/knxbridge/internal/infrastructure/mqtt"
)

// MQTTClient is the slice of the broker client the connector needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Close() error
}

// MQTTConnector serves mqtt:// endpoints. Paths are broker topics;
// payloads are the serialized record bytes.
type MQTTConnector struct {
	client       MQTTClient
	subscribeQoS byte
}

// NewMQTTConnector wraps a broker client as a bridge connector.
// subscribeQoS is the QoS used for inbound subscriptions; outbound QoS
// comes from each link's PublishOptions.
func NewMQTTConnector(client MQTTClient, subscribeQoS byte) *MQTTConnector {
	return &MQTTConnector{client: client, subscribeQoS: subscribeQoS}
}

// Scheme returns "mqtt".
func (c *MQTTConnector) Scheme() string { return "mqtt" }

// Send publishes a payload to a topic with the link's QoS and retain
// flag.
func (c *MQTTConnector) Send(ctx context.Context, path string, payload []byte, opts PublishOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return c.client.Publish(path, payload, opts.QoS, opts.Retain)
}

// Receive subscribes to a topic and forwards payloads to the handler.
func (c *MQTTConnector) Receive(path string, handler func(payload []byte)) error {
	return c.client.Subscribe(path, c.subscribeQoS, func(_ string, payload []byte) error {
		handler(payload)
		return nil
	})
}

// Close disconnects from the broker.
func (c *MQTTConnector) Close() error {
	return c.client.Close()
}
