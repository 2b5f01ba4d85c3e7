package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homespan/knxbridge/internal/bridges/knx"
	"github.com/homespan/knxbridge/internal/infrastructure/mqtt"
)

// fakeKNXClient records sends and exposes the installed callback.
type fakeKNXClient struct {
	mu       sync.Mutex
	sent     []fakeKNXSend
	callback func(knx.Telegram)
	closed   bool
}

type fakeKNXSend struct {
	ga   knx.GroupAddress
	data []byte
}

func (f *fakeKNXClient) Send(_ context.Context, ga knx.GroupAddress, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, fakeKNXSend{ga: ga, data: append([]byte{}, data...)})
	return nil
}

func (f *fakeKNXClient) SetOnTelegram(callback func(knx.Telegram)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = callback
}

func (f *fakeKNXClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeKNXClient) deliver(t knx.Telegram) {
	f.mu.Lock()
	callback := f.callback
	f.mu.Unlock()
	if callback != nil {
		callback(t)
	}
}

func mustGA(t *testing.T, s string) knx.GroupAddress {
	t.Helper()
	ga, err := knx.ParseGroupAddress(s)
	require.NoError(t, err)
	return ga
}

// ─── KNX connector ─────────────────────────────────────────────────

func TestKNXConnectorSend(t *testing.T) {
	client := &fakeKNXClient{}
	conn := NewKNXConnector(client)

	assert.Equal(t, "knx", conn.Scheme())

	err := conn.Send(context.Background(), "1/0/6", []byte{0x01}, PublishOptions{})
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, mustGA(t, "1/0/6"), client.sent[0].ga)
	assert.Equal(t, []byte{0x01}, client.sent[0].data)
}

func TestKNXConnectorSendInvalidAddress(t *testing.T) {
	conn := NewKNXConnector(&fakeKNXClient{})

	err := conn.Send(context.Background(), "not/an/address", []byte{0x01}, PublishOptions{})
	assert.ErrorIs(t, err, knx.ErrInvalidGroupAddress)
}

func TestKNXConnectorRoutesByDestination(t *testing.T) {
	client := &fakeKNXClient{}
	conn := NewKNXConnector(client)

	var mu sync.Mutex
	received := map[string][][]byte{}
	record := func(path string) func([]byte) {
		return func(payload []byte) {
			mu.Lock()
			defer mu.Unlock()
			received[path] = append(received[path], append([]byte{}, payload...))
		}
	}

	require.NoError(t, conn.Receive("1/0/7", record("1/0/7")))
	require.NoError(t, conn.Receive("9/1/0", record("9/1/0")))

	client.deliver(knx.Telegram{
		Destination: mustGA(t, "1/0/7"),
		APCI:        knx.APCIWrite,
		Data:        []byte{0x01},
	})
	client.deliver(knx.Telegram{
		Destination: mustGA(t, "9/1/0"),
		APCI:        knx.APCIResponse,
		Data:        []byte{0x0C, 0x1A},
	})
	// Addressed elsewhere; no handler registered.
	client.deliver(knx.Telegram{
		Destination: mustGA(t, "2/2/2"),
		APCI:        knx.APCIWrite,
		Data:        []byte{0x00},
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received["1/0/7"], 1)
	assert.Equal(t, []byte{0x01}, received["1/0/7"][0])
	require.Len(t, received["9/1/0"], 1)
	assert.Equal(t, []byte{0x0C, 0x1A}, received["9/1/0"][0])
}

func TestKNXConnectorIgnoresReadRequests(t *testing.T) {
	client := &fakeKNXClient{}
	conn := NewKNXConnector(client)

	var calls int
	require.NoError(t, conn.Receive("1/0/7", func([]byte) { calls++ }))

	client.deliver(knx.Telegram{
		Destination: mustGA(t, "1/0/7"),
		APCI:        knx.APCIRead,
	})

	assert.Zero(t, calls)
}

func TestKNXConnectorReceiverConflict(t *testing.T) {
	conn := NewKNXConnector(&fakeKNXClient{})

	require.NoError(t, conn.Receive("1/0/7", func([]byte) {}))
	err := conn.Receive("1/0/7", func([]byte) {})
	assert.ErrorIs(t, err, ErrReceiverConflict)
}

func TestKNXConnectorClose(t *testing.T) {
	client := &fakeKNXClient{}
	conn := NewKNXConnector(client)

	require.NoError(t, conn.Close())
	assert.True(t, client.closed)
}

// ─── MQTT connector ────────────────────────────────────────────────

// fakeMQTTClient records publishes and subscriptions.
type fakeMQTTClient struct {
	mu        sync.Mutex
	published []fakePublish
	subs      map[string]fakeSubscription
	closed    bool
}

type fakePublish struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeSubscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

func newFakeMQTTClient() *fakeMQTTClient {
	return &fakeMQTTClient{subs: make(map[string]fakeSubscription)}
}

func (f *fakeMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, fakePublish{
		topic:    topic,
		payload:  append([]byte{}, payload...),
		qos:      qos,
		retained: retained,
	})
	return nil
}

func (f *fakeMQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = fakeSubscription{qos: qos, handler: handler}
	return nil
}

func (f *fakeMQTTClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestMQTTConnectorSend(t *testing.T) {
	client := newFakeMQTTClient()
	conn := NewMQTTConnector(client, 1)

	assert.Equal(t, "mqtt", conn.Scheme())

	err := conn.Send(context.Background(), "knx/lights/state", []byte(`{"is_on":true}`),
		PublishOptions{QoS: 1, Retain: true})
	require.NoError(t, err)

	require.Len(t, client.published, 1)
	pub := client.published[0]
	assert.Equal(t, "knx/lights/state", pub.topic)
	assert.JSONEq(t, `{"is_on":true}`, string(pub.payload))
	assert.Equal(t, byte(1), pub.qos)
	assert.True(t, pub.retained)
}

func TestMQTTConnectorSendCancelledContext(t *testing.T) {
	client := newFakeMQTTClient()
	conn := NewMQTTConnector(client, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := conn.Send(ctx, "knx/lights/state", []byte("x"), PublishOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.published)
}

func TestMQTTConnectorReceive(t *testing.T) {
	client := newFakeMQTTClient()
	conn := NewMQTTConnector(client, 2)

	var got []byte
	require.NoError(t, conn.Receive("knx/lights/control", func(payload []byte) {
		got = payload
	}))

	sub, ok := client.subs["knx/lights/control"]
	require.True(t, ok)
	assert.Equal(t, byte(2), sub.qos)

	require.NoError(t, sub.handler("knx/lights/control", []byte(`{"is_on":false}`)))
	assert.JSONEq(t, `{"is_on":false}`, string(got))
}

func TestMQTTConnectorClose(t *testing.T) {
	client := newFakeMQTTClient()
	conn := NewMQTTConnector(client, 1)

	require.NoError(t, conn.Close())
	assert.True(t, client.closed)
}
