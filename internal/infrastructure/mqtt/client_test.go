package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/homespan/knxbridge/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "knxbridge-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
}

// newDisconnectedClient builds a client that never connected, for
// exercising validation paths.
func newDisconnectedClient() *Client {
	cfg := testConfig()
	opts := buildClientOptions(cfg)
	return &Client{
		cfg:           cfg,
		options:       opts,
		subscriptions: make(map[string]subscription),
	}
}

func TestPublishValidation(t *testing.T) {
	c := newDisconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "knx/lights/state", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "knx/lights/state", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := newDisconnectedClient()

	handler := func(_ string, _ []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("knx/lights/control", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("knx/lights/control", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) = %v, want ErrSubscribeFailed", err)
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	c := newDisconnectedClient()

	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty) = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := newDisconnectedClient()

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
	if c.HasSubscription("knx/lights/control") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client = %v, want nil", err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("Servers = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", got)
	}
	if opts.ClientID != "knxbridge-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].String(); got != "ssl://localhost:8883" {
		t.Errorf("broker URL = %q, want ssl://localhost:8883", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig not set")
	}
	if opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("MinVersion = %x, want %x", opts.TLSConfig.MinVersion, tlsMinVersion)
	}
}

func TestBuildClientOptionsAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "bridge"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if opts.Username != "bridge" || opts.Password != "secret" {
		t.Error("auth credentials not applied")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testConfig()
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false, want true")
	}
	if opts.WillTopic != "knxbridge/system/status" {
		t.Errorf("WillTopic = %q, want knxbridge/system/status", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}

	var payload struct {
		Status   string `json:"status"`
		ClientID string `json:"client_id"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if payload.Status != "offline" || payload.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", payload)
	}
	if payload.ClientID != "knxbridge-test" {
		t.Errorf("ClientID = %q", payload.ClientID)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("knxbridge")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload = %s", online)
	}

	offline := buildOfflinePayload("knxbridge")
	if !strings.Contains(offline, `"status":"offline"`) ||
		!strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}

	for _, p := range []string{online, offline} {
		var v map[string]any
		if err := json.Unmarshal([]byte(p), &v); err != nil {
			t.Errorf("payload is not valid JSON: %v", err)
		}
	}
}

func TestSystemStatusTopic(t *testing.T) {
	if got := (Topics{}).SystemStatus(); got != "knxbridge/system/status" {
		t.Errorf("SystemStatus() = %q", got)
	}
}
