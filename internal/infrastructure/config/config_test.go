package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// A minimal file leaves everything at defaults.
	path := writeConfigFile(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.KNX.Connection != "tcp://localhost:6720" {
		t.Errorf("KNX.Connection = %q, want default", cfg.KNX.Connection)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Broker.ClientID != "knxbridge" {
		t.Errorf("MQTT.Broker.ClientID = %q, want knxbridge", cfg.MQTT.Broker.ClientID)
	}
	if cfg.Records.SwitchState.GroupAddress != "1/0/7" {
		t.Errorf("SwitchState.GroupAddress = %q, want 1/0/7", cfg.Records.SwitchState.GroupAddress)
	}
	if cfg.Records.SwitchControl.Topic != "knx/lights/control" {
		t.Errorf("SwitchControl.Topic = %q, want knx/lights/control", cfg.Records.SwitchControl.Topic)
	}
	if cfg.Records.SwitchControl.RingCapacity != 50 {
		t.Errorf("SwitchControl.RingCapacity = %d, want 50", cfg.Records.SwitchControl.RingCapacity)
	}
	if cfg.Records.Temperature.GroupAddress != "9/1/0" {
		t.Errorf("Temperature.GroupAddress = %q, want 9/1/0", cfg.Records.Temperature.GroupAddress)
	}
	if !cfg.Records.SwitchState.Retain {
		t.Error("SwitchState.Retain = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
knx:
  connection: "unix:///run/knxd"
mqtt:
  broker:
    host: broker.lan
    port: 8883
    tls: true
  qos: 2
records:
  switch_control:
    group_address: "2/0/1"
    ring_capacity: 100
history:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.KNX.Connection != "unix:///run/knxd" {
		t.Errorf("KNX.Connection = %q", cfg.KNX.Connection)
	}
	if cfg.MQTT.Broker.Host != "broker.lan" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("broker = %s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("TLS = false, want true")
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("QoS = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.Records.SwitchControl.GroupAddress != "2/0/1" {
		t.Errorf("SwitchControl.GroupAddress = %q", cfg.Records.SwitchControl.GroupAddress)
	}
	if cfg.Records.SwitchControl.RingCapacity != 100 {
		t.Errorf("RingCapacity = %d, want 100", cfg.Records.SwitchControl.RingCapacity)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}

	// Untouched sections keep their defaults.
	if cfg.Records.SwitchState.Topic != "knx/lights/state" {
		t.Errorf("SwitchState.Topic = %q, want default", cfg.Records.SwitchState.Topic)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KNXBRIDGE_KNX_CONNECTION", "tcp://10.0.0.5:6720")
	t.Setenv("KNXBRIDGE_MQTT_HOST", "env-broker")
	t.Setenv("KNXBRIDGE_MQTT_USERNAME", "bridge")
	t.Setenv("KNXBRIDGE_MQTT_PASSWORD", "secret")
	t.Setenv("KNXBRIDGE_LOG_LEVEL", "debug")

	path := writeConfigFile(t, `
mqtt:
  broker:
    host: file-broker
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Environment wins over file values.
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("Broker.Host = %q, want env-broker", cfg.MQTT.Broker.Host)
	}
	if cfg.KNX.Connection != "tcp://10.0.0.5:6720" {
		t.Errorf("KNX.Connection = %q", cfg.KNX.Connection)
	}
	if cfg.MQTT.Auth.Username != "bridge" || cfg.MQTT.Auth.Password != "secret" {
		t.Error("MQTT auth not applied from environment")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "mqtt: [not a map\n")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(_ *Config) {},
		},
		{
			name:    "qos out of range",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing knx connection",
			mutate:  func(c *Config) { c.KNX.Connection = "" },
			wantErr: "knx.connection",
		},
		{
			name:    "missing control topic",
			mutate:  func(c *Config) { c.Records.SwitchControl.Topic = "" },
			wantErr: "switch_control.topic",
		},
		{
			name:    "zero ring capacity",
			mutate:  func(c *Config) { c.Records.SwitchControl.RingCapacity = 0 },
			wantErr: "ring_capacity",
		},
		{
			name:    "history without database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "telemetry"
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutAccessors(t *testing.T) {
	cfg := defaultConfig()
	if cfg.GetConnectTimeout().Seconds() != 10 {
		t.Errorf("GetConnectTimeout() = %v, want 10s", cfg.GetConnectTimeout())
	}
	if cfg.GetReadTimeout().Seconds() != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30s", cfg.GetReadTimeout())
	}
}
