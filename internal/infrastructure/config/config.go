package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the KNX bridge.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	KNX      KNXConfig      `yaml:"knx"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Records  RecordsConfig  `yaml:"records"`
	Database DatabaseConfig `yaml:"database"`
	History  HistoryConfig  `yaml:"history"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// KNXConfig contains knxd connection settings.
type KNXConfig struct {
	// Connection is the knxd URL: "tcp://host:port" or "unix:///run/knxd".
	Connection string `yaml:"connection"`

	// ConnectTimeout in seconds for the initial connection.
	ConnectTimeout int `yaml:"connect_timeout"`

	// ReadTimeout in seconds for socket reads.
	ReadTimeout int `yaml:"read_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// RecordsConfig binds each record to its group address and topic.
type RecordsConfig struct {
	SwitchState   SwitchStateConfig   `yaml:"switch_state"`
	SwitchControl SwitchControlConfig `yaml:"switch_control"`
	Temperature   TemperatureConfig   `yaml:"temperature"`
}

// SwitchStateConfig binds the switch state record (bus → MQTT).
type SwitchStateConfig struct {
	GroupAddress string `yaml:"group_address"`
	Topic        string `yaml:"topic"`
	Retain       bool   `yaml:"retain"`
}

// SwitchControlConfig binds the switch control record (MQTT → bus).
type SwitchControlConfig struct {
	GroupAddress string `yaml:"group_address"`
	Topic        string `yaml:"topic"`

	// RingCapacity bounds the command buffer. Commands are discrete
	// events, so they ride a ring rather than a latest-value slot.
	RingCapacity int `yaml:"ring_capacity"`
}

// TemperatureConfig binds the temperature record (bus → MQTT).
type TemperatureConfig struct {
	GroupAddress string `yaml:"group_address"`
	Topic        string `yaml:"topic"`
	Retain       bool   `yaml:"retain"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HistoryConfig controls the record transition history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// RetentionDays prunes transitions older than this. 0 keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: KNXBRIDGE_SECTION_KEY
// For example: KNXBRIDGE_MQTT_HOST, KNXBRIDGE_DATABASE_PATH
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults. The record
// bindings default to the canonical demo installation addresses.
func defaultConfig() *Config {
	return &Config{
		KNX: KNXConfig{
			Connection:     "tcp://localhost:6720",
			ConnectTimeout: 10,
			ReadTimeout:    30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "knxbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Records: RecordsConfig{
			SwitchState: SwitchStateConfig{
				GroupAddress: "1/0/7",
				Topic:        "knx/lights/state",
				Retain:       true,
			},
			SwitchControl: SwitchControlConfig{
				GroupAddress: "1/0/6",
				Topic:        "knx/lights/control",
				RingCapacity: 50,
			},
			Temperature: TemperatureConfig{
				GroupAddress: "9/1/0",
				Topic:        "knx/temperature/state",
				Retain:       true,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/knxbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KNXBRIDGE_KNX_CONNECTION"); v != "" {
		cfg.KNX.Connection = v
	}

	if v := os.Getenv("KNXBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("KNXBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("KNXBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("KNXBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("KNXBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("KNXBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.KNX.Connection == "" {
		errs = append(errs, "knx.connection is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	if c.Records.SwitchState.GroupAddress == "" {
		errs = append(errs, "records.switch_state.group_address is required")
	}
	if c.Records.SwitchState.Topic == "" {
		errs = append(errs, "records.switch_state.topic is required")
	}
	if c.Records.SwitchControl.GroupAddress == "" {
		errs = append(errs, "records.switch_control.group_address is required")
	}
	if c.Records.SwitchControl.Topic == "" {
		errs = append(errs, "records.switch_control.topic is required")
	}
	if c.Records.SwitchControl.RingCapacity < 1 {
		errs = append(errs, "records.switch_control.ring_capacity must be at least 1")
	}
	if c.Records.Temperature.GroupAddress == "" {
		errs = append(errs, "records.temperature.group_address is required")
	}
	if c.Records.Temperature.Topic == "" {
		errs = append(errs, "records.temperature.topic is required")
	}

	if c.History.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the knxd connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.KNX.ConnectTimeout) * time.Second
}

// GetReadTimeout returns the knxd read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.KNX.ReadTimeout) * time.Second
}
