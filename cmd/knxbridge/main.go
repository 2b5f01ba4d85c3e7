// knxbridge connects a KNX field bus to an MQTT broker.
//
// Switch state and temperature telegrams from the bus are decoded into
// JSON records and published to MQTT; switch commands arriving on MQTT
// are encoded back into group write telegrams. Record transitions can
// optionally be persisted to SQLite and temperature telemetry shipped
// to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/homespan/knxbridge/migrations"

	"github.com/homespan/knxbridge/internal/bridge"
	"github.com/homespan/knxbridge/internal/bridges/knx"
	"github.com/homespan/knxbridge/internal/history"
	"github.com/homespan/knxbridge/internal/infrastructure/config"
	"github.com/homespan/knxbridge/internal/infrastructure/database"
	"github.com/homespan/knxbridge/internal/infrastructure/influxdb"
	"github.com/homespan/knxbridge/internal/infrastructure/logging"
	"github.com/homespan/knxbridge/internal/infrastructure/mqtt"
	"github.com/homespan/knxbridge/internal/record"
	"github.com/homespan/knxbridge/internal/store"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting knxbridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// History storage (optional).
	var repo *history.Repository
	if cfg.History.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", cfg.Database.Path)

		repo = history.NewRepository(db)
		go repo.RunPruner(ctx, cfg.History.RetentionDays, log)
	} else {
		log.Info("history disabled")
	}

	// MQTT broker.
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// knxd daemon.
	knxClient, err := knx.Connect(ctx, knx.ClientConfig{
		Connection:     cfg.KNX.Connection,
		ConnectTimeout: cfg.GetConnectTimeout(),
		ReadTimeout:    cfg.GetReadTimeout(),
	})
	if err != nil {
		return fmt.Errorf("connecting to knxd: %w", err)
	}
	defer func() {
		log.Info("disconnecting from knxd")
		if closeErr := knxClient.Close(); closeErr != nil {
			log.Error("error closing knxd connection", "error", closeErr)
		}
	}()
	knxClient.SetLogger(log)
	log.Info("knxd connected", "connection", cfg.KNX.Connection)

	// InfluxDB telemetry (optional).
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Assemble and start the record flows.
	b, err := assembleBridge(ctx, cfg, knxClient, mqttClient, repo, influxClient, log)
	if err != nil {
		return fmt.Errorf("assembling bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		b.Stop()
	}()

	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, bridging")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// assembleBridge wires the three record flows:
//
//	switch_state    knx → mqtt   latest value, retained
//	switch_control  mqtt → knx   ring buffer, every command delivered
//	temperature     knx → mqtt   latest value, retained
func assembleBridge(
	ctx context.Context,
	cfg *config.Config,
	knxClient *knx.Client,
	mqttClient *mqtt.Client,
	repo *history.Repository,
	influxClient *influxdb.Client,
	log *logging.Logger,
) (*bridge.Bridge, error) {
	// #nosec G115 -- QoS validated to 0..2 by config
	subscribeQoS := byte(cfg.MQTT.QoS)

	a := bridge.NewAssembly(log).
		AddConnector(bridge.NewKNXConnector(knxClient)).
		AddConnector(bridge.NewMQTTConnector(mqttClient, subscribeQoS))

	// Switch state: bus → broker.
	stateCfg := cfg.Records.SwitchState
	stateOpts := []bridge.LinkOption{bridge.WithQoS(subscribeQoS)}
	if stateCfg.Retain {
		stateOpts = append(stateOpts, bridge.WithRetain())
	}
	stateReg := bridge.Configure[record.SwitchState](a, "switch_state").
		LinkFrom("knx://"+stateCfg.GroupAddress, func(data []byte) (record.SwitchState, error) {
			return record.SwitchStateFromKNX(data, stateCfg.GroupAddress)
		}).
		LinkTo("mqtt://"+stateCfg.Topic, record.EncodeJSON[record.SwitchState], stateOpts...).
		Tap(record.SwitchStateMonitor(log))
	if repo != nil {
		stateReg.Tap(history.Tap(repo, "switch_state", "knx",
			func(s record.SwitchState) string { return s.Address }, log))
	}
	if influxClient != nil {
		stateReg.Tap(func(ctx context.Context, r store.Reader[record.SwitchState]) {
			for {
				s, err := r.Next(ctx)
				if err != nil {
					return
				}
				influxClient.WriteSwitchEvent(s.Address, s.IsOn, time.UnixMilli(s.Timestamp))
			}
		})
	}

	// Switch control: broker → bus. Commands are discrete events, so
	// they ride a ring rather than a latest-value slot.
	controlCfg := cfg.Records.SwitchControl
	controlReg := bridge.Configure[record.SwitchControl](a, "switch_control").
		Buffer(store.RingPolicy(controlCfg.RingCapacity)).
		LinkFrom("mqtt://"+controlCfg.Topic, record.DecodeJSON[record.SwitchControl]).
		LinkTo("knx://"+controlCfg.GroupAddress, func(c record.SwitchControl) ([]byte, error) {
			return record.SwitchControlToKNX(c), nil
		}).
		Tap(record.SwitchControlMonitor(log))
	if repo != nil {
		controlReg.Tap(history.Tap(repo, "switch_control", "mqtt",
			func(c record.SwitchControl) string { return c.Address }, log))
	}

	// Temperature: bus → broker.
	tempCfg := cfg.Records.Temperature
	tempOpts := []bridge.LinkOption{bridge.WithQoS(subscribeQoS)}
	if tempCfg.Retain {
		tempOpts = append(tempOpts, bridge.WithRetain())
	}
	tempReg := bridge.Configure[record.Temperature](a, "temperature").
		LinkFrom("knx://"+tempCfg.GroupAddress, func(data []byte) (record.Temperature, error) {
			return record.TemperatureFromKNX(data, tempCfg.GroupAddress)
		}).
		LinkTo("mqtt://"+tempCfg.Topic, record.EncodeJSON[record.Temperature], tempOpts...).
		Tap(record.TemperatureMonitor(log))
	if repo != nil {
		tempReg.Tap(history.Tap(repo, "temperature", "knx",
			func(temp record.Temperature) string { return temp.Address }, log))
	}
	if influxClient != nil {
		tempReg.Tap(func(ctx context.Context, r store.Reader[record.Temperature]) {
			for {
				temp, err := r.Next(ctx)
				if err != nil {
					return
				}
				influxClient.WriteTemperature(temp.Address, temp.Celsius, time.UnixMilli(temp.Timestamp))
			}
		})
	}

	return a.Build(ctx)
}

// getConfigPath returns the configuration file path from the
// KNXBRIDGE_CONFIG environment variable, or the default.
func getConfigPath() string {
	if path := os.Getenv("KNXBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections are healthy.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
