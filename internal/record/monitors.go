package record

import (
	"context"

	"github.com/homespan/knxbridge/internal/store"
)

// Logger is the logging interface accepted by record monitors.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SwitchStateMonitor returns a tap that logs every switch state change.
//
// Monitors are fail-open: a monitor failure never affects the data
// path, it just stops logging.
func SwitchStateMonitor(log Logger) func(context.Context, store.Reader[SwitchState]) {
	return func(ctx context.Context, reader store.Reader[SwitchState]) {
		log.Info("switch state monitor started")
		for {
			state, err := reader.Next(ctx)
			if err != nil {
				log.Info("switch state monitor stopped", "reason", err)
				return
			}
			log.Info("switch state",
				"address", state.Address,
				"is_on", state.IsOn)
		}
	}
}

// SwitchControlMonitor returns a tap that logs every outgoing switch
// control command.
func SwitchControlMonitor(log Logger) func(context.Context, store.Reader[SwitchControl]) {
	return func(ctx context.Context, reader store.Reader[SwitchControl]) {
		log.Info("switch control monitor started")
		for {
			control, err := reader.Next(ctx)
			if err != nil {
				log.Info("switch control monitor stopped", "reason", err)
				return
			}
			log.Info("switch control",
				"address", control.Address,
				"is_on", control.IsOn)
		}
	}
}

// TemperatureMonitor returns a tap that logs every temperature reading.
func TemperatureMonitor(log Logger) func(context.Context, store.Reader[Temperature]) {
	return func(ctx context.Context, reader store.Reader[Temperature]) {
		log.Info("temperature monitor started")
		for {
			temp, err := reader.Next(ctx)
			if err != nil {
				log.Info("temperature monitor stopped", "reason", err)
				return
			}
			log.Info("temperature",
				"address", temp.Address,
				"celsius", temp.Celsius)
		}
	}
}
