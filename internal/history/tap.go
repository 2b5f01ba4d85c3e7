package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/homespan/knxbridge/internal/store"
)

// pruneInterval is how often the retention pruner runs.
const pruneInterval = time.Hour

// Logger is the logging interface accepted by this package.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Tap returns a bridge monitor that persists every value it observes
// as a transition row. The tap is fail-open: a failed write is logged
// and the flow continues.
//
// name is the record's name, source identifies where changes enter the
// bridge ("knx" or "mqtt"), and address extracts the record's group
// address for the address column.
func Tap[T any](repo *Repository, name, source string, address func(T) string, log Logger) func(context.Context, store.Reader[T]) {
	return func(ctx context.Context, reader store.Reader[T]) {
		for {
			value, err := reader.Next(ctx)
			if err != nil {
				return
			}

			state, err := json.Marshal(value)
			if err != nil {
				log.Warn("transition not persisted", "record", name, "error", err)
				continue
			}

			err = repo.RecordTransition(ctx, Transition{
				Record:     name,
				Address:    address(value),
				State:      string(state),
				Source:     source,
				RecordedAt: time.Now().UnixMilli(),
			})
			if err != nil {
				log.Warn("transition not persisted", "record", name, "error", err)
			}
		}
	}
}

// RunPruner deletes expired transitions on a fixed interval until the
// context ends. Run it on its own goroutine.
func (r *Repository) RunPruner(ctx context.Context, retentionDays int, log Logger) {
	if retentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Prune(ctx, retentionDays)
			if err != nil {
				log.Warn("history prune failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("history pruned", "removed", removed, "retention_days", retentionDays)
			}
		}
	}
}
