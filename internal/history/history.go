package history

import (
	"context"
	"fmt"
	"time"

	"github.com/homespan/knxbridge/internal/infrastructure/database"
)

// Query limits for GetHistory.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Transition is one persisted record state change.
type Transition struct {
	ID         int64
	Record     string
	Address    string
	State      string
	Source     string
	RecordedAt int64
}

// Repository reads and writes record transitions.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository on an open database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// RecordTransition persists one state change.
func (r *Repository) RecordTransition(ctx context.Context, t Transition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO record_transitions (record, address, state, source, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.Record, t.Address, t.State, t.Source, t.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("recording transition: %w", err)
	}
	return nil
}

// GetHistory returns the most recent transitions for a record, newest
// first. A limit of 0 or less uses the default of 50; limits above 200
// are clamped.
func (r *Repository) GetHistory(ctx context.Context, record string, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record, address, state, source, recorded_at
		FROM record_transitions
		WHERE record = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`,
		record, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.ID, &t.Record, &t.Address, &t.State, &t.Source, &t.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return transitions, nil
}

// Prune deletes transitions older than the retention window and
// returns the number of rows removed. A retention of 0 or less
// disables pruning.
func (r *Repository) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM record_transitions WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return removed, nil
}
