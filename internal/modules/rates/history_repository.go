package rates

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryRepository persists rate snapshots for analytics.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new rate history repository.
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "rate_history").Logger(),
	}
}

// Record appends one snapshot for a pair like "USD/ETB".
func (r *HistoryRepository) Record(pair string, rate float64) error {
	_, err := r.db.Exec("INSERT INTO rate_history (pair, rate) VALUES (?, ?)", pair, rate)
	if err != nil {
		return fmt.Errorf("failed to record rate snapshot: %w", err)
	}
	return nil
}

// RecordBatch appends snapshots for several pairs in one transaction-less
// pass. Partial writes are acceptable here, history is advisory.
func (r *HistoryRepository) RecordBatch(snapshots map[string]float64) error {
	for pair, rate := range snapshots {
		if err := r.Record(pair, rate); err != nil {
			return err
		}
	}
	return nil
}

// RatesSince returns the recorded rates for a pair newer than the cutoff,
// oldest first.
func (r *HistoryRepository) RatesSince(pair string, since time.Time) ([]float64, error) {
	rows, err := r.db.Query(
		"SELECT rate FROM rate_history WHERE pair = ? AND recorded_at >= ? ORDER BY recorded_at ASC",
		pair, since.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate history: %w", err)
	}
	defer rows.Close()

	values := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate history: %w", err)
	}
	return values, nil
}

// SnapshotsSince returns full snapshot rows for a pair, oldest first.
func (r *HistoryRepository) SnapshotsSince(pair string, since time.Time) ([]RateSnapshot, error) {
	rows, err := r.db.Query(
		"SELECT id, pair, rate, recorded_at FROM rate_history WHERE pair = ? AND recorded_at >= ? ORDER BY recorded_at ASC",
		pair, since.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate history: %w", err)
	}
	defer rows.Close()

	snapshots := []RateSnapshot{}
	for rows.Next() {
		var s RateSnapshot
		if err := rows.Scan(&s.ID, &s.Pair, &s.Rate, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate history: %w", err)
	}
	return snapshots, nil
}

// DeleteOlderThan trims history beyond the retention window. Returns rows
// deleted.
func (r *HistoryRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		"DELETE FROM rate_history WHERE recorded_at < ?",
		cutoff.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to trim rate history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
