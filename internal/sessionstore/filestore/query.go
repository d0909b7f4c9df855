package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

func scanRuns(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}) ([]*sessionstore.Run, error) {
	defer rows.Close()
	var out []*sessionstore.Run
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan cached run: %w", err)
		}
		var run sessionstore.Run
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, fmt.Errorf("unmarshal cached run: %w", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// ListRuns returns up to limit runs started at or after since, newest first,
// optionally narrowed to a single status.
func (s *Store) ListRuns(ctx context.Context, limit int, since time.Time, filter sessionstore.ListFilter) ([]*sessionstore.Run, error) {
	query := `SELECT payload FROM runs WHERE started_at >= ?`
	args := []any{since.Format("2006-01-02T15:04:05.000000000Z07:00")}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.cache.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return scanRuns(rows)
}

// ListByPR returns every run associated with a pull/merge request number.
func (s *Store) ListByPR(ctx context.Context, prNumber int) ([]*sessionstore.Run, error) {
	rows, err := s.cache.QueryContext(ctx,
		`SELECT payload FROM runs WHERE pr_number = ? ORDER BY started_at DESC`, prNumber)
	if err != nil {
		return nil, fmt.Errorf("query runs by pr: %w", err)
	}
	return scanRuns(rows)
}

// ListSkipped returns every run in the skipped status, newest first.
func (s *Store) ListSkipped(ctx context.Context) ([]*sessionstore.Run, error) {
	rows, err := s.cache.QueryContext(ctx,
		`SELECT payload FROM runs WHERE status = ? ORDER BY started_at DESC`, string(sessionstore.StatusSkipped))
	if err != nil {
		return nil, fmt.Errorf("query skipped runs: %w", err)
	}
	return scanRuns(rows)
}
