package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

func (s *Store) scanRuns(ctx context.Context, query string, args ...any) ([]*sessionstore.Run, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sessionstore.Run
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run sessionstore.Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

// ListRuns returns up to limit runs started at or after since, newest first,
// optionally narrowed to a single status.
func (s *Store) ListRuns(ctx context.Context, limit int, since time.Time, filter sessionstore.ListFilter) ([]*sessionstore.Run, error) {
	if filter.Status != "" {
		if limit > 0 {
			return s.scanRuns(ctx,
				`SELECT payload FROM reviewloop_runs WHERE started_at >= $1 AND status = $2 ORDER BY started_at DESC LIMIT $3`,
				since, string(filter.Status), limit)
		}
		return s.scanRuns(ctx,
			`SELECT payload FROM reviewloop_runs WHERE started_at >= $1 AND status = $2 ORDER BY started_at DESC`,
			since, string(filter.Status))
	}
	if limit > 0 {
		return s.scanRuns(ctx,
			`SELECT payload FROM reviewloop_runs WHERE started_at >= $1 ORDER BY started_at DESC LIMIT $2`,
			since, limit)
	}
	return s.scanRuns(ctx,
		`SELECT payload FROM reviewloop_runs WHERE started_at >= $1 ORDER BY started_at DESC`, since)
}

// ListByPR returns every run associated with a pull/merge request number.
func (s *Store) ListByPR(ctx context.Context, prNumber int) ([]*sessionstore.Run, error) {
	return s.scanRuns(ctx,
		`SELECT payload FROM reviewloop_runs WHERE pr_number = $1 ORDER BY started_at DESC`, prNumber)
}

// ListSkipped returns every run in the skipped status, newest first.
func (s *Store) ListSkipped(ctx context.Context) ([]*sessionstore.Run, error) {
	return s.scanRuns(ctx,
		`SELECT payload FROM reviewloop_runs WHERE status = $1 ORDER BY started_at DESC`,
		string(sessionstore.StatusSkipped))
}
