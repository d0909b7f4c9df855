package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

var _ sessionstore.Store = (*Store)(nil)

// Store is the Postgres-backed sessionstore.Store implementation.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open connects to dsn, applies the schema, and sweeps any run left running
// past startupGrace into failed.
func Open(ctx context.Context, dsn string, startupGrace time.Duration, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: apply schema: %w", err)
	}

	s := &Store{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.sweepInterrupted(ctx, startupGrace); err != nil {
		s.logger.Warn("pgstore: interrupted-run sweep failed", "error", err)
	}
	return s, nil
}

func (s *Store) sweepInterrupted(ctx context.Context, startupGrace time.Duration) error {
	cutoff := time.Now().Add(-startupGrace)
	rows, err := s.pool.Query(ctx,
		`SELECT id, payload FROM reviewloop_runs WHERE status = $1 AND started_at < $2`,
		string(sessionstore.StatusRunning), cutoff)
	if err != nil {
		return err
	}
	type pending struct {
		id  string
		run sessionstore.Run
	}
	var toFix []pending
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			rows.Close()
			return err
		}
		var run sessionstore.Run
		if err := json.Unmarshal(payload, &run); err != nil {
			rows.Close()
			return err
		}
		toFix = append(toFix, pending{id: id, run: run})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range toFix {
		run := p.run
		run.Status = sessionstore.StatusFailed
		run.EndedAt = time.Now()
		for i := range run.Tasks {
			if run.Tasks[i].Status == sessionstore.TaskRunning {
				run.Tasks[i].Status = sessionstore.TaskFailed
				run.Tasks[i].ErrorKind = rlerrors.KindInterrupted
				run.Tasks[i].Message = "process restarted mid-task"
				run.Tasks[i].EndedAt = time.Now()
			}
		}
		if err := s.upsert(ctx, &run); err != nil {
			s.logger.Warn("pgstore: failed to mark run interrupted", "run_id", p.id, "error", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) upsert(ctx context.Context, run *sessionstore.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	var endedAt any
	if !run.EndedAt.IsZero() {
		endedAt = run.EndedAt
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reviewloop_runs (id, commit_id, branch, pr_number, trigger_type, run_type, status,
			started_at, ended_at, skip_reason, automation_pr_number, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			ended_at = excluded.ended_at,
			skip_reason = excluded.skip_reason,
			automation_pr_number = excluded.automation_pr_number,
			payload = excluded.payload
	`, run.ID, run.CommitID, run.Branch, run.PRNumber, run.TriggerType, run.RunType, string(run.Status),
		run.StartedAt, endedAt, run.SkipReason, run.AutomationPRNumber, payload)
	return err
}

// insertRun inserts a newly-minted run, retrying with a disambiguating id
// suffix if the commit-prefix + millisecond-timestamp id collided with an
// existing row (two deliveries for the same commit within the same
// millisecond).
func (s *Store) insertRun(ctx context.Context, run *sessionstore.Run) error {
	base := run.ID
	for n := 2; ; n++ {
		payload, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		var endedAt any
		if !run.EndedAt.IsZero() {
			endedAt = run.EndedAt
		}
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO reviewloop_runs (id, commit_id, branch, pr_number, trigger_type, run_type, status,
				started_at, ended_at, skip_reason, automation_pr_number, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING
		`, run.ID, run.CommitID, run.Branch, run.PRNumber, run.TriggerType, run.RunType, string(run.Status),
			run.StartedAt, endedAt, run.SkipReason, run.AutomationPRNumber, payload)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		run.ID = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *Store) load(ctx context.Context, runID string) (*sessionstore.Run, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM reviewloop_runs WHERE id = $1`, runID).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, sessionstore.ErrNotFound
		}
		return nil, err
	}
	var run sessionstore.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

func isTerminal(status sessionstore.Status) bool {
	switch status {
	case sessionstore.StatusCompleted, sessionstore.StatusCompletedWithIssues, sessionstore.StatusFailed, sessionstore.StatusSkipped:
		return true
	default:
		return false
	}
}
