package filestore

import (
	"encoding/json"
	"fmt"

	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	pr_number INTEGER,
	status TEXT NOT NULL,
	started_at TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_pr_number ON runs(pr_number);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// syncCache upserts run into the SQLite query cache. Failures are logged,
// never returned to the caller: the JSON document remains authoritative and
// a stale cache entry is rebuilt on the next restart.
func (s *Store) syncCache(run *sessionstore.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run for cache: %w", err)
	}
	_, err = s.cache.Exec(
		`INSERT INTO runs (id, pr_number, status, started_at, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET pr_number=excluded.pr_number, status=excluded.status,
		   started_at=excluded.started_at, payload=excluded.payload`,
		run.ID, run.PRNumber, string(run.Status), run.StartedAt.Format("2006-01-02T15:04:05.000000000Z07:00"), string(payload),
	)
	return err
}
