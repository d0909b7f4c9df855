// Package pgstore implements sessionstore.Store on a single Postgres
// database. It targets a single writer: no clustering, no leader election,
// just durable writes and indexed reads for the dashboard queries.
package pgstore

const schema = `
CREATE TABLE IF NOT EXISTS reviewloop_runs (
	id                    TEXT PRIMARY KEY,
	commit_id             TEXT NOT NULL,
	branch                TEXT NOT NULL DEFAULT '',
	pr_number             INTEGER NOT NULL DEFAULT 0,
	trigger_type          TEXT NOT NULL DEFAULT '',
	run_type              TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL,
	started_at            TIMESTAMPTZ NOT NULL,
	ended_at              TIMESTAMPTZ,
	skip_reason           TEXT NOT NULL DEFAULT '',
	automation_pr_number  INTEGER NOT NULL DEFAULT 0,
	payload               JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reviewloop_runs_pr_number ON reviewloop_runs(pr_number);
CREATE INDEX IF NOT EXISTS idx_reviewloop_runs_status ON reviewloop_runs(status);
CREATE INDEX IF NOT EXISTS idx_reviewloop_runs_started_at ON reviewloop_runs(started_at DESC);
`
