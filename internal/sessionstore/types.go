// Package sessionstore is the durable, append-only record of every
// orchestrated Run: one row per repository event, carrying its classified
// trigger context, per-task outcomes, and aggregate metrics.
package sessionstore

import (
	"fmt"
	"time"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
)

// Status is a Run's lifecycle state.
type Status string

const (
	StatusPending             Status = "pending"
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithIssues Status = "completed_with_issues"
	StatusFailed              Status = "failed"
	StatusSkipped             Status = "skipped"
)

// TaskStatus is a single TaskRecord's lifecycle state.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskRunning TaskStatus = "running"
	TaskSuccess TaskStatus = "success"
	TaskFailed  TaskStatus = "failed"
	TaskSkipped TaskStatus = "skipped"
)

// NoChangesSkipReason is the TaskRecord.Message a worker reports when it
// skips because its generated output was identical to what's already there
// (e.g. README regeneration with nothing to change). FinalizeRun excludes
// these from the success/failure denominator: a no-op is not an issue.
const NoChangesSkipReason = "no_changes"

// TaskName enumerates the fixed set of workers a Run can dispatch.
type TaskName string

const (
	TaskCodeReview   TaskName = "code_review"
	TaskReadmeUpdate TaskName = "readme_update"
	TaskSpecUpdate   TaskName = "spec_update"
	TaskReviewLog    TaskName = "review_log"
)

// DiffSummary is the persisted shape of a diff analysis: counts only, never
// diff bodies, so a Run record never carries secret-bearing content.
type DiffSummary struct {
	LinesAdded   int  `json:"lines_added"`
	LinesRemoved int  `json:"lines_removed"`
	FilesChanged int  `json:"files_changed"`
	DocOnly      bool `json:"doc_only"`
}

// Metrics aggregates token/cost/latency accounting across a Run's tasks.
type Metrics struct {
	TokensUsed       int     `json:"tokens_used"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	WallTimeMillis   int64   `json:"wall_time_millis"`
}

// TaskRecord is one worker's outcome within a Run.
type TaskRecord struct {
	Name      TaskName      `json:"name"`
	Status    TaskStatus    `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitzero"`
	Summary   string        `json:"summary,omitempty"`
	ErrorKind rlerrors.Kind `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	// Attempts counts how many times the task was marked running, one per
	// dispatch; calls retried inside a host or LLM request are not counted.
	Attempts int     `json:"attempts,omitempty"`
	Metrics  Metrics `json:"metrics"`
}

// Run is the top-level record for one orchestrated automation.
type Run struct {
	ID          string    `json:"id"`
	CommitID    string    `json:"commit_id"`
	Branch      string    `json:"branch"`
	PRNumber    int       `json:"pr_number,omitempty"`
	TriggerType string    `json:"trigger_type"`
	RunType     string    `json:"run_type"`
	Status      Status    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitzero"`
	SkipReason  string    `json:"skip_reason,omitempty"`

	// DeliveryID correlates this Run with the webhook delivery that created
	// it (a UUID minted once per StartRun/SkipRun call).
	DeliveryID string `json:"delivery_id"`
	// HostProvider is the hosting.Provider that serviced this run, e.g.
	// "github" or "gitlab".
	HostProvider string `json:"host_provider"`

	Diff    DiffSummary  `json:"diff"`
	Tasks   []TaskRecord `json:"tasks"`
	Metrics Metrics      `json:"metrics"`

	FailedTasks []TaskName `json:"failed_tasks,omitempty"`

	AutomationPRNumber int `json:"automation_pr_number,omitempty"`
}

// commitIDPrefixLen is how much of the commit identifier a Run id's
// human-readable prefix carries.
const commitIDPrefixLen = 8

// NewRunID builds a Run id as a short prefix of the commit identifier plus a
// millisecond timestamp, so ids stay short and sortable without a central
// allocator. Two calls for the same commit in the same millisecond return
// the same id; the stores append a suffix on such a collision to keep ids
// unique (invariant iii).
func NewRunID(commitID string, at time.Time) string {
	prefix := commitID
	if len(prefix) > commitIDPrefixLen {
		prefix = prefix[:commitIDPrefixLen]
	}
	if prefix == "" {
		prefix = "norev"
	}
	return fmt.Sprintf("%s-%d", prefix, at.UnixMilli())
}

// StartRunInput carries the fields needed to open a new Run.
type StartRunInput struct {
	CommitID     string
	Branch       string
	PRNumber     int
	TriggerType  string
	RunType      string
	Diff         DiffSummary
	HostProvider string
}
