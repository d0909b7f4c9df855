package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
)

// ErrNotFound is returned by GetRun when no Run exists with the given id.
var ErrNotFound = errors.New("sessionstore: run not found")

// ErrTerminal is returned when a mutation targets a Run already in a
// terminal status.
var ErrTerminal = errors.New("sessionstore: run is in a terminal status")

// ListFilter narrows ListRuns.
type ListFilter struct {
	Status Status // zero value matches any status
}

// Store is the durable, authoritative record of runs. Implementations reject
// writes to a Run already in a terminal status and make FinalizeRun
// idempotent. They do not check individual task transitions: on a Run that
// is not terminal, a MarkTask* call sets the task to its status whatever
// status the task had before.
type Store interface {
	StartRun(ctx context.Context, input StartRunInput) (runID string, err error)

	MarkTaskRunning(ctx context.Context, runID string, task TaskName) error
	MarkTaskSuccess(ctx context.Context, runID string, task TaskName, summary string, metrics Metrics) error
	MarkTaskSkipped(ctx context.Context, runID string, task TaskName, reason string) error
	MarkTaskFailed(ctx context.Context, runID string, task TaskName, kind rlerrors.Kind, message string) error

	// FinalizeRun computes the Run's terminal status from the union of its
	// task statuses and transitions it. Calling it twice is a no-op.
	FinalizeRun(ctx context.Context, runID string) error

	// SkipRun records a new Run directly in the skipped terminal status,
	// with no tasks attempted, and returns its id.
	SkipRun(ctx context.Context, input StartRunInput, reason string) (runID string, err error)

	RecordAutomationPR(ctx context.Context, runID string, prNumber int) error

	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int, since time.Time, filter ListFilter) ([]*Run, error)
	ListByPR(ctx context.Context, prNumber int) ([]*Run, error)
	ListSkipped(ctx context.Context) ([]*Run, error)

	// Close flushes any buffered state and releases resources.
	Close() error
}
