package filestore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

var _ sessionstore.Store = (*Store)(nil)

func newTaskSet() []sessionstore.TaskRecord {
	names := []sessionstore.TaskName{
		sessionstore.TaskCodeReview,
		sessionstore.TaskReadmeUpdate,
		sessionstore.TaskSpecUpdate,
		sessionstore.TaskReviewLog,
	}
	tasks := make([]sessionstore.TaskRecord, len(names))
	for i, n := range names {
		tasks[i] = sessionstore.TaskRecord{Name: n, Status: sessionstore.TaskPending}
	}
	return tasks
}

// StartRun opens a new Run in the running status; the caller drives its
// tasks through MarkTask* and finishes with FinalizeRun.
func (s *Store) StartRun(ctx context.Context, input sessionstore.StartRunInput) (string, error) {
	now := time.Now()
	run := &sessionstore.Run{
		ID:           sessionstore.NewRunID(input.CommitID, now),
		CommitID:     input.CommitID,
		Branch:       input.Branch,
		PRNumber:     input.PRNumber,
		TriggerType:  input.TriggerType,
		RunType:      input.RunType,
		Status:       sessionstore.StatusRunning,
		StartedAt:    now,
		Diff:         input.Diff,
		Tasks:        newTaskSet(),
		DeliveryID:   uuid.NewString(),
		HostProvider: input.HostProvider,
	}

	s.mu.Lock()
	s.dedupeRunID(run)
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.markDirty()
	s.mu.Unlock()

	if err := s.syncCache(run); err != nil {
		s.logger.Warn("failed to sync new run to cache", "run_id", run.ID, "error", err)
	}
	return run.ID, nil
}

// SkipRun records a Run that never executed any task, straight to the
// skipped terminal status.
func (s *Store) SkipRun(ctx context.Context, input sessionstore.StartRunInput, reason string) (string, error) {
	now := time.Now()
	run := &sessionstore.Run{
		ID:           sessionstore.NewRunID(input.CommitID, now),
		CommitID:     input.CommitID,
		Branch:       input.Branch,
		PRNumber:     input.PRNumber,
		TriggerType:  input.TriggerType,
		RunType:      input.RunType,
		Status:       sessionstore.StatusSkipped,
		StartedAt:    now,
		EndedAt:      now,
		SkipReason:   reason,
		Diff:         input.Diff,
		DeliveryID:   uuid.NewString(),
		HostProvider: input.HostProvider,
	}

	s.mu.Lock()
	s.dedupeRunID(run)
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.markDirty()
	s.mu.Unlock()

	if err := s.syncCache(run); err != nil {
		s.logger.Warn("failed to sync skipped run to cache", "run_id", run.ID, "error", err)
	}
	return run.ID, nil
}

// dedupeRunID appends a disambiguating suffix to run.ID if the commit-prefix
// + millisecond-timestamp id already collided with an existing run (two
// deliveries for the same commit within the same millisecond). Must be
// called with s.mu held.
func (s *Store) dedupeRunID(run *sessionstore.Run) {
	base := run.ID
	for n := 2; ; n++ {
		if _, exists := s.runs[run.ID]; !exists {
			return
		}
		run.ID = fmt.Sprintf("%s-%d", base, n)
	}
}

// withRun locates a run and applies mutate under the store lock, rejecting
// mutation of a run already in a terminal status. Returns a copy of the run
// for cache sync after the lock is released.
func (s *Store) withRun(runID string, mutate func(run *sessionstore.Run) error) (*sessionstore.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, sessionstore.ErrNotFound
	}
	if isTerminal(run.Status) {
		return nil, sessionstore.ErrTerminal
	}
	if err := mutate(run); err != nil {
		return nil, err
	}
	s.markDirty()
	return run, nil
}

func isTerminal(status sessionstore.Status) bool {
	switch status {
	case sessionstore.StatusCompleted, sessionstore.StatusCompletedWithIssues, sessionstore.StatusFailed, sessionstore.StatusSkipped:
		return true
	default:
		return false
	}
}

func findTask(run *sessionstore.Run, task sessionstore.TaskName) (*sessionstore.TaskRecord, error) {
	for i := range run.Tasks {
		if run.Tasks[i].Name == task {
			return &run.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("sessionstore: run %s has no task %q", run.ID, task)
}

func (s *Store) mutateTask(ctx context.Context, runID string, task sessionstore.TaskName, apply func(t *sessionstore.TaskRecord)) error {
	run, err := s.withRun(runID, func(run *sessionstore.Run) error {
		t, err := findTask(run, task)
		if err != nil {
			return err
		}
		apply(t)
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.syncCache(run); err != nil {
		s.logger.Warn("failed to sync run to cache", "run_id", runID, "error", err)
	}
	return nil
}

// MarkTaskRunning transitions a task from pending to running. Each call
// counts as one attempt: a task re-dispatched after a prior failed attempt
// accumulates Attempts rather than resetting it.
func (s *Store) MarkTaskRunning(ctx context.Context, runID string, task sessionstore.TaskName) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskRunning
		t.StartedAt = time.Now()
		t.Attempts++
	})
}

// MarkTaskSuccess transitions a task from running to success, recording its
// summary and resource metrics.
func (s *Store) MarkTaskSuccess(ctx context.Context, runID string, task sessionstore.TaskName, summary string, metrics sessionstore.Metrics) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskSuccess
		t.Summary = summary
		t.Metrics = metrics
		t.EndedAt = time.Now()
	})
}

// MarkTaskSkipped transitions a task directly to skipped, e.g. when a
// worker's plan declines the task.
func (s *Store) MarkTaskSkipped(ctx context.Context, runID string, task sessionstore.TaskName, reason string) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskSkipped
		t.Message = reason
		t.EndedAt = time.Now()
	})
}

// MarkTaskFailed transitions a task from running to failed, recording the
// classified error kind.
func (s *Store) MarkTaskFailed(ctx context.Context, runID string, task sessionstore.TaskName, kind rlerrors.Kind, message string) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskFailed
		t.ErrorKind = kind
		t.Message = message
		t.EndedAt = time.Now()
	})
}

// FinalizeRun computes the Run's terminal status from the union of its task
// statuses: completed if every attempted task succeeded, completed_with_issues
// if at least one succeeded, failed if none did. Pending tasks and tasks
// skipped with NoChangesSkipReason are not counted as attempted; a run with
// no attempted task is completed. Calling it on an already-terminal run is a
// no-op.
func (s *Store) FinalizeRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	run, ok := s.runs[runID]
	if !ok {
		s.mu.Unlock()
		return sessionstore.ErrNotFound
	}
	if isTerminal(run.Status) {
		s.mu.Unlock()
		return nil
	}

	var succeeded, attempted int
	var metrics sessionstore.Metrics
	var failedTasks []sessionstore.TaskName
	for _, t := range run.Tasks {
		if t.Status == sessionstore.TaskPending {
			continue
		}
		metrics.TokensUsed += t.Metrics.TokensUsed
		metrics.EstimatedCostUSD += t.Metrics.EstimatedCostUSD
		metrics.WallTimeMillis += t.Metrics.WallTimeMillis
		if t.Status == sessionstore.TaskSkipped && t.Message == sessionstore.NoChangesSkipReason {
			// A task skipping because there was nothing to do (e.g. a
			// README regeneration that produced no diff) is not an issue;
			// it must not degrade an otherwise-clean run to
			// completed_with_issues.
			continue
		}
		attempted++
		switch t.Status {
		case sessionstore.TaskSuccess:
			succeeded++
		case sessionstore.TaskFailed:
			failedTasks = append(failedTasks, t.Name)
		}
	}

	switch {
	case attempted == 0:
		run.Status = sessionstore.StatusCompleted
	case succeeded == attempted:
		run.Status = sessionstore.StatusCompleted
	case succeeded > 0:
		run.Status = sessionstore.StatusCompletedWithIssues
	default:
		run.Status = sessionstore.StatusFailed
	}
	run.Metrics = metrics
	run.FailedTasks = failedTasks
	run.EndedAt = time.Now()
	s.markDirty()
	s.mu.Unlock()

	if err := s.syncCache(run); err != nil {
		s.logger.Warn("failed to sync finalized run to cache", "run_id", runID, "error", err)
	}
	return nil
}

// RecordAutomationPR attaches the grouped automation PR's number to a Run.
func (s *Store) RecordAutomationPR(ctx context.Context, runID string, prNumber int) error {
	s.mu.Lock()
	run, ok := s.runs[runID]
	if !ok {
		s.mu.Unlock()
		return sessionstore.ErrNotFound
	}
	run.AutomationPRNumber = prNumber
	s.markDirty()
	s.mu.Unlock()

	if err := s.syncCache(run); err != nil {
		s.logger.Warn("failed to sync run to cache", "run_id", runID, "error", err)
	}
	return nil
}

// GetRun returns a single Run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*sessionstore.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, sessionstore.ErrNotFound
	}
	return run, nil
}
