package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
)

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

// StartRun opens a new Run in the running status.
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
	if err := s.insertRun(ctx, run); err != nil {
		return "", fmt.Errorf("pgstore: start run: %w", err)
	}
	return run.ID, nil
}

// SkipRun records a run that never executed any task, straight to skipped.
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
	if err := s.insertRun(ctx, run); err != nil {
		return "", fmt.Errorf("pgstore: skip run: %w", err)
	}
	return run.ID, nil
}

func findTask(run *sessionstore.Run, task sessionstore.TaskName) (*sessionstore.TaskRecord, error) {
	for i := range run.Tasks {
		if run.Tasks[i].Name == task {
			return &run.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("pgstore: run %s has no task %q", run.ID, task)
}

func (s *Store) mutateTask(ctx context.Context, runID string, task sessionstore.TaskName, apply func(t *sessionstore.TaskRecord)) error {
	run, err := s.load(ctx, runID)
	if err != nil {
		return err
	}
	if isTerminal(run.Status) {
		return sessionstore.ErrTerminal
	}
	t, err := findTask(run, task)
	if err != nil {
		return err
	}
	apply(t)
	return s.upsert(ctx, run)
}

// MarkTaskRunning transitions a task from pending to running. Each call
// counts as one attempt.
func (s *Store) MarkTaskRunning(ctx context.Context, runID string, task sessionstore.TaskName) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskRunning
		t.StartedAt = time.Now()
		t.Attempts++
	})
}

// MarkTaskSuccess transitions a task from running to success.
func (s *Store) MarkTaskSuccess(ctx context.Context, runID string, task sessionstore.TaskName, summary string, metrics sessionstore.Metrics) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskSuccess
		t.Summary = summary
		t.Metrics = metrics
		t.EndedAt = time.Now()
	})
}

// MarkTaskSkipped transitions a task directly to skipped.
func (s *Store) MarkTaskSkipped(ctx context.Context, runID string, task sessionstore.TaskName, reason string) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskSkipped
		t.Message = reason
		t.EndedAt = time.Now()
	})
}

// MarkTaskFailed transitions a task from running to failed.
func (s *Store) MarkTaskFailed(ctx context.Context, runID string, task sessionstore.TaskName, kind rlerrors.Kind, message string) error {
	return s.mutateTask(ctx, runID, task, func(t *sessionstore.TaskRecord) {
		t.Status = sessionstore.TaskFailed
		t.ErrorKind = kind
		t.Message = message
		t.EndedAt = time.Now()
	})
}

// FinalizeRun computes the Run's terminal status from the union of its task
// statuses. Calling it on an already-terminal run is a no-op.
func (s *Store) FinalizeRun(ctx context.Context, runID string) error {
	run, err := s.load(ctx, runID)
	if err != nil {
		return err
	}
	if isTerminal(run.Status) {
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
	return s.upsert(ctx, run)
}

// RecordAutomationPR attaches the grouped automation PR's number to a run.
func (s *Store) RecordAutomationPR(ctx context.Context, runID string, prNumber int) error {
	run, err := s.load(ctx, runID)
	if err != nil {
		return err
	}
	run.AutomationPRNumber = prNumber
	return s.upsert(ctx, run)
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*sessionstore.Run, error) {
	return s.load(ctx, runID)
}
