// Package events provides the run/task event bus consumed by the dashboard's
// live feed and by the orchestrator's own internal progress tracking.
package events

import (
	"time"
)

// EventType identifies the kind of event carried on the bus.
type EventType string

const (
	// EventRunStarted fires once a run has been accepted into the session store.
	EventRunStarted EventType = "run_started"
	// EventTaskRunning fires when a worker begins executing.
	EventTaskRunning EventType = "task_running"
	// EventTaskSuccess fires when a worker completes successfully.
	EventTaskSuccess EventType = "task_success"
	// EventTaskSkipped fires when a worker's Plan declines to run it.
	EventTaskSkipped EventType = "task_skipped"
	// EventTaskFailed fires when a worker returns an error outcome.
	EventTaskFailed EventType = "task_failed"
	// EventAutomationPR fires once a grouped documentation PR has been opened or updated.
	EventAutomationPR EventType = "automation_pr_recorded"
	// EventRunFinalized fires when a run reaches a terminal status.
	EventRunFinalized EventType = "run_finalized"
	// EventRunSkipped fires when a delivery is recorded straight into a
	// skipped run (trivial diff, or excluded by trigger mode or PR action).
	// A duplicate delivery records no run and publishes nothing.
	EventRunSkipped EventType = "run_skipped"
)

// Event is a single entry on the bus. RunID scopes it to a run so dashboard
// clients can subscribe to one run, or to GlobalRunID for the full feed.
type Event struct {
	Type  EventType `json:"type"`
	RunID string    `json:"run_id"`
	Data  any       `json:"data"`
	Time  time.Time `json:"time"`
}

// NewEvent builds an Event stamped with the current time.
func NewEvent(eventType EventType, runID string, data any) Event {
	return Event{
		Type:  eventType,
		RunID: runID,
		Data:  data,
		Time:  time.Now(),
	}
}

// RunStartedData describes a newly accepted run.
type RunStartedData struct {
	CommitID    string `json:"commit_id"`
	Branch      string `json:"branch"`
	PRNumber    int    `json:"pr_number,omitempty"`
	TriggerType string `json:"trigger_type"`
	RunType     string `json:"run_type"`
}

// TaskStatusData describes a task lifecycle transition.
type TaskStatusData struct {
	Task    string `json:"task"`
	Status  string `json:"status"` // running, success, skipped, failed
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// AutomationPRData describes the grouped documentation PR a run produced.
type AutomationPRData struct {
	PRNumber int      `json:"pr_number"`
	Branch   string   `json:"branch"`
	Files    []string `json:"files"`
	Updated  bool     `json:"updated"` // true if an existing automation PR was reused
}

// RunFinalizedData carries the terminal outcome of a run.
type RunFinalizedData struct {
	Status      string   `json:"status"` // completed, completed_with_issues, failed
	FailedTasks []string `json:"failed_tasks,omitempty"`
}

// RunSkippedData carries why a delivery was recorded as a skipped run.
type RunSkippedData struct {
	Reason string `json:"reason"`
}
