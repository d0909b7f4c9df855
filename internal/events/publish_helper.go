package events

// RunEventHelper wraps event publishing with nil-safety and convenience
// methods for the run/task lifecycle. All methods are safe to call even
// when the underlying publisher is nil, so callers that construct an
// orchestrator without a dashboard attached don't need to special-case it.
//
// Thread-safe: all methods can be called concurrently.
type RunEventHelper struct {
	publisher Publisher
}

// NewRunEventHelper creates a new RunEventHelper wrapping the given publisher.
// If p is nil, all publish operations become no-ops.
func NewRunEventHelper(p Publisher) *RunEventHelper {
	return &RunEventHelper{publisher: p}
}

// Publish sends an event to the underlying publisher.
// Safe to call with nil publisher (no-op).
func (h *RunEventHelper) Publish(ev Event) {
	if h == nil || h.publisher == nil {
		return
	}
	h.publisher.Publish(ev)
}

// RunStarted publishes a run_started event.
func (h *RunEventHelper) RunStarted(runID string, data RunStartedData) {
	h.Publish(NewEvent(EventRunStarted, runID, data))
}

// TaskRunning publishes a task_running event.
func (h *RunEventHelper) TaskRunning(runID, task string) {
	h.Publish(NewEvent(EventTaskRunning, runID, TaskStatusData{Task: task, Status: "running"}))
}

// TaskSuccess publishes a task_success event.
func (h *RunEventHelper) TaskSuccess(runID, task, message string) {
	h.Publish(NewEvent(EventTaskSuccess, runID, TaskStatusData{Task: task, Status: "success", Message: message}))
}

// TaskSkipped publishes a task_skipped event.
func (h *RunEventHelper) TaskSkipped(runID, task, reason string) {
	h.Publish(NewEvent(EventTaskSkipped, runID, TaskStatusData{Task: task, Status: "skipped", Reason: reason}))
}

// TaskFailed publishes a task_failed event.
func (h *RunEventHelper) TaskFailed(runID, task, message string) {
	h.Publish(NewEvent(EventTaskFailed, runID, TaskStatusData{Task: task, Status: "failed", Message: message}))
}

// AutomationPR publishes an automation_pr_recorded event.
func (h *RunEventHelper) AutomationPR(runID string, data AutomationPRData) {
	h.Publish(NewEvent(EventAutomationPR, runID, data))
}

// RunFinalized publishes a run_finalized event.
func (h *RunEventHelper) RunFinalized(runID string, data RunFinalizedData) {
	h.Publish(NewEvent(EventRunFinalized, runID, data))
}

// RunSkipped publishes a run_skipped event for a run that was recorded
// straight into the skipped status without executing any task.
func (h *RunEventHelper) RunSkipped(runID, reason string) {
	h.Publish(NewEvent(EventRunSkipped, runID, RunSkippedData{Reason: reason}))
}
