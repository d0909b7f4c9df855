// Package orchestrator choreographs one inbound repository event end to
// end: classification, run bookkeeping, concurrent task dispatch, grouped
// documentation PR composition, and run finalization.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/forgepilot/reviewloop/internal/events"
	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
	"github.com/forgepilot/reviewloop/internal/workers"
)

// Config holds the orchestrator's tunables, sourced from the service
// configuration.
type Config struct {
	DedupWindow            time.Duration
	WorkerTimeout          time.Duration
	GroupAutomationUpdates bool
	MaxHostConcurrency     int64
}

// DefaultConfig returns the orchestrator's default tunables.
func DefaultConfig() Config {
	return Config{
		DedupWindow:            10 * time.Minute,
		WorkerTimeout:          10 * time.Minute,
		GroupAutomationUpdates: true,
		MaxHostConcurrency:     4,
	}
}

// Orchestrator owns the full lifecycle of a Run: classify, dispatch, compose,
// finalize. One Orchestrator serves an entire process; HandleEvent is safe
// to call concurrently from multiple webhook deliveries.
type Orchestrator struct {
	store      sessionstore.Store
	host       hosting.Provider
	triggerCfg trigger.Config
	cfg        Config
	logger     *slog.Logger

	registry   map[sessionstore.TaskName]workers.Worker
	codeReview *workers.CodeReview
	reviewLog  *workers.ReviewLog

	pub   *events.RunEventHelper
	dedup *dedupTracker
	hsem  *semaphore.Weighted
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithPublisher attaches a dashboard event bus. Nil is safe and makes
// publishing a no-op.
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.pub = events.NewRunEventHelper(p) }
}

// New builds an Orchestrator from its four task workers.
func New(store sessionstore.Store, host hosting.Provider, triggerCfg trigger.Config, cfg Config,
	codeReview *workers.CodeReview, readme *workers.README, specUpdater *workers.SpecUpdater, reviewLog *workers.ReviewLog,
	opts ...Option) *Orchestrator {

	if cfg.MaxHostConcurrency <= 0 {
		cfg.MaxHostConcurrency = 4
	}

	o := &Orchestrator{
		store:      store,
		host:       host,
		triggerCfg: triggerCfg,
		cfg:        cfg,
		logger:     slog.Default(),
		codeReview: codeReview,
		reviewLog:  reviewLog,
		pub:        events.NewRunEventHelper(nil),
		dedup:      newDedupTracker(nil),
		hsem:       semaphore.NewWeighted(cfg.MaxHostConcurrency),
		registry: map[sessionstore.TaskName]workers.Worker{
			sessionstore.TaskCodeReview:   codeReview,
			sessionstore.TaskReadmeUpdate: readme,
			sessionstore.TaskSpecUpdate:   specUpdater,
			sessionstore.TaskReviewLog:    reviewLog,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TriggerConfig returns the trigger classification configuration in effect.
func (o *Orchestrator) TriggerConfig() trigger.Config {
	return o.triggerCfg
}

// HandleEvent runs the full control flow for one classified repository
// event and returns the resulting Run. A duplicate delivery within the
// dedup window returns (nil, nil) without starting a new Run.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev trigger.Event) (*sessionstore.Run, error) {
	runID, tc, dup, err := o.open(ctx, ev)
	if err != nil || dup {
		return nil, err
	}
	if tc.RunType.IsNoWorkSkip() {
		return o.store.GetRun(ctx, runID)
	}
	return o.runRemainder(ctx, runID, &tc)
}

// HandleEventAsync performs the fast, synchronous half of the control flow
// (classify, dedup check, open the Run) and returns its id immediately,
// running worker dispatch and finalization in the background so the
// webhook handler's HTTP response is never blocked on orchestration. A
// duplicate delivery returns ("", nil).
func (o *Orchestrator) HandleEventAsync(ctx context.Context, ev trigger.Event) (string, error) {
	runID, tc, dup, err := o.open(ctx, ev)
	if err != nil || dup || tc.RunType.IsNoWorkSkip() {
		return runID, err
	}

	go func() {
		if _, err := o.runRemainder(context.Background(), runID, &tc); err != nil {
			o.logger.Error("background run failed", "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

// open classifies ev, enforces the dedup window, and opens the Run as
// either a skip or a started run. dup is true when the delivery was
// suppressed as a duplicate, in which case runID and tc are zero values.
func (o *Orchestrator) open(ctx context.Context, ev trigger.Event) (runID string, tc trigger.Context, dup bool, err error) {
	tc = trigger.Classify(ev, o.triggerCfg)

	dedupKey := fmt.Sprintf("%s:%s", ev.CommitID, ev.Action)
	if !o.dedup.markIfNew(dedupKey, o.cfg.DedupWindow) {
		o.logger.Info("duplicate delivery suppressed", "commit_id", ev.CommitID, "action", ev.Action)
		return "", trigger.Context{}, true, nil
	}

	input := sessionstore.StartRunInput{
		CommitID:    tc.CommitID,
		Branch:      tc.Branch,
		PRNumber:    tc.PRNumber,
		TriggerType: string(tc.TriggerType),
		RunType:     string(tc.RunType),
		Diff: sessionstore.DiffSummary{
			LinesAdded:   tc.DiffAnalysis.CodeLines,
			LinesRemoved: 0,
			FilesChanged: tc.DiffAnalysis.FilesChanged,
			DocOnly:      tc.DiffAnalysis.DocOnly,
		},
		HostProvider: string(o.host.Name()),
	}

	if tc.RunType.IsNoWorkSkip() {
		runID, err = o.store.SkipRun(ctx, input, tc.SkipReason)
		if err != nil {
			return "", tc, false, fmt.Errorf("skip run: %w", err)
		}
		o.pub.RunSkipped(runID, tc.SkipReason)
		return runID, tc, false, nil
	}

	runID, err = o.store.StartRun(ctx, input)
	if err != nil {
		return "", tc, false, fmt.Errorf("start run: %w", err)
	}
	o.pub.RunStarted(runID, events.RunStartedData{
		CommitID:    tc.CommitID,
		Branch:      tc.Branch,
		PRNumber:    tc.PRNumber,
		TriggerType: string(tc.TriggerType),
		RunType:     string(tc.RunType),
	})
	return runID, tc, false, nil
}

// runRemainder dispatches workers, composes the grouped automation PR, and
// finalizes the run. Split out from HandleEvent so HandleEventAsync can run
// it detached from the webhook request's context.
func (o *Orchestrator) runRemainder(ctx context.Context, runID string, tc *trigger.Context) (*sessionstore.Run, error) {
	outcomes := o.dispatch(ctx, tc, runID)

	if o.cfg.GroupAutomationUpdates {
		if prData, composed, err := o.composeAutomationPR(ctx, tc, outcomes); err != nil {
			o.logger.Error("automation PR composition failed", "run_id", runID, "error", err)
		} else if composed {
			if err := o.store.RecordAutomationPR(ctx, runID, prData.PRNumber); err != nil {
				o.logger.Error("record automation PR failed", "run_id", runID, "error", err)
			} else {
				o.pub.AutomationPR(runID, prData)
			}
		}
	}

	o.codeReview.ForgetRun(runID)

	if err := o.store.FinalizeRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("finalize run: %w", err)
	}

	run, err := o.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	o.pub.RunFinalized(runID, events.RunFinalizedData{Status: string(run.Status), FailedTasks: taskNames(run.FailedTasks)})
	return run, nil
}

// dispatch runs every applicable worker for the run's task set. review_log
// is held back to a second stage because it only ever runs after
// code_review has been attempted in the same stage, per its plan gate.
func (o *Orchestrator) dispatch(ctx context.Context, tc *trigger.Context, runID string) map[sessionstore.TaskName]workers.Outcome {
	outcomes := make(map[sessionstore.TaskName]workers.Outcome)
	var mu sync.Mutex

	var firstStage []sessionstore.TaskName
	runReviewLog := false
	for _, t := range tc.Tasks {
		name := sessionstore.TaskName(t)
		if name == sessionstore.TaskReviewLog {
			runReviewLog = true
			continue
		}
		firstStage = append(firstStage, name)
	}

	var g errgroup.Group
	for _, name := range firstStage {
		name := name
		g.Go(func() error {
			o.runOne(ctx, tc, runID, name, &mu, outcomes)
			return nil
		})
	}
	_ = g.Wait()

	if runReviewLog {
		mu.Lock()
		codeReviewOutcome, attempted := outcomes[sessionstore.TaskCodeReview]
		mu.Unlock()
		succeeded := attempted && codeReviewOutcome.Status == sessionstore.TaskSuccess

		if o.reviewLog.PlanAfterReview(runID, succeeded) {
			o.runOne(ctx, tc, runID, sessionstore.TaskReviewLog, &mu, outcomes)
		} else {
			reason := "code_review did not succeed"
			if succeeded {
				reason = "no review text available"
			}
			if err := o.store.MarkTaskSkipped(ctx, runID, sessionstore.TaskReviewLog, reason); err != nil {
				o.logger.Error("mark task skipped failed", "run_id", runID, "task", sessionstore.TaskReviewLog, "error", err)
			}
			o.pub.TaskSkipped(runID, string(sessionstore.TaskReviewLog), reason)
			mu.Lock()
			outcomes[sessionstore.TaskReviewLog] = workers.Outcome{Status: sessionstore.TaskSkipped, SkipReason: reason}
			mu.Unlock()
		}
	}

	return outcomes
}

// runOne executes a single worker under its own deadline and bounded host
// concurrency, recording its outcome into the session store and the event
// bus.
func (o *Orchestrator) runOne(ctx context.Context, tc *trigger.Context, runID string, name sessionstore.TaskName, mu *sync.Mutex, outcomes map[sessionstore.TaskName]workers.Outcome) {
	w, ok := o.registry[name]
	if !ok {
		return
	}

	taskCtx := ctx
	var cancel context.CancelFunc
	if o.cfg.WorkerTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, o.cfg.WorkerTimeout)
		defer cancel()
	}

	if !w.Plan(taskCtx, tc) {
		reason := "plan_declined"
		if err := o.store.MarkTaskSkipped(taskCtx, runID, name, reason); err != nil {
			o.logger.Error("mark task skipped failed", "run_id", runID, "task", name, "error", err)
		}
		o.pub.TaskSkipped(runID, string(name), reason)
		mu.Lock()
		outcomes[name] = workers.Outcome{Status: sessionstore.TaskSkipped, SkipReason: reason}
		mu.Unlock()
		return
	}

	if err := o.hsem.Acquire(taskCtx, 1); err != nil {
		o.recordFailed(taskCtx, runID, name, rlerrors.KindCancelled, "host concurrency slot: "+err.Error(), mu, outcomes)
		return
	}

	if err := o.store.MarkTaskRunning(taskCtx, runID, name); err != nil {
		o.hsem.Release(1)
		o.logger.Error("mark task running failed", "run_id", runID, "task", name, "error", err)
		return
	}
	o.pub.TaskRunning(runID, string(name))

	outcome := w.Execute(taskCtx, tc, runID)
	o.hsem.Release(1)

	switch outcome.Status {
	case sessionstore.TaskSuccess:
		if err := o.store.MarkTaskSuccess(taskCtx, runID, name, outcome.Summary, outcome.Metrics); err != nil {
			o.logger.Error("mark task success failed", "run_id", runID, "task", name, "error", err)
		}
		o.pub.TaskSuccess(runID, string(name), outcome.Summary)
	case sessionstore.TaskSkipped:
		if err := o.store.MarkTaskSkipped(taskCtx, runID, name, outcome.SkipReason); err != nil {
			o.logger.Error("mark task skipped failed", "run_id", runID, "task", name, "error", err)
		}
		o.pub.TaskSkipped(runID, string(name), outcome.SkipReason)
	default:
		if err := o.store.MarkTaskFailed(taskCtx, runID, name, outcome.ErrorKind, outcome.Message); err != nil {
			o.logger.Error("mark task failed failed", "run_id", runID, "task", name, "error", err)
		}
		o.pub.TaskFailed(runID, string(name), outcome.Message)
	}

	mu.Lock()
	outcomes[name] = outcome
	mu.Unlock()
}

func (o *Orchestrator) recordFailed(ctx context.Context, runID string, name sessionstore.TaskName, kind rlerrors.Kind, message string, mu *sync.Mutex, outcomes map[sessionstore.TaskName]workers.Outcome) {
	if err := o.store.MarkTaskRunning(ctx, runID, name); err == nil {
		_ = o.store.MarkTaskFailed(ctx, runID, name, kind, message)
	}
	o.pub.TaskFailed(runID, string(name), message)
	mu.Lock()
	outcomes[name] = workers.Outcome{Status: sessionstore.TaskFailed, ErrorKind: kind, Message: message}
	mu.Unlock()
}

func taskNames(tasks []sessionstore.TaskName) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = string(t)
	}
	return names
}
