// Package workers implements the four task handlers an orchestrated Run
// dispatches: code review, README maintenance, spec-log maintenance, and
// review-log append. Each is a polymorphic handler over {Plan, Execute},
// letting the orchestrator skip a worker before paying for its Execute.
package workers

import (
	"context"

	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

// ProposedContent is a worker's proposed blob for a path in the repository.
// Workers that produce one never open a PR themselves; the orchestrator
// collects them into a single grouped automation PR.
type ProposedContent struct {
	Path    string
	Content string
}

// Outcome is a worker's result, recorded into the session store verbatim.
type Outcome struct {
	Status     sessionstore.TaskStatus
	Summary    string
	SkipReason string
	ErrorKind  rlerrors.Kind
	Message    string
	Metrics    sessionstore.Metrics
	Content    *ProposedContent
}

func success(summary string, metrics sessionstore.Metrics) Outcome {
	return Outcome{Status: sessionstore.TaskSuccess, Summary: summary, Metrics: metrics}
}

func successWithContent(summary string, metrics sessionstore.Metrics, content ProposedContent) Outcome {
	o := success(summary, metrics)
	o.Content = &content
	return o
}

func skipped(reason string) Outcome {
	return Outcome{Status: sessionstore.TaskSkipped, SkipReason: reason}
}

func failed(kind rlerrors.Kind, message string) Outcome {
	return Outcome{Status: sessionstore.TaskFailed, ErrorKind: kind, Message: message}
}

func failedFrom(err error) Outcome {
	if err == nil {
		return failed(rlerrors.KindUnknown, "nil error")
	}
	var rlErr *rlerrors.Error
	if e, ok := err.(*rlerrors.Error); ok {
		rlErr = e
	}
	if rlErr != nil {
		return failed(rlErr.Kind, rlErr.Error())
	}
	return failed(rlerrors.Classify(err), err.Error())
}

// Worker is the polymorphic handler every task registers with the orchestrator.
type Worker interface {
	Name() sessionstore.TaskName

	// Plan lets the orchestrator skip Execute pre-flight, e.g. code_review
	// returning false for a doc-only diff.
	Plan(ctx context.Context, tc *trigger.Context) bool

	// Execute performs the task and reports its outcome. runID correlates
	// side effects across workers within the same run, e.g. review_log
	// reading back the text code_review produced for runID.
	Execute(ctx context.Context, tc *trigger.Context, runID string) Outcome
}

var (
	_ Worker = (*CodeReview)(nil)
	_ Worker = (*README)(nil)
	_ Worker = (*SpecUpdater)(nil)
	_ Worker = (*ReviewLog)(nil)
)
