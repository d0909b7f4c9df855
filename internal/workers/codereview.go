package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

const codeReviewPromptTemplate = `You are reviewing a code change. Produce a structured markdown review with
these exact sections: Strengths, Issues, Suggestions, Security, Performance.
Under Issues, name each finding's file, line, and severity (low/medium/high).

Diff:
%s
`

// CodeReview builds and posts an LLM-generated review of a commit or PR's
// diff, then keeps the review text for the review log worker to summarize.
type CodeReview struct {
	gateway          *llmgateway.Gateway
	host             hosting.Provider
	postReviewOnPR   bool
	postAsIssue      bool
	diffContextLines int

	mu              sync.Mutex
	lastReviewByRun map[string]string // run id -> posted review body, read by ReviewLog
}

// NewCodeReview builds a CodeReview worker. diffContextLines bounds how many
// unchanged lines of surrounding file context (DIFF_CONTEXT_LINES) are kept
// around each changed run when building the review prompt; a non-positive
// value includes the diff's full context unbounded.
func NewCodeReview(gateway *llmgateway.Gateway, host hosting.Provider, postReviewOnPR, postAsIssue bool, diffContextLines int) *CodeReview {
	return &CodeReview{
		gateway:          gateway,
		host:             host,
		postReviewOnPR:   postReviewOnPR,
		postAsIssue:      postAsIssue,
		diffContextLines: diffContextLines,
		lastReviewByRun:  make(map[string]string),
	}
}

// Name implements Worker.
func (w *CodeReview) Name() sessionstore.TaskName { return sessionstore.TaskCodeReview }

// Plan skips review entirely for doc-only diffs: there is no code to review.
func (w *CodeReview) Plan(ctx context.Context, tc *trigger.Context) bool {
	return !tc.DiffAnalysis.DocOnly
}

// Execute generates a review and delivers it per the configured posting
// policy: PR review comment, else commit comment, else (if enabled) a new
// issue.
func (w *CodeReview) Execute(ctx context.Context, tc *trigger.Context, runID string) Outcome {
	diffForPrompt := tc.DiffText
	if len(tc.DiffAnalysis.Files) > 0 {
		diffForPrompt = diffutil.FormatForPrompt(tc.DiffAnalysis.Files, w.diffContextLines)
	}
	prompt := fmt.Sprintf(codeReviewPromptTemplate, diffForPrompt)

	text, usage, err := w.gateway.Generate(ctx, prompt, "")
	if err != nil {
		return failedFrom(err)
	}
	metrics := sessionstore.Metrics{TokensUsed: usage.PromptTokens + usage.CompletionTokens, EstimatedCostUSD: usage.EstimatedCostUSD}

	summary, err := w.deliver(ctx, tc, text)
	if err != nil {
		o := failedFrom(err)
		o.ErrorKind = rlerrors.KindPostSideEffect
		o.Metrics = metrics
		return o
	}

	w.mu.Lock()
	w.lastReviewByRun[runID] = text
	w.mu.Unlock()
	return success(summary, metrics)
}

// ReviewFor returns the review text produced for runID, for the review-log
// worker to summarize. Returns "" if no review was produced.
func (w *CodeReview) ReviewFor(runID string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastReviewByRun[runID]
}

// ForgetRun drops a run's cached review text once its automation completes.
func (w *CodeReview) ForgetRun(runID string) {
	w.mu.Lock()
	delete(w.lastReviewByRun, runID)
	w.mu.Unlock()
}

func (w *CodeReview) deliver(ctx context.Context, tc *trigger.Context, body string) (string, error) {
	if tc.HasPR && w.postReviewOnPR {
		if err := w.host.PostPRReview(ctx, tc.PRNumber, body); err != nil {
			return "", err
		}
		return fmt.Sprintf("posted review on PR #%d", tc.PRNumber), nil
	}

	commentErr := w.host.PostCommitComment(ctx, tc.CommitID, body)
	if commentErr == nil {
		return fmt.Sprintf("posted commit comment on %s", shortSHA(tc.CommitID)), nil
	}
	if !w.postAsIssue {
		return "", commentErr
	}

	issueBody := fmt.Sprintf("Automated code review for commit %s\n\n%s", shortSHA(tc.CommitID), body)
	if err := w.host.PostIssue(ctx, "Automated code review: "+shortSHA(tc.CommitID), issueBody); err != nil {
		return "", commentErr
	}
	return fmt.Sprintf("opened issue for commit %s after comment failure", shortSHA(tc.CommitID)), nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
