package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

const reviewLogHeader = "# Code Review Log\n\nA running history of automated code reviews.\n"

const reviewLogPromptTemplate = `Summarize this code review as a concise multi-line entry: a numeric score out
of 10, the key issues found, and concrete action items. Three short sections
at most, each one or two lines.

Review:
%s
`

// reviewSource is satisfied by CodeReview: the review-log worker summarizes
// whatever review text code_review produced for the same run.
type reviewSource interface {
	ReviewFor(runID string) string
}

// ReviewLog summarizes a run's code review into a concise entry and appends
// it to CODE_REVIEW.md.
type ReviewLog struct {
	gateway *llmgateway.Gateway
	host    hosting.Provider
	reviews reviewSource
	now     func() time.Time
}

// NewReviewLog builds a ReviewLog worker reading review text from source.
func NewReviewLog(gateway *llmgateway.Gateway, host hosting.Provider, source reviewSource) *ReviewLog {
	return &ReviewLog{gateway: gateway, host: host, reviews: source, now: time.Now}
}

// Name implements Worker.
func (w *ReviewLog) Name() sessionstore.TaskName { return sessionstore.TaskReviewLog }

// Plan declines doc-only diffs. Whether code_review produced a review is
// checked by PlanAfterReview, which the orchestrator consults before Plan.
func (w *ReviewLog) Plan(ctx context.Context, tc *trigger.Context) bool {
	return !tc.DiffAnalysis.DocOnly
}

// PlanAfterReview is the authoritative gate the orchestrator consults once
// code_review has finished: review_log only runs after a successful review.
func (w *ReviewLog) PlanAfterReview(runID string, codeReviewSucceeded bool) bool {
	return codeReviewSucceeded && w.reviews.ReviewFor(runID) != ""
}

// Execute summarizes the run's review text and appends it to CODE_REVIEW.md.
func (w *ReviewLog) Execute(ctx context.Context, tc *trigger.Context, runID string) Outcome {
	review := w.reviews.ReviewFor(runID)
	if review == "" {
		return skipped("no review text available for this run")
	}

	prompt := fmt.Sprintf(reviewLogPromptTemplate, review)
	summary, usage, err := w.gateway.Generate(ctx, prompt, "")
	if err != nil {
		return failedFrom(err)
	}
	metrics := sessionstore.Metrics{TokensUsed: usage.PromptTokens + usage.CompletionTokens, EstimatedCostUSD: usage.EstimatedCostUSD}

	current, err := readRepoFile(ctx, w.host, "CODE_REVIEW.md")
	if err != nil {
		if !isNotFound(err) {
			return failedFrom(err)
		}
		current = reviewLogHeader
	}

	entry := formatReviewLogEntry(w.now(), tc, summary)
	updated := strings.TrimRight(current, "\n") + "\n" + entry

	return successWithContent("appended review log entry", metrics, ProposedContent{Path: "CODE_REVIEW.md", Content: updated})
}

func formatReviewLogEntry(at time.Time, tc *trigger.Context, summary string) string {
	ref := shortSHA(tc.CommitID)
	if tc.HasPR {
		ref = fmt.Sprintf("PR #%d", tc.PRNumber)
	}
	return fmt.Sprintf("\n## [%s] %s\n\n%s\n", at.Format("2006-01-02"), ref, strings.TrimSpace(summary))
}

func isNotFound(err error) bool {
	var hostErr *hosting.Error
	if e, ok := err.(*hosting.Error); ok {
		hostErr = e
	}
	return hostErr != nil && hostErr.Category == hosting.CategoryNotFound
}
