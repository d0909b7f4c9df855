package workers

import (
	"context"
	"testing"

	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/rlerrors"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

func TestCodeReview_Plan_SkipsDocOnlyDiff(t *testing.T) {
	w := NewCodeReview(nil, nil, true, false, 20)
	tc := &trigger.Context{DiffAnalysis: diffutil.Analysis{DocOnly: true}}
	if w.Plan(context.Background(), tc) {
		t.Error("Plan() = true for doc-only diff, want false")
	}
}

func TestCodeReview_Execute_PostsAsPRReviewWhenConfigured(t *testing.T) {
	host := newFakeProvider()
	gw := llmgateway.New(&fakeLLMClient{response: "## Strengths\n..."}, "gpt-4o", 1000, 0)
	w := NewCodeReview(gw, host, true, false, 20)

	tc := &trigger.Context{HasPR: true, PRNumber: 7, CommitID: "abcdef1234"}
	outcome := w.Execute(context.Background(), tc, "run-1")

	if outcome.Status != sessionstore.TaskSuccess {
		t.Fatalf("Status = %v, want success; message=%q", outcome.Status, outcome.Message)
	}
	if len(host.prReviews) != 1 {
		t.Errorf("prReviews = %v, want one posted review", host.prReviews)
	}
	if len(host.commitComments) != 0 {
		t.Errorf("commitComments = %v, want none when PR review succeeds", host.commitComments)
	}
	if w.ReviewFor("run-1") == "" {
		t.Error("ReviewFor(run-1) = \"\", want the generated review text")
	}
}

func TestCodeReview_Execute_FallsBackToCommitComment(t *testing.T) {
	host := newFakeProvider()
	gw := llmgateway.New(&fakeLLMClient{response: "review body"}, "gpt-4o", 1000, 0)
	w := NewCodeReview(gw, host, true, false, 20)

	tc := &trigger.Context{HasPR: false, CommitID: "abcdef1234"}
	outcome := w.Execute(context.Background(), tc, "run-2")

	if outcome.Status != sessionstore.TaskSuccess {
		t.Fatalf("Status = %v, want success", outcome.Status)
	}
	if len(host.commitComments) != 1 {
		t.Errorf("commitComments = %v, want one posted comment", host.commitComments)
	}
}

func TestCodeReview_Execute_OpensIssueWhenCommentFailsAndEnabled(t *testing.T) {
	host := newFakeProvider()
	host.postCommitCommentErr = &hosting.Error{Category: hosting.CategoryNotFound, Message: "commit gone"}
	gw := llmgateway.New(&fakeLLMClient{response: "review body"}, "gpt-4o", 1000, 0)
	w := NewCodeReview(gw, host, true, true, 20)

	tc := &trigger.Context{HasPR: false, CommitID: "abcdef1234"}
	outcome := w.Execute(context.Background(), tc, "run-3")

	if outcome.Status != sessionstore.TaskSuccess {
		t.Fatalf("Status = %v, want success; message=%q", outcome.Status, outcome.Message)
	}
	if len(host.issuesPosted) != 1 {
		t.Errorf("issuesPosted = %v, want one opened issue", host.issuesPosted)
	}
}

func TestCodeReview_Execute_FailsWithPostSideEffectKindWhenDeliveryFails(t *testing.T) {
	host := newFakeProvider()
	host.postCommitCommentErr = &hosting.Error{Category: hosting.CategoryNotFound, Message: "commit gone"}
	gw := llmgateway.New(&fakeLLMClient{response: "review body"}, "gpt-4o", 1000, 0)
	w := NewCodeReview(gw, host, true, false, 20)

	tc := &trigger.Context{HasPR: false, CommitID: "abcdef1234"}
	outcome := w.Execute(context.Background(), tc, "run-4")

	if outcome.Status != sessionstore.TaskFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	if outcome.ErrorKind != rlerrors.KindPostSideEffect {
		t.Errorf("ErrorKind = %q, want %q", outcome.ErrorKind, rlerrors.KindPostSideEffect)
	}
}
