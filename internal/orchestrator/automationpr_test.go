package orchestrator

import (
	"context"
	"testing"

	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
	"github.com/forgepilot/reviewloop/internal/workers"
)

func readmeOutcome(content string) workers.Outcome {
	return workers.Outcome{Status: sessionstore.TaskSuccess, Content: &workers.ProposedContent{Path: "README.md", Content: content}}
}

func specOutcome(content string) workers.Outcome {
	return workers.Outcome{Status: sessionstore.TaskSuccess, Content: &workers.ProposedContent{Path: "spec.md", Content: content}}
}

func reviewLogOutcome(content string) workers.Outcome {
	return workers.Outcome{Status: sessionstore.TaskSuccess, Content: &workers.ProposedContent{Path: "CODE_REVIEW.md", Content: content}}
}

func TestComposeAutomationPR_NoContentReturnsNotComposed(t *testing.T) {
	t.Parallel()

	o := &Orchestrator{host: newFakeProvider()}
	outcomes := map[sessionstore.TaskName]workers.Outcome{
		sessionstore.TaskCodeReview: {Status: sessionstore.TaskSuccess},
	}

	_, composed, err := o.composeAutomationPR(context.Background(), &trigger.Context{}, outcomes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if composed {
		t.Fatal("expected composed=false when no worker produced proposed content")
	}
}

func TestComposeAutomationPR_OpensNewPRWithStableBlobOrder(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	o := &Orchestrator{host: fp}
	tc := &trigger.Context{CommitID: "deadbeef1234", Branch: "main", HasPR: true, PRNumber: 7}
	outcomes := map[sessionstore.TaskName]workers.Outcome{
		sessionstore.TaskSpecUpdate:   specOutcome("spec body"),
		sessionstore.TaskReadmeUpdate: readmeOutcome("readme body"),
		sessionstore.TaskReviewLog:    reviewLogOutcome("review body"),
	}

	data, composed, err := o.composeAutomationPR(context.Background(), tc, outcomes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !composed {
		t.Fatal("expected composed=true")
	}
	if data.Updated {
		t.Fatal("a brand new PR must not report Updated=true")
	}
	if data.Branch != "automation/pr-7-docs" {
		t.Errorf("branch = %s, want automation/pr-7-docs", data.Branch)
	}
	wantOrder := []string{"README.md", "spec.md", "CODE_REVIEW.md"}
	if len(data.Files) != len(wantOrder) {
		t.Fatalf("files = %v, want %v", data.Files, wantOrder)
	}
	for i, w := range wantOrder {
		if data.Files[i] != w {
			t.Errorf("files[%d] = %s, want %s", i, data.Files[i], w)
		}
	}

	if fp.files["README.md"] != "readme body" || fp.files["spec.md"] != "spec body" || fp.files["CODE_REVIEW.md"] != "review body" {
		t.Errorf("committed file contents unexpected: %+v", fp.files)
	}
	if _, ok := fp.prsByBranch["automation/pr-7-docs"]; !ok {
		t.Error("expected a PR to be recorded against the automation branch")
	}
}

func TestComposeAutomationPR_UpdatesExistingPR(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	o := &Orchestrator{host: fp}
	tc := &trigger.Context{CommitID: "cafebabe", Branch: "main", HasPR: true, PRNumber: 42}

	first := map[sessionstore.TaskName]workers.Outcome{sessionstore.TaskReadmeUpdate: readmeOutcome("v1")}
	_, composed, err := o.composeAutomationPR(context.Background(), tc, first)
	if err != nil || !composed {
		t.Fatalf("first compose failed: composed=%v err=%v", composed, err)
	}

	second := map[sessionstore.TaskName]workers.Outcome{sessionstore.TaskReadmeUpdate: readmeOutcome("v2")}
	data, composed, err := o.composeAutomationPR(context.Background(), tc, second)
	if err != nil {
		t.Fatalf("second compose failed: %v", err)
	}
	if !composed {
		t.Fatal("expected composed=true on update")
	}
	if !data.Updated {
		t.Error("expected Updated=true when a PR already exists for the branch")
	}
	if fp.files["README.md"] != "v2" {
		t.Errorf("README.md = %q, want v2", fp.files["README.md"])
	}
}

func TestComposeAutomationPR_SuffixFallsBackToShortCommitWithoutPR(t *testing.T) {
	t.Parallel()

	fp := newFakeProvider()
	o := &Orchestrator{host: fp}
	tc := &trigger.Context{CommitID: "0123456789abcdef", Branch: "main", HasPR: false}
	outcomes := map[sessionstore.TaskName]workers.Outcome{sessionstore.TaskReadmeUpdate: readmeOutcome("x")}

	data, composed, err := o.composeAutomationPR(context.Background(), tc, outcomes)
	if err != nil || !composed {
		t.Fatalf("compose failed: composed=%v err=%v", composed, err)
	}
	if data.Branch != "automation/pr-0123456-docs" {
		t.Errorf("branch = %s, want automation/pr-0123456-docs", data.Branch)
	}
}

func TestAutomationPRSuffix(t *testing.T) {
	t.Parallel()

	if got := automationPRSuffix(&trigger.Context{HasPR: true, PRNumber: 9}); got != "9" {
		t.Errorf("suffix = %s, want 9", got)
	}
	if got := automationPRSuffix(&trigger.Context{HasPR: false, CommitID: "abcdefabcdef"}); got != "abcdefa" {
		t.Errorf("suffix = %s, want abcdefa", got)
	}
	if got := automationPRSuffix(&trigger.Context{HasPR: false, CommitID: "ab"}); got != "ab" {
		t.Errorf("suffix = %s, want ab (short sha untouched)", got)
	}
}
