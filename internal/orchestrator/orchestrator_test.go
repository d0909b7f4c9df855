package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/events"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/sessionstore/filestore"
	"github.com/forgepilot/reviewloop/internal/trigger"
	"github.com/forgepilot/reviewloop/internal/workers"
)

const codeDiff = `diff --git a/main.go b/main.go
index 111..222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,6 @@
 package main
+
+func helper() int {
+	return 42
+}

`

func newTestOrchestrator(t *testing.T, host *fakeProvider, reviewText string) (*Orchestrator, *filestore.Store) {
	t.Helper()

	host.files["README.md"] = "# Widgets\n\nA widget library.\n"
	host.files["spec.md"] = "# Spec\n\n**Last Updated:** 2026-01-01\n"

	path := filepath.Join(t.TempDir(), "runs.json")
	store, err := filestore.Open(path, time.Minute)
	if err != nil {
		t.Fatalf("open filestore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	gw := llmgateway.New(&fakeLLMClient{response: reviewText}, "fake-model", 1000, 0)

	codeReview := workers.NewCodeReview(gw, host, true, false, 20)
	readme := workers.NewREADME(gw, host)
	specUpdater := workers.NewSpecUpdater(gw, host)
	reviewLog := workers.NewReviewLog(gw, host, codeReview)

	triggerCfg := trigger.Config{
		Mode:                 trigger.ModeBoth,
		TrivialFilterEnabled: true,
		DiffConfig:           diffutil.DefaultConfig(),
	}
	cfg := DefaultConfig()
	cfg.DedupWindow = time.Minute

	o := New(store, host, triggerCfg, cfg, codeReview, readme, specUpdater, reviewLog, WithPublisher(events.NewMemoryPublisher()))
	return o, store
}

func TestHandleEvent_TrivialChangeSkipsWithoutTasks(t *testing.T) {
	t.Parallel()

	host := newFakeProvider()
	o, _ := newTestOrchestrator(t, host, "score: 8/10")

	ev := trigger.Event{
		Kind:     trigger.EventPush,
		CommitID: "triv0000001",
		Branch:   "main",
		DiffText: "diff --git a/main.go b/main.go\n@@ -1,1 +1,1 @@\n-a\n+b\n",
	}

	run, err := o.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if run == nil {
		t.Fatal("expected a skipped run record, got nil")
	}
	if run.SkipReason == "" {
		t.Error("expected a skip reason to be recorded")
	}
	if len(run.Tasks) != 0 {
		t.Errorf("expected no tasks for a skipped run, got %v", run.Tasks)
	}
}

func TestHandleEvent_FullAutomationDispatchesAllTasksAndComposesAutomationPR(t *testing.T) {
	t.Parallel()

	host := newFakeProvider()
	o, _ := newTestOrchestrator(t, host, "Review summary: looks fine overall.")

	ev := trigger.Event{
		Kind:     trigger.EventPullRequest,
		Action:   trigger.ActionSynchronize,
		CommitID: "abc1234def56",
		Branch:   "main",
		PRNumber: 7,
		HasPR:    true,
		DiffText: codeDiff,
	}

	run, err := o.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if run == nil {
		t.Fatal("expected a run record")
	}
	if len(run.Tasks) != 4 {
		t.Fatalf("got %d task records, want 4", len(run.Tasks))
	}
	if run.AutomationPRNumber == 0 {
		t.Error("expected an automation PR to have been composed and recorded")
	}
	if _, ok := host.files["README.md"]; !ok {
		t.Error("expected README.md to have been committed")
	}
	if _, ok := host.files["CODE_REVIEW.md"]; !ok {
		t.Error("expected CODE_REVIEW.md to have been committed by review_log")
	}
}

func TestHandleEvent_DuplicateDeliveryWithinWindowReturnsNil(t *testing.T) {
	t.Parallel()

	host := newFakeProvider()
	o, _ := newTestOrchestrator(t, host, "Review summary: fine.")

	ev := trigger.Event{
		Kind:     trigger.EventPullRequest,
		Action:   trigger.ActionSynchronize,
		CommitID: "dupe000111",
		Branch:   "main",
		PRNumber: 3,
		HasPR:    true,
		DiffText: codeDiff,
	}

	first, err := o.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("first HandleEvent: %v", err)
	}
	if first == nil {
		t.Fatal("expected the first delivery to start a run")
	}

	second, err := o.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("second HandleEvent: %v", err)
	}
	if second != nil {
		t.Fatal("expected the duplicate delivery to return a nil run")
	}
}

func TestHandleEvent_ReviewLogSkippedWhenCodeReviewProducesNoText(t *testing.T) {
	t.Parallel()

	host := newFakeProvider()
	// code_review's gateway call returns an empty string, so review_log's
	// PlanAfterReview gate must decline to run.
	o, _ := newTestOrchestrator(t, host, "")

	ev := trigger.Event{
		Kind:     trigger.EventPush,
		CommitID: "norev0001122",
		Branch:   "main",
		HasPR:    false,
		DiffText: codeDiff,
	}

	run, err := o.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if run == nil {
		t.Fatal("expected a run record")
	}

	var reviewLogStatus string
	for _, tr := range run.Tasks {
		if string(tr.Name) == "review_log" {
			reviewLogStatus = string(tr.Status)
		}
	}
	if reviewLogStatus != "skipped" {
		t.Errorf("review_log status = %q, want skipped", reviewLogStatus)
	}
}
