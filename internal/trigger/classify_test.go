package trigger

import (
	"strings"
	"testing"

	"github.com/forgepilot/reviewloop/internal/diffutil"
)

func baseConfig() Config {
	return Config{
		Mode:                 ModeBoth,
		TrivialFilterEnabled: true,
		DiffConfig:           diffutil.DefaultConfig(),
	}
}

func TestClassify_EmptyDiffIsTrivial(t *testing.T) {
	ctx := Classify(Event{Kind: EventPush, CommitID: "abc123"}, baseConfig())
	if ctx.RunType != RunSkippedTrivialChange {
		t.Fatalf("RunType = %q, want %q", ctx.RunType, RunSkippedTrivialChange)
	}
	if !strings.Contains(ctx.SkipReason, "empty diff") {
		t.Errorf("SkipReason = %q, want it to contain %q", ctx.SkipReason, "empty diff")
	}
}

func TestClassify_PushWithoutPRUnderTriggerModePR(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModePR
	ctx := Classify(Event{Kind: EventPush, HasPR: false, DiffText: someCodeDiff(200)}, cfg)
	if ctx.RunType != RunSkippedByTriggerMode {
		t.Fatalf("RunType = %q, want %q", ctx.RunType, RunSkippedByTriggerMode)
	}
	if !ctx.RunType.IsNoWorkSkip() {
		t.Error("expected IsNoWorkSkip() to be true")
	}
}

func TestClassify_PRSynchronizeSubstantialCodeDiff(t *testing.T) {
	ctx := Classify(Event{
		Kind:     EventPullRequest,
		Action:   ActionSynchronize,
		PRNumber: 67,
		HasPR:    true,
		DiffText: someCodeDiff(200),
	}, baseConfig())

	if ctx.TriggerType != TriggerPRSynchronize {
		t.Errorf("TriggerType = %q, want %q", ctx.TriggerType, TriggerPRSynchronize)
	}
	if ctx.RunType != RunFullAutomation {
		t.Errorf("RunType = %q, want %q", ctx.RunType, RunFullAutomation)
	}
	if len(ctx.Tasks) != 4 {
		t.Errorf("Tasks = %v, want 4 tasks", ctx.Tasks)
	}
}

func TestClassify_DocsOnlyStillRunsDocTasks(t *testing.T) {
	ctx := Classify(Event{
		Kind:     EventPullRequest,
		Action:   ActionOpened,
		PRNumber: 5,
		HasPR:    true,
		DiffText: someDocDiff(80),
	}, baseConfig())

	if ctx.RunType != RunSkippedDocsOnly {
		t.Fatalf("RunType = %q, want %q", ctx.RunType, RunSkippedDocsOnly)
	}
	if ctx.RunType.IsNoWorkSkip() {
		t.Error("docs-only run type must not be treated as a no-work skip")
	}
	if len(ctx.Tasks) == 0 {
		t.Error("expected doc tasks to still be scheduled")
	}
}

func TestClassify_PRActionOtherDoesNotTrigger(t *testing.T) {
	ctx := Classify(Event{Kind: EventPullRequest, Action: ActionOther, HasPR: true, DiffText: someCodeDiff(200)}, baseConfig())
	if ctx.RunType != RunSkippedByTriggerMode {
		t.Fatalf("RunType = %q, want %q", ctx.RunType, RunSkippedByTriggerMode)
	}
}

func TestClassify_WhitespaceOnlySynchronizeIsTrivial(t *testing.T) {
	ctx := Classify(Event{
		Kind:     EventPullRequest,
		Action:   ActionSynchronize,
		HasPR:    true,
		DiffText: "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,2 +1,2 @@\n-\n+ \n",
	}, baseConfig())
	if ctx.RunType != RunSkippedTrivialChange {
		t.Fatalf("RunType = %q, want %q", ctx.RunType, RunSkippedTrivialChange)
	}
}

func someCodeDiff(lines int) string {
	var b strings.Builder
	b.WriteString("diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,1 +1,1 @@\n")
	for i := 0; i < lines; i++ {
		b.WriteString("+fmt.Println(\"line\")\n")
	}
	return b.String()
}

func someDocDiff(lines int) string {
	var b strings.Builder
	b.WriteString("diff --git a/README.md b/README.md\n--- a/README.md\n+++ b/README.md\n@@ -1,1 +1,1 @@\n")
	for i := 0; i < lines; i++ {
		b.WriteString("+Some documentation line.\n")
	}
	return b.String()
}
