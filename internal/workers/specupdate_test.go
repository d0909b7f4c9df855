package workers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

func fixedClock() time.Time {
	return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
}

func TestSpecUpdater_Execute_AppendsEntryAndRefreshesTimestamp(t *testing.T) {
	host := newFakeProvider()
	host.files["spec.md"] = "# Spec\n\n**Last Updated:** 2020-01-01\n\n## Development Log\n\n### [2020-01-01]\n- old entry\n"
	gw := llmgateway.New(&fakeLLMClient{response: "Summary:\n- did a thing\nDecisions:\n- used X\nNext Steps:\n- ship it"}, "gpt-4o", 1000, 0)
	w := NewSpecUpdater(gw, host)
	w.now = fixedClock

	tc := &trigger.Context{RunType: trigger.RunFullAutomation, DiffText: "diff --git a/x b/x"}
	outcome := w.Execute(context.Background(), tc, "run-1")

	if outcome.Status != sessionstore.TaskSuccess {
		t.Fatalf("Status = %v, want success; message=%q", outcome.Status, outcome.Message)
	}
	content := outcome.Content.Content
	if !strings.Contains(content, "**Last Updated:** 2026-07-30") {
		t.Errorf("content does not carry refreshed timestamp:\n%s", content)
	}
	if !strings.Contains(content, "### [2026-07-30]") {
		t.Errorf("content does not carry new entry heading:\n%s", content)
	}
	if !strings.Contains(content, "- old entry") {
		t.Errorf("content dropped the earlier Development Log entry:\n%s", content)
	}
}

func TestSpecUpdater_Plan_RunsForLightweightRuns(t *testing.T) {
	w := NewSpecUpdater(nil, nil)
	tc := &trigger.Context{RunType: trigger.RunLightweightOnly}
	if !w.Plan(context.Background(), tc) {
		t.Error("Plan() = false for lightweight_only, want true")
	}
}
