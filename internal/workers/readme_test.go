package workers

import (
	"context"
	"testing"

	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

func TestREADME_Execute_ProducesContentOnChange(t *testing.T) {
	host := newFakeProvider()
	host.files["README.md"] = "# Widgets\n\nOld content.\n"
	gw := llmgateway.New(&fakeLLMClient{response: "# Widgets\n\nNew content.\n"}, "gpt-4o", 1000, 0)
	w := NewREADME(gw, host)

	tc := &trigger.Context{RunType: trigger.RunFullAutomation, DiffAnalysis: diffutil.Analysis{}}
	outcome := w.Execute(context.Background(), tc, "run-1")

	if outcome.Status != sessionstore.TaskSuccess {
		t.Fatalf("Status = %v, want success; message=%q", outcome.Status, outcome.Message)
	}
	if outcome.Content == nil || outcome.Content.Path != "README.md" {
		t.Fatalf("Content = %+v, want a README.md blob", outcome.Content)
	}
}

func TestREADME_Execute_SkipsWhenUnchanged(t *testing.T) {
	host := newFakeProvider()
	host.files["README.md"] = "# Widgets\n\nSame content.\n"
	gw := llmgateway.New(&fakeLLMClient{response: "# Widgets\n\nSame content.\n"}, "gpt-4o", 1000, 0)
	w := NewREADME(gw, host)

	tc := &trigger.Context{RunType: trigger.RunFullAutomation}
	outcome := w.Execute(context.Background(), tc, "run-2")

	if outcome.Status != sessionstore.TaskSkipped {
		t.Fatalf("Status = %v, want skipped", outcome.Status)
	}
	if outcome.SkipReason != "no_changes" {
		t.Errorf("SkipReason = %q, want %q", outcome.SkipReason, "no_changes")
	}
}

func TestREADME_Plan_RunsForFullLightweightOrDocsOnly(t *testing.T) {
	w := NewREADME(nil, nil)
	cases := []struct {
		runType trigger.RunType
		want    bool
	}{
		{trigger.RunFullAutomation, true},
		{trigger.RunLightweightOnly, true},
		{trigger.RunSkippedDocsOnly, true},
		{trigger.RunPartial, false},
	}
	for _, c := range cases {
		tc := &trigger.Context{RunType: c.runType}
		if got := w.Plan(context.Background(), tc); got != c.want {
			t.Errorf("Plan() for run type %q = %v, want %v", c.runType, got, c.want)
		}
	}
}
