package workers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

var lastUpdatedRe = regexp.MustCompile(`(?m)^(\*\*Last Updated:\*\*\s*)\S.*$`)

const specEntryPromptTemplate = `Summarize the following diff as a development log entry with three bulleted
lists: Summary, Decisions, Next Steps. Each bullet is one short line. Return
only the bullets, grouped under the three headings, no surrounding prose.

Diff:
%s
`

// SpecUpdater appends one Development Log entry to spec.md per run and
// refreshes its Last Updated line, never rewriting earlier entries.
type SpecUpdater struct {
	gateway *llmgateway.Gateway
	host    hosting.Provider
	now     func() time.Time
}

// NewSpecUpdater builds a SpecUpdater worker.
func NewSpecUpdater(gateway *llmgateway.Gateway, host hosting.Provider) *SpecUpdater {
	return &SpecUpdater{gateway: gateway, host: host, now: time.Now}
}

// Name implements Worker.
func (w *SpecUpdater) Name() sessionstore.TaskName { return sessionstore.TaskSpecUpdate }

// Plan runs for full automation, lightweight_only and skipped_docs_only runs.
func (w *SpecUpdater) Plan(ctx context.Context, tc *trigger.Context) bool {
	return tc.RunType == trigger.RunFullAutomation || tc.RunType == trigger.RunLightweightOnly ||
		tc.RunType == trigger.RunSkippedDocsOnly
}

// Execute appends a Development Log entry and refreshes the Last Updated line.
func (w *SpecUpdater) Execute(ctx context.Context, tc *trigger.Context, runID string) Outcome {
	current, err := readRepoFile(ctx, w.host, "spec.md")
	if err != nil {
		return failedFrom(err)
	}

	prompt := fmt.Sprintf(specEntryPromptTemplate, tc.DiffText)
	body, usage, err := w.gateway.Generate(ctx, prompt, "")
	if err != nil {
		return failedFrom(err)
	}
	metrics := sessionstore.Metrics{TokensUsed: usage.PromptTokens + usage.CompletionTokens, EstimatedCostUSD: usage.EstimatedCostUSD}

	entry := formatDevLogEntry(w.now(), body)
	updated := appendDevLogEntry(current, entry)
	updated = refreshLastUpdated(updated, w.now())

	return successWithContent("appended development log entry", metrics, ProposedContent{Path: "spec.md", Content: updated})
}

func formatDevLogEntry(at time.Time, body string) string {
	return fmt.Sprintf("\n### [%s]\n%s\n", at.Format("2006-01-02"), strings.TrimSpace(body))
}

// appendDevLogEntry adds entry after the end of the file, under the
// Development Log heading; it never touches earlier entries.
func appendDevLogEntry(current, entry string) string {
	trimmed := strings.TrimRight(current, "\n")
	const heading = "## Development Log"
	if !strings.Contains(trimmed, heading) {
		trimmed += "\n\n" + heading + "\n"
	}
	return trimmed + entry
}

func refreshLastUpdated(content string, at time.Time) string {
	if !lastUpdatedRe.MatchString(content) {
		return content
	}
	return lastUpdatedRe.ReplaceAllString(content, "${1}"+at.Format("2006-01-02"))
}
