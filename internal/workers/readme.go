package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgepilot/reviewloop/internal/diffutil"
	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/llmgateway"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

const readmePromptTemplate = `You maintain this repository's README.md. Given its current content and a
diff of recent changes, regenerate the README, touching only the sections
whose invariants the diff affects (new public entry points, new dependency
entries, new commands). Preserve structure, heading levels, and tone
everywhere else. Return the complete updated file content, nothing else.

Current README.md:
%s

Diff:
%s
`

// README regenerates the repository's README.md, touching only the
// sections a diff's new entry points, dependencies, or commands affect.
type README struct {
	gateway *llmgateway.Gateway
	host    hosting.Provider
}

// NewREADME builds a README worker.
func NewREADME(gateway *llmgateway.Gateway, host hosting.Provider) *README {
	return &README{gateway: gateway, host: host}
}

// Name implements Worker.
func (w *README) Name() sessionstore.TaskName { return sessionstore.TaskReadmeUpdate }

// Plan runs for full automation, lightweight_only and skipped_docs_only
// runs; the run type already encodes whether README maintenance is in scope.
func (w *README) Plan(ctx context.Context, tc *trigger.Context) bool {
	return tc.RunType == trigger.RunFullAutomation || tc.RunType == trigger.RunLightweightOnly ||
		tc.RunType == trigger.RunSkippedDocsOnly
}

// Execute regenerates README.md and skips with skipped: no_changes when the
// result is textually identical to the current content.
func (w *README) Execute(ctx context.Context, tc *trigger.Context, runID string) Outcome {
	current, err := readRepoFile(ctx, w.host, "README.md")
	if err != nil {
		return failedFrom(err)
	}

	affected := affectedSections(tc.DiffAnalysis)
	prompt := fmt.Sprintf(readmePromptTemplate+"\n\nSections likely affected: %s\n", current, tc.DiffText, strings.Join(affected, ", "))

	generated, usage, err := w.gateway.Generate(ctx, prompt, "")
	if err != nil {
		return failedFrom(err)
	}
	metrics := sessionstore.Metrics{TokensUsed: usage.PromptTokens + usage.CompletionTokens, EstimatedCostUSD: usage.EstimatedCostUSD}

	generated = strings.TrimRight(generated, "\n") + "\n"
	if generated == current {
		return skipped(sessionstore.NoChangesSkipReason)
	}

	return successWithContent("regenerated README.md", metrics, ProposedContent{Path: "README.md", Content: generated})
}

// readRepoFile fetches a file's current content through the host's ReadFile.
func readRepoFile(ctx context.Context, host hosting.Provider, path string) (string, error) {
	content, err := host.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	return content, nil
}

// affectedSections heuristically names README sections a diff likely
// touches, based on which files changed.
func affectedSections(a diffutil.Analysis) []string {
	var sections []string
	seenEntryPoints, seenDeps, seenCommands := false, false, false
	for _, f := range a.Files {
		switch {
		case !seenEntryPoints && (strings.HasPrefix(f.Path, "cmd/") || strings.Contains(f.Path, "main.go")):
			sections = append(sections, "Usage/Entry Points")
			seenEntryPoints = true
		case !seenDeps && (f.Path == "go.mod" || f.Path == "go.sum"):
			sections = append(sections, "Dependencies/Installation")
			seenDeps = true
		case !seenCommands && strings.Contains(f.Path, "cli"):
			sections = append(sections, "Commands")
			seenCommands = true
		}
	}
	if len(sections) == 0 {
		sections = append(sections, "General")
	}
	return sections
}
