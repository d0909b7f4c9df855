// Package trigger classifies an inbound repository event into a run type,
// deciding whether it triggers any work and, if so, which kind. Classify is
// a pure function of event kind, PR action, trigger mode, and diff analysis.
package trigger

import "github.com/forgepilot/reviewloop/internal/diffutil"

// EventKind is the inbound webhook event's top-level kind.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
)

// PRAction is the pull-request lifecycle action carried on a pull_request event.
type PRAction string

const (
	ActionOpened      PRAction = "opened"
	ActionSynchronize PRAction = "synchronize"
	ActionReopened    PRAction = "reopened"
	ActionOther       PRAction = "other"
)

// Mode selects which event kinds produce work.
type Mode string

const (
	ModePR   Mode = "pr"
	ModePush Mode = "push"
	ModeBoth Mode = "both"
)

// Type is the classified trigger type, naming the event that caused a run.
type Type string

const (
	TriggerPushWithoutPR Type = "push_without_pr"
	TriggerPushWithPR    Type = "push_with_pr"
	TriggerPROpened      Type = "pr_opened"
	TriggerPRSynchronize Type = "pr_synchronized"
	TriggerPRReopened    Type = "pr_reopened"
)

// RunType is the classified scope of work for a Run.
type RunType string

const (
	RunFullAutomation       RunType = "full_automation"
	RunLightweightOnly      RunType = "lightweight_only"
	RunPartial              RunType = "partial"
	RunSkippedTrivialChange RunType = "skipped_trivial_change"
	RunSkippedDocsOnly      RunType = "skipped_docs_only"
	RunSkippedByTriggerMode RunType = "skipped_by_trigger_mode"
)

// IsNoWorkSkip reports whether this run type performs no work at all and
// should be recorded via session.skip_run rather than session.start_run.
// RunSkippedDocsOnly is deliberately excluded: despite its name it still
// runs the readme_update and spec_update tasks, skipping only code_review.
func (rt RunType) IsNoWorkSkip() bool {
	switch rt {
	case RunSkippedTrivialChange, RunSkippedByTriggerMode:
		return true
	default:
		return false
	}
}

// Event is the normalized input to Classify, already decoded from either
// host's webhook payload shape by the ingress layer.
type Event struct {
	Kind     EventKind
	Action   PRAction // only meaningful when Kind == EventPullRequest
	CommitID string
	Branch   string
	PRNumber int // 0 when Kind == EventPush and there is no containing PR
	HasPR    bool
	DiffText string
}

// Config holds the trigger-evaluation knobs sourced from service configuration.
type Config struct {
	Mode                  Mode
	TrivialFilterEnabled  bool
	DiffConfig            diffutil.Config
	LightweightOnDocsOnly bool
	// DiffMaxBytes truncates Context.DiffText to this many bytes (DIFF_MAX_BYTES).
	// Zero means no truncation. Diff analysis for trivial/doc-only
	// classification always runs against the untruncated text.
	DiffMaxBytes int
}

// Context is the immutable classification + diff snapshot computed once per Run.
type Context struct {
	EventKind EventKind
	CommitID  string
	Branch    string
	PRNumber  int
	HasPR     bool

	TriggerType  Type
	RunType      RunType
	SkipReason   string
	DiffText     string
	DiffAnalysis diffutil.Analysis
	Tasks        []string
}
