package trigger

import (
	"unicode/utf8"

	"github.com/forgepilot/reviewloop/internal/diffutil"
)

// Classify decides whether an event triggers any work, and if so, what kind.
// It is a pure function: same inputs always produce the same Context.
func Classify(event Event, cfg Config) Context {
	ctx := Context{
		EventKind: event.Kind,
		CommitID:  event.CommitID,
		Branch:    event.Branch,
		PRNumber:  event.PRNumber,
		HasPR:     event.HasPR,
		DiffText:  truncateDiff(event.DiffText, cfg.DiffMaxBytes),
	}

	if skip, reason := modeExcludes(event, cfg.Mode); skip {
		ctx.RunType = RunSkippedByTriggerMode
		ctx.SkipReason = reason
		return ctx
	}

	ctx.TriggerType = classifyTriggerType(event)

	if event.Kind == EventPullRequest && !actionTriggersRun(event.Action) {
		ctx.RunType = RunSkippedByTriggerMode
		ctx.SkipReason = "pull request action " + string(event.Action) + " does not trigger a run"
		return ctx
	}

	ctx.DiffAnalysis = diffutil.Analyze(event.DiffText, cfg.DiffConfig)

	if cfg.TrivialFilterEnabled && ctx.DiffAnalysis.Trivial {
		ctx.RunType = RunSkippedTrivialChange
		ctx.SkipReason = ctx.DiffAnalysis.TrivialReason
		return ctx
	}

	if ctx.DiffAnalysis.DocOnly {
		if cfg.LightweightOnDocsOnly {
			ctx.RunType = RunLightweightOnly
			ctx.Tasks = []string{"readme_update", "spec_update"}
			return ctx
		}
		ctx.RunType = RunSkippedDocsOnly
		ctx.Tasks = []string{"readme_update", "spec_update"}
		return ctx
	}

	ctx.RunType = RunFullAutomation
	ctx.Tasks = []string{"code_review", "readme_update", "spec_update", "review_log"}
	return ctx
}

// modeExcludes reports whether the configured trigger mode excludes this
// event's kind entirely.
func modeExcludes(event Event, mode Mode) (bool, string) {
	switch mode {
	case ModePR:
		if event.Kind == EventPush && !event.HasPR {
			return true, "push events without a containing PR are excluded under trigger_mode=pr"
		}
	case ModePush:
		if event.Kind == EventPullRequest {
			return true, "pull_request events are excluded under trigger_mode=push"
		}
	}
	return false, ""
}

// actionTriggersRun reports whether a pull_request action is one that starts work.
func actionTriggersRun(action PRAction) bool {
	switch action {
	case ActionOpened, ActionSynchronize, ActionReopened:
		return true
	default:
		return false
	}
}

// truncateDiff bounds the diff text stored on Context and passed to
// downstream prompts/storage to maxBytes, preserving whole runes. A
// non-positive maxBytes disables truncation.
func truncateDiff(diffText string, maxBytes int) string {
	if maxBytes <= 0 || len(diffText) <= maxBytes {
		return diffText
	}
	truncated := diffText[:maxBytes]
	for len(truncated) > 0 {
		if r, size := utf8.DecodeLastRuneInString(truncated); r != utf8.RuneError || size != 1 {
			break
		}
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "\n... (diff truncated)"
}

func classifyTriggerType(event Event) Type {
	if event.Kind == EventPush {
		if event.HasPR {
			return TriggerPushWithPR
		}
		return TriggerPushWithoutPR
	}

	switch event.Action {
	case ActionOpened:
		return TriggerPROpened
	case ActionReopened:
		return TriggerPRReopened
	default:
		return TriggerPRSynchronize
	}
}
