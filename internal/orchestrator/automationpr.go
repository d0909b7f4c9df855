package orchestrator

import (
	"context"
	"fmt"

	"github.com/forgepilot/reviewloop/internal/events"
	"github.com/forgepilot/reviewloop/internal/hosting"
	"github.com/forgepilot/reviewloop/internal/sessionstore"
	"github.com/forgepilot/reviewloop/internal/trigger"
	"github.com/forgepilot/reviewloop/internal/workers"
)

// automationBlobOrder is the stable commit order spec.md's grouped PR step
// requires: README.md, spec.md, CODE_REVIEW.md.
var automationBlobOrder = []sessionstore.TaskName{
	sessionstore.TaskReadmeUpdate,
	sessionstore.TaskSpecUpdate,
	sessionstore.TaskReviewLog,
}

// composeAutomationPR gathers the proposed content blobs from this run's
// outcomes and, if any exist, creates or updates the single automation
// branch/PR for the run's source PR (or commit, for push events without a
// PR). Returns composed=false when there was nothing to do.
func (o *Orchestrator) composeAutomationPR(ctx context.Context, tc *trigger.Context, outcomes map[sessionstore.TaskName]workers.Outcome) (events.AutomationPRData, bool, error) {
	var blobs []*workers.ProposedContent
	for _, name := range automationBlobOrder {
		if o, ok := outcomes[name]; ok && o.Content != nil {
			blobs = append(blobs, o.Content)
		}
	}
	if len(blobs) == 0 {
		return events.AutomationPRData{}, false, nil
	}

	suffix := automationPRSuffix(tc)
	branch := fmt.Sprintf("automation/pr-%s-docs", suffix)

	existing, err := o.host.FindPRByHeadBranch(ctx, branch)
	if err != nil {
		return events.AutomationPRData{}, false, fmt.Errorf("find existing automation PR: %w", err)
	}

	if existing == nil {
		if err := o.host.CreateBranch(ctx, branch, tc.CommitID); err != nil {
			if hostErr, ok := err.(*hosting.Error); !ok || hostErr.Category != hosting.CategoryConflict {
				return events.AutomationPRData{}, false, fmt.Errorf("create automation branch: %w", err)
			}
		}
	}

	var files []string
	for _, blob := range blobs {
		message := fmt.Sprintf("Update %s for PR #%s", blob.Path, suffix)
		if err := o.host.CommitFile(ctx, branch, blob.Path, blob.Content, message); err != nil {
			return events.AutomationPRData{}, false, fmt.Errorf("commit %s: %w", blob.Path, err)
		}
		files = append(files, blob.Path)
	}

	title := fmt.Sprintf("\U0001F916 Automation updates for PR #%s", suffix)
	body := fmt.Sprintf("Automated documentation updates for #%s.", suffix)

	if existing == nil {
		opened, err := o.host.OpenPR(ctx, hosting.PROpenOptions{
			Title: title,
			Body:  body,
			Head:  branch,
			Base:  tc.Branch,
		})
		if err != nil {
			return events.AutomationPRData{}, false, fmt.Errorf("open automation PR: %w", err)
		}
		return events.AutomationPRData{PRNumber: opened.Number, Branch: branch, Files: files, Updated: false}, true, nil
	}

	if err := o.host.UpdatePR(ctx, existing.Number, hosting.PRUpdateOptions{Title: title, Body: body}); err != nil {
		return events.AutomationPRData{}, false, fmt.Errorf("update automation PR: %w", err)
	}
	return events.AutomationPRData{PRNumber: existing.Number, Branch: branch, Files: files, Updated: true}, true, nil
}

func automationPRSuffix(tc *trigger.Context) string {
	if tc.HasPR && tc.PRNumber > 0 {
		return fmt.Sprintf("%d", tc.PRNumber)
	}
	return shortCommit(tc.CommitID)
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
