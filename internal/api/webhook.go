package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v82/github"

	"github.com/forgepilot/reviewloop/internal/hosting"
	ghhosting "github.com/forgepilot/reviewloop/internal/hosting/github"
	glhosting "github.com/forgepilot/reviewloop/internal/hosting/gitlab"
	"github.com/forgepilot/reviewloop/internal/orchestrator"
	"github.com/forgepilot/reviewloop/internal/trigger"
)

// WebhookHandler implements POST /webhook: signature verification and event
// decoding into the host-agnostic trigger.Event shape. The classify-and-open
// step runs synchronously so the response can carry a real run id; worker
// dispatch and finalization continue in the background via
// Orchestrator.HandleEventAsync, per the "webhook handler never returns 5xx
// for downstream faults" propagation policy.
type WebhookHandler struct {
	provider hosting.ProviderType
	secret   []byte
	host     hosting.Provider
	orc      *orchestrator.Orchestrator
	logger   *slog.Logger
}

// NewWebhookHandler builds a webhook handler for provider (github or gitlab).
func NewWebhookHandler(provider hosting.ProviderType, secret []byte, host hosting.Provider, orc *orchestrator.Orchestrator, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{provider: provider, secret: secret, host: host, orc: orc, logger: logger}
}

// ServeHTTP validates the request's signature, decodes it into a trigger
// event, fetches the event's diff, and opens (or skips) the Run before
// responding.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var ev *trigger.Event
	var err error

	switch h.provider {
	case hosting.ProviderGitHub:
		ev, err = h.decodeGitHub(r)
	case hosting.ProviderGitLab:
		ev, err = h.decodeGitLab(r)
	default:
		http.Error(w, "unsupported provider", http.StatusInternalServerError)
		return
	}

	if err != nil {
		if err == errSignatureMismatch {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		h.logger.Error("webhook decode failed", "error", err)
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ev == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if diff, derr := h.fetchDiff(r.Context(), *ev); derr != nil {
		h.logger.Warn("fetch diff for webhook event failed, proceeding with empty diff", "commit_id", ev.CommitID, "error", derr)
	} else {
		ev.DiffText = diff
	}

	runID, err := h.orc.HandleEventAsync(r.Context(), *ev)
	if err != nil {
		h.logger.Error("open run for webhook event failed", "commit_id", ev.CommitID, "error", err)
		JSONError(w, "failed to open run", http.StatusInternalServerError)
		return
	}
	if runID == "" {
		// Deduplicated retry: treated as accepted with no new run.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	JSONResponseStatus(w, map[string]string{"status": "accepted", "run_id": runID}, http.StatusAccepted)
}

var errSignatureMismatch = fmt.Errorf("webhook signature mismatch")

func (h *WebhookHandler) decodeGitHub(r *http.Request) (*trigger.Event, error) {
	payload, err := ghhosting.ValidateSignature(r, h.secret)
	if err != nil {
		return nil, errSignatureMismatch
	}

	parsed, err := ghhosting.ParseEvent(r, payload)
	if err != nil {
		return nil, fmt.Errorf("parse github webhook: %w", err)
	}

	switch e := parsed.(type) {
	case *gogithub.PushEvent:
		if e.GetHeadCommit() == nil {
			return nil, nil
		}
		return &trigger.Event{
			Kind:     trigger.EventPush,
			CommitID: e.GetHeadCommit().GetID(),
			Branch:   strings.TrimPrefix(e.GetRef(), "refs/heads/"),
			HasPR:    false,
		}, nil
	case *gogithub.PullRequestEvent:
		pr := e.GetPullRequest()
		if pr == nil {
			return nil, nil
		}
		return &trigger.Event{
			Kind:     trigger.EventPullRequest,
			Action:   githubPRAction(e.GetAction()),
			CommitID: pr.GetHead().GetSHA(),
			Branch:   pr.GetHead().GetRef(),
			PRNumber: pr.GetNumber(),
			HasPR:    true,
		}, nil
	default:
		return nil, nil
	}
}

func githubPRAction(action string) trigger.PRAction {
	switch action {
	case "opened":
		return trigger.ActionOpened
	case "synchronize":
		return trigger.ActionSynchronize
	case "reopened":
		return trigger.ActionReopened
	default:
		return trigger.ActionOther
	}
}

func (h *WebhookHandler) decodeGitLab(r *http.Request) (*trigger.Event, error) {
	if !glhosting.ValidateSignature(r.Header.Get("X-Gitlab-Token"), h.secret) {
		return nil, errSignatureMismatch
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read gitlab webhook body: %w", err)
	}

	parsed, err := glhosting.ParseEvent(r.Header.Get("X-Gitlab-Event"), body)
	if err != nil {
		// Unsupported event kinds are accepted-and-ignored, not errors.
		return nil, nil
	}

	switch parsed.Kind {
	case "push":
		if parsed.After == "" {
			return nil, nil
		}
		return &trigger.Event{
			Kind:     trigger.EventPush,
			CommitID: parsed.After,
			Branch:   strings.TrimPrefix(parsed.Ref, "refs/heads/"),
			HasPR:    false,
		}, nil
	case "merge_request":
		return &trigger.Event{
			Kind:     trigger.EventPullRequest,
			Action:   gitlabMRAction(parsed.MRAction),
			Branch:   parsed.MRSourceBranch,
			PRNumber: parsed.MRIID,
			HasPR:    true,
		}, nil
	default:
		return nil, nil
	}
}

func gitlabMRAction(action string) trigger.PRAction {
	switch action {
	case "open":
		return trigger.ActionOpened
	case "update":
		return trigger.ActionSynchronize
	case "reopen":
		return trigger.ActionReopened
	default:
		return trigger.ActionOther
	}
}

// fetchDiff resolves the unified diff text for a classified event: the PR
// diff when the event names a pull/merge request, else the single commit's
// diff.
func (h *WebhookHandler) fetchDiff(ctx context.Context, ev trigger.Event) (string, error) {
	if ev.HasPR && ev.PRNumber != 0 {
		return h.host.PRDiff(ctx, ev.PRNumber)
	}
	return h.host.CommitDiff(ctx, ev.CommitID)
}
