package gitlab

import (
	"crypto/subtle"
	"fmt"

	"github.com/tidwall/gjson"
)

// Event is a minimally-typed GitLab webhook event: just enough of the
// push/merge-request payload shape for the trigger classifier to act on,
// read field-by-field with gjson since go-gitlab ships no webhook event
// structs of its own.
type Event struct {
	Kind           string // "push" or "merge_request"
	ProjectPath    string
	Ref            string
	After          string // push: the new commit SHA
	Commits        []string
	MRAction       string // merge_request: "open", "update", "close", "merge", ...
	MRIID          int
	MRSourceBranch string
	MRTargetBranch string
}

// ValidateSignature compares the X-Gitlab-Token header against the
// configured webhook secret using a constant-time comparison. Unlike GitHub,
// GitLab's webhook auth is a shared-secret header rather than an HMAC
// signature over the body, so there is no payload digest to verify here.
func ValidateSignature(headerToken string, secret []byte) bool {
	return subtle.ConstantTimeCompare([]byte(headerToken), secret) == 1
}

// ParseEvent reads a raw GitLab webhook payload into an Event using the
// X-Gitlab-Event header to pick the push vs merge-request shape.
func ParseEvent(eventHeader string, payload []byte) (*Event, error) {
	body := string(payload)
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("gitlab webhook: invalid JSON payload")
	}

	switch eventHeader {
	case "Push Hook":
		return parsePushEvent(body), nil
	case "Merge Request Hook":
		return parseMergeRequestEvent(body), nil
	default:
		return nil, fmt.Errorf("gitlab webhook: unsupported event type %q", eventHeader)
	}
}

func parsePushEvent(body string) *Event {
	evt := &Event{
		Kind:        "push",
		ProjectPath: gjson.Get(body, "project.path_with_namespace").String(),
		Ref:         gjson.Get(body, "ref").String(),
		After:       gjson.Get(body, "after").String(),
	}
	for _, c := range gjson.Get(body, "commits.#.id").Array() {
		evt.Commits = append(evt.Commits, c.String())
	}
	return evt
}

func parseMergeRequestEvent(body string) *Event {
	return &Event{
		Kind:           "merge_request",
		ProjectPath:    gjson.Get(body, "project.path_with_namespace").String(),
		MRAction:       gjson.Get(body, "object_attributes.action").String(),
		MRIID:          int(gjson.Get(body, "object_attributes.iid").Int()),
		MRSourceBranch: gjson.Get(body, "object_attributes.source_branch").String(),
		MRTargetBranch: gjson.Get(body, "object_attributes.target_branch").String(),
	}
}
