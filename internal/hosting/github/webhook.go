package github

import (
	"net/http"

	gogithub "github.com/google/go-github/v82/github"
)

// ValidateSignature checks the X-Hub-Signature-256 header against the
// configured webhook secret and returns the raw payload on success.
func ValidateSignature(r *http.Request, secret []byte) ([]byte, error) {
	return gogithub.ValidatePayload(r, secret)
}

// ParseEvent parses a validated webhook payload into its typed event, keyed
// by the X-Github-Event header.
func ParseEvent(r *http.Request, payload []byte) (any, error) {
	return gogithub.ParseWebHook(gogithub.WebHookType(r), payload)
}
