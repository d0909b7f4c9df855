// Package hosting provides a unified interface over a git hosting
// provider's REST surface (GitHub, GitLab), consumed by the orchestrator
// and task workers.
package hosting

import "context"

// ProviderType identifies which hosting provider is in use.
type ProviderType string

const (
	ProviderGitHub  ProviderType = "github"
	ProviderGitLab  ProviderType = "gitlab"
	ProviderUnknown ProviderType = "unknown"
)

// Provider is a thin typed contract over a repository host's REST API.
// Implementations exist for GitHub (go-github) and GitLab (go-gitlab).
// Every call returns either a value or an *Error classified into
// {auth, not_found, rate_limited, conflict, transient, other}.
type Provider interface {
	Name() ProviderType
	OwnerRepo() (owner, repo string)

	// CommitDiff fetches the unified diff for a single commit.
	CommitDiff(ctx context.Context, commitID string) (string, error)
	// CommitMeta fetches a commit's author, message, and parent ids.
	CommitMeta(ctx context.Context, commitID string) (*CommitMeta, error)

	// PRDiff fetches the unified diff for a pull request.
	PRDiff(ctx context.Context, number int) (string, error)
	// PRMeta fetches a pull request's number, head branch, head commit, and title.
	PRMeta(ctx context.Context, number int) (*PRMeta, error)
	// ListOpenPRs lists open pull requests.
	ListOpenPRs(ctx context.Context) ([]*PRMeta, error)
	// ListIssues lists issues, optionally filtered by label.
	ListIssues(ctx context.Context, label string) ([]*Issue, error)
	// PostIssue opens a new issue, used as the code review worker's last-resort
	// delivery when both PR-review and commit-comment posting are unavailable.
	PostIssue(ctx context.Context, title, body string) error

	// PostCommitComment posts a comment on a single commit.
	PostCommitComment(ctx context.Context, commitID, body string) error
	// PostPRReview posts a review comment on a pull request (event=COMMENT).
	PostPRReview(ctx context.Context, number int, body string) error
	// PostPRIssueComment posts a plain issue-style comment on a pull request.
	PostPRIssueComment(ctx context.Context, number int, body string) error

	// ReadFile fetches a file's current content from the default branch.
	// Returns a *not_found Error if the file does not exist.
	ReadFile(ctx context.Context, path string) (string, error)
	// CreateBranch creates a branch from a base commit.
	CreateBranch(ctx context.Context, branch, baseCommitID string) error
	// CommitFile creates or updates a single file on a branch, auto-fetching
	// the current blob sha when the file already exists.
	CommitFile(ctx context.Context, branch, path, content, message string) error
	// OpenPR opens a pull request.
	OpenPR(ctx context.Context, opts PROpenOptions) (*PRMeta, error)
	// UpdatePR updates an existing pull request's title and/or body.
	UpdatePR(ctx context.Context, number int, opts PRUpdateOptions) error
	// FindPRByHeadBranch finds the (at most one) open PR with the given head branch.
	FindPRByHeadBranch(ctx context.Context, branch string) (*PRMeta, error)
}

// CommitMeta describes a single commit.
type CommitMeta struct {
	SHA       string
	Author    string
	Message   string
	ParentIDs []string
}

// PRMeta describes a pull request's identifying metadata.
type PRMeta struct {
	Number     int
	Title      string
	Body       string
	State      string
	HeadBranch string
	HeadSHA    string
	BaseBranch string
	HTMLURL    string
}

// Issue describes a repository issue.
type Issue struct {
	Number int
	Title  string
	Body   string
	Labels []string
	State  string
}

// PROpenOptions configures a new pull request.
type PROpenOptions struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PRUpdateOptions configures an update to an existing pull request. Empty
// fields are left unchanged.
type PRUpdateOptions struct {
	Title string
	Body  string
}
