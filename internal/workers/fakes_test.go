package workers

import (
	"context"

	"github.com/forgepilot/reviewloop/internal/hosting"
)

// fakeProvider is a minimal in-memory hosting.Provider for worker tests.
type fakeProvider struct {
	files map[string]string

	commitComments []string
	prReviews      []string
	issuesPosted   []string

	postCommitCommentErr error
	readFileErr          error
}

var _ hosting.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{files: make(map[string]string)}
}

func (f *fakeProvider) Name() hosting.ProviderType  { return hosting.ProviderGitHub }
func (f *fakeProvider) OwnerRepo() (string, string) { return "acme", "widgets" }

func (f *fakeProvider) CommitDiff(ctx context.Context, commitID string) (string, error) {
	return "", nil
}
func (f *fakeProvider) CommitMeta(ctx context.Context, commitID string) (*hosting.CommitMeta, error) {
	return &hosting.CommitMeta{SHA: commitID}, nil
}
func (f *fakeProvider) PRDiff(ctx context.Context, number int) (string, error) { return "", nil }
func (f *fakeProvider) PRMeta(ctx context.Context, number int) (*hosting.PRMeta, error) {
	return &hosting.PRMeta{Number: number}, nil
}
func (f *fakeProvider) ListOpenPRs(ctx context.Context) ([]*hosting.PRMeta, error) { return nil, nil }
func (f *fakeProvider) ListIssues(ctx context.Context, label string) ([]*hosting.Issue, error) {
	return nil, nil
}

func (f *fakeProvider) PostIssue(ctx context.Context, title, body string) error {
	f.issuesPosted = append(f.issuesPosted, title)
	return nil
}

func (f *fakeProvider) PostCommitComment(ctx context.Context, commitID, body string) error {
	if f.postCommitCommentErr != nil {
		return f.postCommitCommentErr
	}
	f.commitComments = append(f.commitComments, body)
	return nil
}

func (f *fakeProvider) PostPRReview(ctx context.Context, number int, body string) error {
	f.prReviews = append(f.prReviews, body)
	return nil
}

func (f *fakeProvider) PostPRIssueComment(ctx context.Context, number int, body string) error {
	return nil
}

func (f *fakeProvider) ReadFile(ctx context.Context, path string) (string, error) {
	if f.readFileErr != nil {
		return "", f.readFileErr
	}
	content, ok := f.files[path]
	if !ok {
		return "", &hosting.Error{Category: hosting.CategoryNotFound, Message: "not found"}
	}
	return content, nil
}

func (f *fakeProvider) CreateBranch(ctx context.Context, branch, baseCommitID string) error {
	return nil
}
func (f *fakeProvider) CommitFile(ctx context.Context, branch, path, content, message string) error {
	f.files[path] = content
	return nil
}
func (f *fakeProvider) OpenPR(ctx context.Context, opts hosting.PROpenOptions) (*hosting.PRMeta, error) {
	return &hosting.PRMeta{Number: 1}, nil
}
func (f *fakeProvider) UpdatePR(ctx context.Context, number int, opts hosting.PRUpdateOptions) error {
	return nil
}
func (f *fakeProvider) FindPRByHeadBranch(ctx context.Context, branch string) (*hosting.PRMeta, error) {
	return nil, &hosting.Error{Category: hosting.CategoryNotFound, Message: "not found"}
}

// fakeLLMClient is a minimal llmgateway.ProviderClient for worker tests.
type fakeLLMClient struct {
	response string
}

func (c *fakeLLMClient) Generate(ctx context.Context, prompt, model string) (string, int, int, error) {
	return c.response, 10, 5, nil
}
