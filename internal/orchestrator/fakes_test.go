package orchestrator

import (
	"context"
	"sync"

	"github.com/forgepilot/reviewloop/internal/hosting"
)

// fakeProvider is a minimal in-memory hosting.Provider for orchestrator tests.
// FindPRByHeadBranch mirrors the real providers: a branch with no open PR
// returns (nil, nil), not an error.
type fakeProvider struct {
	mu sync.Mutex

	files          map[string]string
	branches       map[string]string // branch -> base commit
	prsByBranch    map[string]*hosting.PRMeta
	nextPRNumber   int
	commitComments []string
	prReviews      []string
	issuesPosted   []string
}

var _ hosting.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		files:        make(map[string]string),
		branches:     make(map[string]string),
		prsByBranch:  make(map[string]*hosting.PRMeta),
		nextPRNumber: 100,
	}
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
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issuesPosted = append(f.issuesPosted, title)
	return nil
}

func (f *fakeProvider) PostCommitComment(ctx context.Context, commitID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitComments = append(f.commitComments, body)
	return nil
}

func (f *fakeProvider) PostPRReview(ctx context.Context, number int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prReviews = append(f.prReviews, body)
	return nil
}

func (f *fakeProvider) PostPRIssueComment(ctx context.Context, number int, body string) error {
	return nil
}

func (f *fakeProvider) ReadFile(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path]
	if !ok {
		return "", &hosting.Error{Category: hosting.CategoryNotFound, Message: "not found"}
	}
	return content, nil
}

func (f *fakeProvider) CreateBranch(ctx context.Context, branch, baseCommitID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.branches[branch]; exists {
		return &hosting.Error{Category: hosting.CategoryConflict, Message: "branch exists"}
	}
	f.branches[branch] = baseCommitID
	return nil
}

func (f *fakeProvider) CommitFile(ctx context.Context, branch, path, content, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
	return nil
}

func (f *fakeProvider) OpenPR(ctx context.Context, opts hosting.PROpenOptions) (*hosting.PRMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPRNumber++
	pr := &hosting.PRMeta{Number: f.nextPRNumber, Title: opts.Title, Body: opts.Body, HeadBranch: opts.Head, BaseBranch: opts.Base, State: "open"}
	f.prsByBranch[opts.Head] = pr
	return pr, nil
}

func (f *fakeProvider) UpdatePR(ctx context.Context, number int, opts hosting.PRUpdateOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pr := range f.prsByBranch {
		if pr.Number == number {
			if opts.Title != "" {
				pr.Title = opts.Title
			}
			if opts.Body != "" {
				pr.Body = opts.Body
			}
		}
	}
	return nil
}

func (f *fakeProvider) FindPRByHeadBranch(ctx context.Context, branch string) (*hosting.PRMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prsByBranch[branch], nil
}

// fakeLLMClient is a minimal llmgateway.ProviderClient for orchestrator tests.
type fakeLLMClient struct {
	response string
}

func (c *fakeLLMClient) Generate(ctx context.Context, prompt, model string) (string, int, int, error) {
	return c.response, 10, 5, nil
}
