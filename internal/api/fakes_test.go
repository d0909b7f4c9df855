package api

import (
	"context"
	"sync"

	"github.com/forgepilot/reviewloop/internal/hosting"
)

// fakeProvider is a minimal in-memory hosting.Provider for exercising the
// HTTP surface without a real repository host.
type fakeProvider struct {
	mu           sync.Mutex
	files        map[string]string
	branches     map[string]string
	prsByBranch  map[string]*hosting.PRMeta
	nextPRNumber int
	commitDiffs  map[string]string
	prDiffs      map[int]string
}

var _ hosting.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		files:        map[string]string{"README.md": "# Widgets\n", "spec.md": "# Spec\n"},
		branches:     map[string]string{},
		prsByBranch:  map[string]*hosting.PRMeta{},
		nextPRNumber: 1,
		commitDiffs:  map[string]string{},
		prDiffs:      map[int]string{},
	}
}

func (p *fakeProvider) Name() hosting.ProviderType  { return hosting.ProviderGitHub }
func (p *fakeProvider) OwnerRepo() (string, string) { return "acme", "widgets" }

func (p *fakeProvider) CommitDiff(ctx context.Context, commitID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commitDiffs[commitID], nil
}

func (p *fakeProvider) CommitMeta(ctx context.Context, commitID string) (*hosting.CommitMeta, error) {
	return &hosting.CommitMeta{SHA: commitID}, nil
}

func (p *fakeProvider) PRDiff(ctx context.Context, number int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prDiffs[number], nil
}

func (p *fakeProvider) PRMeta(ctx context.Context, number int) (*hosting.PRMeta, error) {
	return &hosting.PRMeta{Number: number}, nil
}

func (p *fakeProvider) ListOpenPRs(ctx context.Context) ([]*hosting.PRMeta, error) { return nil, nil }
func (p *fakeProvider) ListIssues(ctx context.Context, label string) ([]*hosting.Issue, error) {
	return nil, nil
}
func (p *fakeProvider) PostIssue(ctx context.Context, title, body string) error { return nil }

func (p *fakeProvider) PostCommitComment(ctx context.Context, commitID, body string) error {
	return nil
}
func (p *fakeProvider) PostPRReview(ctx context.Context, number int, body string) error { return nil }
func (p *fakeProvider) PostPRIssueComment(ctx context.Context, number int, body string) error {
	return nil
}

func (p *fakeProvider) ReadFile(ctx context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	content, ok := p.files[path]
	if !ok {
		return "", &hosting.Error{Category: hosting.CategoryNotFound, Message: "not found"}
	}
	return content, nil
}

func (p *fakeProvider) CreateBranch(ctx context.Context, branch, baseCommitID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.branches[branch]; exists {
		return &hosting.Error{Category: hosting.CategoryConflict, Message: "branch exists"}
	}
	p.branches[branch] = baseCommitID
	return nil
}

func (p *fakeProvider) CommitFile(ctx context.Context, branch, path, content, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[path] = content
	return nil
}

func (p *fakeProvider) OpenPR(ctx context.Context, opts hosting.PROpenOptions) (*hosting.PRMeta, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	meta := &hosting.PRMeta{Number: p.nextPRNumber, Title: opts.Title, Body: opts.Body, HeadBranch: opts.Head}
	p.nextPRNumber++
	p.prsByBranch[opts.Head] = meta
	return meta, nil
}

func (p *fakeProvider) UpdatePR(ctx context.Context, number int, opts hosting.PRUpdateOptions) error {
	return nil
}

func (p *fakeProvider) FindPRByHeadBranch(ctx context.Context, branch string) (*hosting.PRMeta, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prsByBranch[branch], nil
}

func (p *fakeProvider) setCommitDiff(commitID, diff string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commitDiffs[commitID] = diff
}

type fakeLLMClient struct{ response string }

func (c *fakeLLMClient) Generate(ctx context.Context, prompt, model string) (string, int, int, error) {
	return c.response, 10, 5, nil
}
