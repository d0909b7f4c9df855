// Package github implements hosting.Provider on top of go-github.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v82/github"

	"github.com/forgepilot/reviewloop/internal/hosting"
)

var _ hosting.Provider = (*Provider)(nil)

func init() {
	hosting.RegisterProvider(hosting.ProviderGitHub, newProvider)
}

// Provider implements hosting.Provider using the go-github library.
type Provider struct {
	client *gogithub.Client
	owner  string
	repo   string
}

func newProvider(cfg hosting.Config) (hosting.Provider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}

	httpClient := &http.Client{Transport: &bearerTransport{token: cfg.Token}}
	client := gogithub.NewClient(httpClient)

	if cfg.BaseURL != "" {
		baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
		var err error
		client.BaseURL, err = client.BaseURL.Parse(baseURL + "/api/v3/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url %q: %w", cfg.BaseURL, err)
		}
	}

	return &Provider{client: client, owner: cfg.Owner, repo: cfg.Repo}, nil
}

func (p *Provider) Name() hosting.ProviderType { return hosting.ProviderGitHub }

func (p *Provider) OwnerRepo() (string, string) { return p.owner, p.repo }

func (p *Provider) CommitDiff(ctx context.Context, commitID string) (string, error) {
	raw, _, err := p.client.Repositories.GetCommitRaw(ctx, p.owner, p.repo, commitID, gogithub.RawOptions{Type: gogithub.Diff})
	if err != nil {
		return "", classify(err, fmt.Sprintf("get commit diff %s", commitID))
	}
	return raw, nil
}

func (p *Provider) CommitMeta(ctx context.Context, commitID string) (*hosting.CommitMeta, error) {
	commit, _, err := p.client.Repositories.GetCommit(ctx, p.owner, p.repo, commitID, nil)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get commit %s", commitID))
	}

	parents := make([]string, 0, len(commit.Parents))
	for _, parent := range commit.Parents {
		parents = append(parents, parent.GetSHA())
	}

	return &hosting.CommitMeta{
		SHA:       commit.GetSHA(),
		Author:    commit.GetCommit().GetAuthor().GetName(),
		Message:   commit.GetCommit().GetMessage(),
		ParentIDs: parents,
	}, nil
}

func (p *Provider) PRDiff(ctx context.Context, number int) (string, error) {
	raw, _, err := p.client.PullRequests.GetRaw(ctx, p.owner, p.repo, number, gogithub.RawOptions{Type: gogithub.Diff})
	if err != nil {
		return "", classify(err, fmt.Sprintf("get PR %d diff", number))
	}
	return raw, nil
}

func (p *Provider) PRMeta(ctx context.Context, number int) (*hosting.PRMeta, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, number)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("get PR %d", number))
	}
	return mapPR(pr), nil
}

func (p *Provider) ListOpenPRs(ctx context.Context) ([]*hosting.PRMeta, error) {
	var result []*hosting.PRMeta
	opts := &gogithub.PullRequestListOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	for {
		prs, resp, err := p.client.PullRequests.List(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, classify(err, "list open PRs")
		}
		for _, pr := range prs {
			result = append(result, mapPR(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

func (p *Provider) ListIssues(ctx context.Context, label string) ([]*hosting.Issue, error) {
	var result []*hosting.Issue
	opts := &gogithub.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	if label != "" {
		opts.Labels = []string{label}
	}
	for {
		issues, resp, err := p.client.Issues.ListByRepo(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, classify(err, "list issues")
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			labels := make([]string, 0, len(issue.Labels))
			for _, l := range issue.Labels {
				labels = append(labels, l.GetName())
			}
			result = append(result, &hosting.Issue{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				Body:   issue.GetBody(),
				Labels: labels,
				State:  issue.GetState(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

func (p *Provider) PostIssue(ctx context.Context, title, body string) error {
	_, _, err := p.client.Issues.Create(ctx, p.owner, p.repo, &gogithub.IssueRequest{
		Title: gogithub.Ptr(title),
		Body:  gogithub.Ptr(body),
	})
	if err != nil {
		return classify(err, "create issue")
	}
	return nil
}

func (p *Provider) PostCommitComment(ctx context.Context, commitID, body string) error {
	_, _, err := p.client.Repositories.CreateComment(ctx, p.owner, p.repo, commitID, &gogithub.RepositoryComment{
		Body: gogithub.Ptr(body),
	})
	if err != nil {
		return classify(err, fmt.Sprintf("post commit comment on %s", commitID))
	}
	return nil
}

func (p *Provider) PostPRReview(ctx context.Context, number int, body string) error {
	_, _, err := p.client.PullRequests.CreateReview(ctx, p.owner, p.repo, number, &gogithub.PullRequestReviewRequest{
		Body:  gogithub.Ptr(body),
		Event: gogithub.Ptr("COMMENT"),
	})
	if err != nil {
		return classify(err, fmt.Sprintf("post review on PR %d", number))
	}
	return nil
}

func (p *Provider) PostPRIssueComment(ctx context.Context, number int, body string) error {
	_, _, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, number, &gogithub.IssueComment{
		Body: gogithub.Ptr(body),
	})
	if err != nil {
		return classify(err, fmt.Sprintf("post issue comment on PR %d", number))
	}
	return nil
}

func (p *Provider) CreateBranch(ctx context.Context, branch, baseCommitID string) error {
	ref := "refs/heads/" + branch
	_, _, err := p.client.Git.CreateRef(ctx, p.owner, p.repo, &gogithub.Reference{
		Ref:    gogithub.Ptr(ref),
		Object: &gogithub.GitObject{SHA: gogithub.Ptr(baseCommitID)},
	})
	if err != nil {
		return classify(err, fmt.Sprintf("create branch %s", branch))
	}
	return nil
}

func (p *Provider) ReadFile(ctx context.Context, path string) (string, error) {
	file, _, _, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, path, nil)
	if err != nil {
		return "", classify(err, fmt.Sprintf("read file %s", path))
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("github: decode file %s: %w", path, err)
	}
	return content, nil
}

func (p *Provider) CommitFile(ctx context.Context, branch, path, content, message string) error {
	var currentSHA *string
	existing, _, _, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, path, &gogithub.RepositoryContentGetOptions{Ref: branch})
	if err == nil && existing != nil {
		currentSHA = existing.SHA
	}

	opts := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr(message),
		Content: []byte(content),
		Branch:  gogithub.Ptr(branch),
		SHA:     currentSHA,
	}

	var commitErr error
	if currentSHA != nil {
		_, _, commitErr = p.client.Repositories.UpdateFile(ctx, p.owner, p.repo, path, opts)
	} else {
		_, _, commitErr = p.client.Repositories.CreateFile(ctx, p.owner, p.repo, path, opts)
	}
	if commitErr != nil {
		return classify(commitErr, fmt.Sprintf("commit file %s on %s", path, branch))
	}
	return nil
}

func (p *Provider) OpenPR(ctx context.Context, opts hosting.PROpenOptions) (*hosting.PRMeta, error) {
	created, _, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, &gogithub.NewPullRequest{
		Title: gogithub.Ptr(opts.Title),
		Body:  gogithub.Ptr(opts.Body),
		Head:  gogithub.Ptr(opts.Head),
		Base:  gogithub.Ptr(opts.Base),
	})
	if err != nil {
		return nil, classify(err, fmt.Sprintf("open PR %s -> %s", opts.Head, opts.Base))
	}
	return mapPR(created), nil
}

func (p *Provider) UpdatePR(ctx context.Context, number int, opts hosting.PRUpdateOptions) error {
	update := &gogithub.PullRequest{}
	if opts.Title != "" {
		update.Title = gogithub.Ptr(opts.Title)
	}
	if opts.Body != "" {
		update.Body = gogithub.Ptr(opts.Body)
	}
	_, _, err := p.client.PullRequests.Edit(ctx, p.owner, p.repo, number, update)
	if err != nil {
		return classify(err, fmt.Sprintf("update PR %d", number))
	}
	return nil
}

func (p *Provider) FindPRByHeadBranch(ctx context.Context, branch string) (*hosting.PRMeta, error) {
	prs, _, err := p.client.PullRequests.List(ctx, p.owner, p.repo, &gogithub.PullRequestListOptions{
		Head:        p.owner + ":" + branch,
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, classify(err, fmt.Sprintf("find PR by head branch %s", branch))
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return mapPR(prs[0]), nil
}

func mapPR(pr *gogithub.PullRequest) *hosting.PRMeta {
	return &hosting.PRMeta{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		State:      pr.GetState(),
		HeadBranch: pr.GetHead().GetRef(),
		HeadSHA:    pr.GetHead().GetSHA(),
		BaseBranch: pr.GetBase().GetRef(),
		HTMLURL:    pr.GetHTMLURL(),
	}
}

// classify maps a go-github error into hosting's typed error taxonomy, the
// way the orchestrator and task workers expect to inspect failures.
func classify(err error, action string) error {
	if err == nil {
		return nil
	}

	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return &hosting.Error{Category: hosting.CategoryRateLimited, Message: action, Cause: err}
	}

	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &hosting.Error{Category: hosting.CategoryAuth, Message: action, Cause: err}
		case http.StatusNotFound:
			return &hosting.Error{Category: hosting.CategoryNotFound, Message: action, Cause: err}
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return &hosting.Error{Category: hosting.CategoryConflict, Message: action, Cause: err}
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &hosting.Error{Category: hosting.CategoryTransient, Message: action, Cause: err}
		}
	}

	return &hosting.Error{Category: hosting.CategoryOther, Message: action, Cause: err}
}
