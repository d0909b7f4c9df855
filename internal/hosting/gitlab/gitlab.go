// Package gitlab implements hosting.Provider on top of go-gitlab.
package gitlab

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gogitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/forgepilot/reviewloop/internal/hosting"
)

var _ hosting.Provider = (*Provider)(nil)

func init() {
	hosting.RegisterProvider(hosting.ProviderGitLab, newProvider)
}

// Provider implements hosting.Provider using the go-gitlab library.
type Provider struct {
	client    *gogitlab.Client
	projectID string // plain "owner/repo" path used as project identifier
	owner     string
	repo      string
}

func newProvider(cfg hosting.Config) (hosting.Provider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab: token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("gitlab: owner and repo are required")
	}

	var client *gogitlab.Client
	var err error
	if cfg.BaseURL != "" {
		baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
		client, err = gogitlab.NewClient(cfg.Token, gogitlab.WithBaseURL(baseURL+"/api/v4"))
	} else {
		client, err = gogitlab.NewClient(cfg.Token)
	}
	if err != nil {
		return nil, fmt.Errorf("gitlab: create client: %w", err)
	}

	return &Provider{
		client:    client,
		projectID: cfg.Owner + "/" + cfg.Repo,
		owner:     cfg.Owner,
		repo:      cfg.Repo,
	}, nil
}

func (g *Provider) Name() hosting.ProviderType { return hosting.ProviderGitLab }

func (g *Provider) OwnerRepo() (string, string) { return g.owner, g.repo }

func (g *Provider) CommitDiff(ctx context.Context, commitID string) (string, error) {
	diffs, resp, err := g.client.Commits.GetCommitDiff(g.projectID, commitID, &gogitlab.GetCommitDiffOptions{}, gogitlab.WithContext(ctx))
	if err != nil {
		return "", classify(resp, err, fmt.Sprintf("get commit diff %s", commitID))
	}
	return joinDiffs(diffs), nil
}

func (g *Provider) CommitMeta(ctx context.Context, commitID string) (*hosting.CommitMeta, error) {
	commit, resp, err := g.client.Commits.GetCommit(g.projectID, commitID, nil, gogitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(resp, err, fmt.Sprintf("get commit %s", commitID))
	}
	return &hosting.CommitMeta{
		SHA:       commit.ID,
		Author:    commit.AuthorName,
		Message:   commit.Message,
		ParentIDs: commit.ParentIDs,
	}, nil
}

func (g *Provider) PRDiff(ctx context.Context, number int) (string, error) {
	mr, resp, err := g.client.MergeRequests.GetMergeRequestChanges(g.projectID, int64(number), nil, gogitlab.WithContext(ctx))
	if err != nil {
		return "", classify(resp, err, fmt.Sprintf("get MR %d changes", number))
	}
	return joinMRDiffs(mr.Changes), nil
}

func (g *Provider) PRMeta(ctx context.Context, number int) (*hosting.PRMeta, error) {
	mr, resp, err := g.client.MergeRequests.GetMergeRequest(g.projectID, int64(number), nil, gogitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(resp, err, fmt.Sprintf("get MR %d", number))
	}
	return mapMR(mr), nil
}

func (g *Provider) ListOpenPRs(ctx context.Context) ([]*hosting.PRMeta, error) {
	var result []*hosting.PRMeta
	opts := &gogitlab.ListProjectMergeRequestsOptions{
		State:       gogitlab.Ptr("opened"),
		ListOptions: gogitlab.ListOptions{PerPage: 100},
	}
	for {
		mrs, resp, err := g.client.MergeRequests.ListProjectMergeRequests(g.projectID, opts, gogitlab.WithContext(ctx))
		if err != nil {
			return nil, classify(resp, err, "list open MRs")
		}
		for _, mr := range mrs {
			result = append(result, mapBasicMR(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

func (g *Provider) ListIssues(ctx context.Context, label string) ([]*hosting.Issue, error) {
	var result []*hosting.Issue
	opts := &gogitlab.ListProjectIssuesOptions{
		State:       gogitlab.Ptr("opened"),
		ListOptions: gogitlab.ListOptions{PerPage: 100},
	}
	if label != "" {
		opts.Labels = (*gogitlab.LabelOptions)(&[]string{label})
	}
	for {
		issues, resp, err := g.client.Issues.ListProjectIssues(g.projectID, opts, gogitlab.WithContext(ctx))
		if err != nil {
			return nil, classify(resp, err, "list issues")
		}
		for _, issue := range issues {
			result = append(result, &hosting.Issue{
				Number: issue.IID,
				Title:  issue.Title,
				Body:   issue.Description,
				Labels: []string(issue.Labels),
				State:  issue.State,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

func (g *Provider) PostIssue(ctx context.Context, title, body string) error {
	_, resp, err := g.client.Issues.CreateIssue(g.projectID, &gogitlab.CreateIssueOptions{
		Title:       gogitlab.Ptr(title),
		Description: gogitlab.Ptr(body),
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return classify(resp, err, "create issue")
	}
	return nil
}

func (g *Provider) PostCommitComment(ctx context.Context, commitID, body string) error {
	_, resp, err := g.client.Commits.PostCommitComment(g.projectID, commitID, &gogitlab.PostCommitCommentOptions{
		Note: gogitlab.Ptr(body),
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return classify(resp, err, fmt.Sprintf("post commit comment on %s", commitID))
	}
	return nil
}

// PostPRReview posts a discussion thread on the merge request, the closest
// GitLab analog to a GitHub pull request review body.
func (g *Provider) PostPRReview(ctx context.Context, number int, body string) error {
	_, resp, err := g.client.Discussions.CreateMergeRequestDiscussion(g.projectID, int64(number), &gogitlab.CreateMergeRequestDiscussionOptions{
		Body: gogitlab.Ptr(body),
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return classify(resp, err, fmt.Sprintf("post review discussion on MR %d", number))
	}
	return nil
}

func (g *Provider) PostPRIssueComment(ctx context.Context, number int, body string) error {
	_, resp, err := g.client.Notes.CreateMergeRequestNote(g.projectID, int64(number), &gogitlab.CreateMergeRequestNoteOptions{
		Body: gogitlab.Ptr(body),
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return classify(resp, err, fmt.Sprintf("post comment on MR %d", number))
	}
	return nil
}

func (g *Provider) CreateBranch(ctx context.Context, branch, baseCommitID string) error {
	_, resp, err := g.client.Branches.CreateBranch(g.projectID, &gogitlab.CreateBranchOptions{
		Branch: gogitlab.Ptr(branch),
		Ref:    gogitlab.Ptr(baseCommitID),
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return classify(resp, err, fmt.Sprintf("create branch %s", branch))
	}
	return nil
}

func (g *Provider) ReadFile(ctx context.Context, path string) (string, error) {
	file, resp, err := g.client.RepositoryFiles.GetFile(g.projectID, path, &gogitlab.GetFileOptions{}, gogitlab.WithContext(ctx))
	if err != nil {
		return "", classify(resp, err, fmt.Sprintf("read file %s", path))
	}
	decoded, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return "", fmt.Errorf("gitlab: decode file %s: %w", path, err)
	}
	return string(decoded), nil
}

func (g *Provider) CommitFile(ctx context.Context, branch, path, content, message string) error {
	_, resp, err := g.client.RepositoryFiles.GetFile(g.projectID, path, &gogitlab.GetFileOptions{Ref: gogitlab.Ptr(branch)}, gogitlab.WithContext(ctx))
	exists := err == nil

	var commitErr error
	var commitResp *gogitlab.Response
	if exists {
		_, commitResp, commitErr = g.client.RepositoryFiles.UpdateFile(g.projectID, path, &gogitlab.UpdateFileOptions{
			Branch:        gogitlab.Ptr(branch),
			Content:       gogitlab.Ptr(content),
			CommitMessage: gogitlab.Ptr(message),
		}, gogitlab.WithContext(ctx))
	} else {
		_, commitResp, commitErr = g.client.RepositoryFiles.CreateFile(g.projectID, path, &gogitlab.CreateFileOptions{
			Branch:        gogitlab.Ptr(branch),
			Content:       gogitlab.Ptr(content),
			CommitMessage: gogitlab.Ptr(message),
		}, gogitlab.WithContext(ctx))
	}
	if commitErr != nil {
		return classify(commitResp, commitErr, fmt.Sprintf("commit file %s on %s", path, branch))
	}
	return nil
}

func (g *Provider) OpenPR(ctx context.Context, opts hosting.PROpenOptions) (*hosting.PRMeta, error) {
	mr, resp, err := g.client.MergeRequests.CreateMergeRequest(g.projectID, &gogitlab.CreateMergeRequestOptions{
		Title:        gogitlab.Ptr(opts.Title),
		Description:  gogitlab.Ptr(opts.Body),
		SourceBranch: gogitlab.Ptr(opts.Head),
		TargetBranch: gogitlab.Ptr(opts.Base),
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(resp, err, fmt.Sprintf("open MR %s -> %s", opts.Head, opts.Base))
	}
	return mapMR(mr), nil
}

func (g *Provider) UpdatePR(ctx context.Context, number int, opts hosting.PRUpdateOptions) error {
	update := &gogitlab.UpdateMergeRequestOptions{}
	if opts.Title != "" {
		update.Title = gogitlab.Ptr(opts.Title)
	}
	if opts.Body != "" {
		update.Description = gogitlab.Ptr(opts.Body)
	}
	_, resp, err := g.client.MergeRequests.UpdateMergeRequest(g.projectID, int64(number), update, gogitlab.WithContext(ctx))
	if err != nil {
		return classify(resp, err, fmt.Sprintf("update MR %d", number))
	}
	return nil
}

func (g *Provider) FindPRByHeadBranch(ctx context.Context, branch string) (*hosting.PRMeta, error) {
	mrs, resp, err := g.client.MergeRequests.ListProjectMergeRequests(g.projectID, &gogitlab.ListProjectMergeRequestsOptions{
		SourceBranch: gogitlab.Ptr(branch),
		State:        gogitlab.Ptr("opened"),
		ListOptions:  gogitlab.ListOptions{PerPage: 1},
	}, gogitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(resp, err, fmt.Sprintf("find MR by branch %s", branch))
	}
	if len(mrs) == 0 {
		return nil, nil
	}
	return mapBasicMR(mrs[0]), nil
}

// joinDiffs stitches per-file commit diffs into a single unified-diff-shaped
// text, since go-gitlab returns commit diffs as structured per-file entries
// rather than one raw diff blob the way GitHub's raw media type does.
func joinDiffs(diffs []*gogitlab.Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n%s\n", d.OldPath, d.NewPath, d.Diff)
	}
	return b.String()
}

func joinMRDiffs(changes []*gogitlab.MergeRequestDiff) string {
	var b strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n%s\n", c.OldPath, c.NewPath, c.Diff)
	}
	return b.String()
}

func mapMR(mr *gogitlab.MergeRequest) *hosting.PRMeta {
	state := mr.State
	if state == "opened" {
		state = "open"
	}
	return &hosting.PRMeta{
		Number:     int(mr.IID),
		Title:      mr.Title,
		Body:       mr.Description,
		State:      state,
		HeadBranch: mr.SourceBranch,
		HeadSHA:    mr.SHA,
		BaseBranch: mr.TargetBranch,
		HTMLURL:    mr.WebURL,
	}
}

func mapBasicMR(mr *gogitlab.BasicMergeRequest) *hosting.PRMeta {
	state := mr.State
	if state == "opened" {
		state = "open"
	}
	return &hosting.PRMeta{
		Number:     int(mr.IID),
		Title:      mr.Title,
		Body:       mr.Description,
		State:      state,
		HeadBranch: mr.SourceBranch,
		BaseBranch: mr.TargetBranch,
		HTMLURL:    mr.WebURL,
	}
}

// classify maps a go-gitlab error into hosting's typed error taxonomy. Unlike
// go-github, go-gitlab doesn't expose a typed rate-limit error, so the HTTP
// status on the accompanying response is the only signal available.
func classify(resp *gogitlab.Response, err error, action string) error {
	if err == nil {
		return nil
	}
	if resp == nil || resp.Response == nil {
		return &hosting.Error{Category: hosting.CategoryOther, Message: action, Cause: err}
	}

	switch resp.Response.StatusCode {
	case 401, 403:
		return &hosting.Error{Category: hosting.CategoryAuth, Message: action, Cause: err}
	case 404:
		return &hosting.Error{Category: hosting.CategoryNotFound, Message: action, Cause: err}
	case 409, 422:
		return &hosting.Error{Category: hosting.CategoryConflict, Message: action, Cause: err}
	case 429, 502, 503, 504:
		return &hosting.Error{Category: hosting.CategoryTransient, Message: action, Cause: err}
	default:
		return &hosting.Error{Category: hosting.CategoryOther, Message: action, Cause: err}
	}
}
