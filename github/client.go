// Package github is a thin adapter over go-github for the REST endpoints a
// release touches: pull requests, releases and their assets, and issue
// comments. Failed calls that received a response return a *StatusError so
// callers can report the status code.
package github

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gh "github.com/google/go-github/v74/github"
)

// Options configures a Client.
type Options struct {
	// Owner and Repo identify the repository all calls target.
	Owner string
	Repo  string

	// Token authenticates requests. Optional for read-only use.
	Token string

	// BaseURL and UploadURL point the client at a GitHub Enterprise server.
	// Both must be set together.
	BaseURL   string
	UploadURL string

	// HTTPClient is the underlying transport. Defaults to a new http.Client.
	HTTPClient *http.Client

	// FS is where release assets are read from. Defaults to the OS filesystem
	// rooted at the working directory.
	FS billy.Filesystem

	Logger *slog.Logger
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.Owner == "" || o.Repo == "" {
		return ErrMissingRepository
	}
	if (o.BaseURL == "") != (o.UploadURL == "") {
		return fmt.Errorf("base and upload URLs must be set together")
	}

	return nil
}

func (o *Options) applyDefaults() {
	if o.FS == nil {
		o.FS = osfs.New(".")
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Client talks to one GitHub repository.
type Client struct {
	gh     *gh.Client
	owner  string
	repo   string
	fs     billy.Filesystem
	logger *slog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	c := gh.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		c = c.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		var err error
		c, err = c.WithEnterpriseURLs(opts.BaseURL, opts.UploadURL)
		if err != nil {
			return nil, fmt.Errorf("invalid enterprise URLs: %w", err)
		}
	}

	return &Client{
		gh:     c,
		owner:  opts.Owner,
		repo:   opts.Repo,
		fs:     opts.FS,
		logger: opts.Logger,
	}, nil
}

// Owner returns the repository owner.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name.
func (c *Client) Repo() string { return c.repo }

// PullRequest is a created pull request.
type PullRequest struct {
	Number  int
	HTMLURL string
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title string
	Head  string
	Base  string
	Body  string
}

// CreatePullRequest opens a pull request.
func (c *Client) CreatePullRequest(ctx context.Context, pr NewPullRequest) (*PullRequest, error) {
	in := &gh.NewPullRequest{
		Title: gh.Ptr(pr.Title),
		Head:  gh.Ptr(pr.Head),
		Base:  gh.Ptr(pr.Base),
	}
	if pr.Body != "" {
		in.Body = gh.Ptr(pr.Body)
	}

	out, resp, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, in)
	if err != nil {
		return nil, wrap(resp, err)
	}

	return &PullRequest{Number: out.GetNumber(), HTMLURL: out.GetHTMLURL()}, nil
}

// ClosePullRequest sets a pull request's state to closed.
func (c *Client) ClosePullRequest(ctx context.Context, number int) error {
	_, resp, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, &gh.PullRequest{State: gh.Ptr("closed")})
	return wrap(resp, err)
}

// Release is a created GitHub release.
type Release struct {
	ID        int64
	HTMLURL   string
	UploadURL string
}

// NewRelease describes a release to create.
type NewRelease struct {
	TagName    string
	Name       string
	Body       string
	Draft      bool
	Prerelease bool
}

// CreateRelease creates a release for an existing tag.
func (c *Client) CreateRelease(ctx context.Context, r NewRelease) (*Release, error) {
	out, resp, err := c.gh.Repositories.CreateRelease(ctx, c.owner, c.repo, &gh.RepositoryRelease{
		TagName:    gh.Ptr(r.TagName),
		Name:       gh.Ptr(r.Name),
		Body:       gh.Ptr(r.Body),
		Draft:      gh.Ptr(r.Draft),
		Prerelease: gh.Ptr(r.Prerelease),
	})
	if err != nil {
		return nil, wrap(resp, err)
	}

	return toRelease(out), nil
}

// PublishRelease takes a release out of draft mode.
func (c *Client) PublishRelease(ctx context.Context, id int64) (*Release, error) {
	out, resp, err := c.gh.Repositories.EditRelease(ctx, c.owner, c.repo, id, &gh.RepositoryRelease{
		Draft: gh.Ptr(false),
	})
	if err != nil {
		return nil, wrap(resp, err)
	}

	return toRelease(out), nil
}

// DeleteRelease deletes a release. The tag is left in place.
func (c *Client) DeleteRelease(ctx context.Context, id int64) error {
	resp, err := c.gh.Repositories.DeleteRelease(ctx, c.owner, c.repo, id)
	return wrap(resp, err)
}

func toRelease(r *gh.RepositoryRelease) *Release {
	return &Release{ID: r.GetID(), HTMLURL: r.GetHTMLURL(), UploadURL: r.GetUploadURL()}
}

// Asset is a file to attach to a release.
type Asset struct {
	Path  string
	Name  string
	Label string
}

// UploadAsset reads the asset from the client's filesystem and attaches it to
// the release. The content type is sniffed from the file content.
func (c *Client) UploadAsset(ctx context.Context, rel *Release, asset Asset) error {
	data, err := util.ReadFile(c.fs, asset.Path)
	if err != nil {
		return fmt.Errorf("failed to read asset %s: %w", asset.Path, err)
	}

	query := url.Values{}
	query.Set("name", asset.Name)
	if asset.Label != "" {
		query.Set("label", asset.Label)
	}

	target := c.uploadURL(rel) + "?" + query.Encode()
	mediaType := mimetype.Detect(data).String()

	req, err := c.gh.NewUploadRequest(target, bytes.NewReader(data), int64(len(data)), mediaType)
	if err != nil {
		return fmt.Errorf("failed to build upload request for %s: %w", asset.Path, err)
	}

	c.logger.Debug("uploading release asset", "path", asset.Path, "name", asset.Name, "type", mediaType)

	out := new(gh.ReleaseAsset)
	resp, err := c.gh.Do(ctx, req, out)

	return wrap(resp, err)
}

// uploadURL strips the hypermedia template from the release's upload_url,
// falling back to the conventional path.
func (c *Client) uploadURL(rel *Release) string {
	if rel.UploadURL != "" {
		if i := strings.Index(rel.UploadURL, "{"); i >= 0 {
			return rel.UploadURL[:i]
		}
		return rel.UploadURL
	}

	return fmt.Sprintf("repos/%s/%s/releases/%d/assets", c.owner, c.repo, rel.ID)
}

// Comment is a created issue comment.
type Comment struct {
	ID      int64
	HTMLURL string
}

// CreateComment posts a comment on an issue or pull request.
func (c *Client) CreateComment(ctx context.Context, issue int, body string) (*Comment, error) {
	out, resp, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, issue, &gh.IssueComment{Body: gh.Ptr(body)})
	if err != nil {
		return nil, wrap(resp, err)
	}

	return &Comment{ID: out.GetID(), HTMLURL: out.GetHTMLURL()}, nil
}

// DeleteComment removes an issue comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	resp, err := c.gh.Issues.DeleteComment(ctx, c.owner, c.repo, id)
	return wrap(resp, err)
}
