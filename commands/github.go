package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/github"
)

// DefaultFanOut bounds concurrent requests inside one GitHub command.
const DefaultFanOut = 4

// GitHub is the GitHub API surface the GitHub commands use.
type GitHub interface {
	CreatePullRequest(ctx context.Context, pr github.NewPullRequest) (*github.PullRequest, error)
	ClosePullRequest(ctx context.Context, number int) error

	CreateRelease(ctx context.Context, r github.NewRelease) (*github.Release, error)
	PublishRelease(ctx context.Context, id int64) (*github.Release, error)
	DeleteRelease(ctx context.Context, id int64) error
	UploadAsset(ctx context.Context, rel *github.Release, asset github.Asset) error

	CreateComment(ctx context.Context, issue int, body string) (*github.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

var _ GitHub = (*github.Client)(nil)

// statusError builds "<what>. Status code is <s>" for HTTP failures and a
// plain wrapped error for transport failures.
func statusError(err error, what string) error {
	if code, ok := github.StatusCode(err); ok {
		return errors.WrapWithContext(err, errors.CodeExternal,
			fmt.Sprintf("%s. Status code is %d", what, code),
			map[string]interface{}{"status": code})
	}

	return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("%s: %v", what, err))
}

// GithubPullRequestOptions configures GithubPullRequest.
type GithubPullRequestOptions struct {
	GitHub GitHub

	Title string
	Head  string
	Base  string
	Body  string

	Logger *slog.Logger
}

// GithubPullRequest opens a pull request. Undo closes it, since pull
// requests cannot be deleted.
type GithubPullRequest struct {
	command.Base

	opts   GithubPullRequestOptions
	logger *slog.Logger

	created *github.PullRequest
}

var _ command.Command = (*GithubPullRequest)(nil)

// NewGithubPullRequest creates a GithubPullRequest command.
func NewGithubPullRequest(opts GithubPullRequestOptions) *GithubPullRequest {
	return &GithubPullRequest{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GithubPullRequest) Name() string { return "GithubPullRequest" }

// Do implements command.Command.
func (c *GithubPullRequest) Do(ctx context.Context) error {
	pr, err := c.opts.GitHub.CreatePullRequest(ctx, github.NewPullRequest{
		Title: c.opts.Title,
		Head:  c.opts.Head,
		Base:  c.opts.Base,
		Body:  c.opts.Body,
	})
	if err != nil {
		return statusError(err, "Failed to create pull request")
	}
	c.created = pr

	c.logger.Info(fmt.Sprintf("Created pull request: %s (number: %d)", pr.HTMLURL, pr.Number))

	return nil
}

// Undo implements command.Command.
func (c *GithubPullRequest) Undo(ctx context.Context) error {
	if c.created == nil {
		return nil
	}

	if err := c.opts.GitHub.ClosePullRequest(ctx, c.created.Number); err != nil {
		return statusError(err, fmt.Sprintf("Failed to close pull request %s", c.created.HTMLURL))
	}

	c.logger.Info(fmt.Sprintf("Closed pull request: %s", c.created.HTMLURL))
	c.created = nil

	return nil
}

// ReleaseAsset is a file attached to a release. Name defaults to the base
// name of Path.
type ReleaseAsset struct {
	Path  string
	Name  string
	Label string
}

// GithubReleaseOptions configures GithubRelease.
type GithubReleaseOptions struct {
	GitHub GitHub

	// TagName must already exist on the remote.
	TagName string
	Name    string
	Body    string

	// Stable releases are not marked as pre-releases.
	Stable bool

	Assets []ReleaseAsset

	// FS is where asset paths are checked. Optional when there are no assets.
	FS billy.Filesystem

	// FanOut bounds concurrent asset uploads. Defaults to DefaultFanOut.
	FanOut int

	Logger *slog.Logger
}

// GithubRelease creates a GitHub release and uploads its assets. With assets
// the release is created as a draft and published once every upload
// succeeded.
type GithubRelease struct {
	command.Base

	opts   GithubReleaseOptions
	logger *slog.Logger

	created *github.Release
}

var _ command.Command = (*GithubRelease)(nil)

// NewGithubRelease creates a GithubRelease command.
func NewGithubRelease(opts GithubReleaseOptions) *GithubRelease {
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}

	return &GithubRelease{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GithubRelease) Name() string { return "GithubRelease" }

// assets drops assets whose name is already taken, keeping the first.
func (c *GithubRelease) assets() []github.Asset {
	seen := make(map[string]struct{}, len(c.opts.Assets))
	out := make([]github.Asset, 0, len(c.opts.Assets))

	for _, a := range c.opts.Assets {
		name := a.Name
		if name == "" {
			name = filepath.Base(a.Path)
		}

		if _, dup := seen[name]; dup {
			c.logger.Warn(fmt.Sprintf("An asset named '%s' already exists", name))
			c.logger.Warn("Duplicate asset will be filtered out")
			continue
		}
		seen[name] = struct{}{}

		out = append(out, github.Asset{Path: a.Path, Name: name, Label: a.Label})
	}

	return out
}

func (c *GithubRelease) checkAssets(assets []github.Asset) error {
	for _, a := range assets {
		if c.opts.FS == nil {
			return errors.New(errors.CodeInvalidConfig, "a filesystem is required to upload release assets")
		}

		info, err := c.opts.FS.Stat(a.Path)
		if err != nil && !stderrors.Is(err, os.ErrNotExist) {
			c.logger.Error(err.Error(), "path", a.Path)
		}
		if err != nil || !info.Mode().IsRegular() {
			return errors.WrapWithContext(err, errors.CodeNotFound,
				fmt.Sprintf("File '%s' does not exist or is not a file", a.Path),
				map[string]interface{}{"path": a.Path})
		}
	}

	return nil
}

// Do implements command.Command.
func (c *GithubRelease) Do(ctx context.Context) error {
	assets := c.assets()
	if err := c.checkAssets(assets); err != nil {
		return err
	}

	rel, err := c.opts.GitHub.CreateRelease(ctx, github.NewRelease{
		TagName:    c.opts.TagName,
		Name:       c.opts.Name,
		Body:       c.opts.Body,
		Draft:      len(assets) > 0,
		Prerelease: !c.opts.Stable,
	})
	if err != nil {
		return statusError(err, "Failed to create release")
	}
	c.created = rel

	if len(assets) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.FanOut)

		for _, a := range assets {
			c.logger.Info(fmt.Sprintf("Uploading asset named: %s (src: %s)", a.Name, a.Path))

			g.Go(func() error {
				began := time.Now()
				if err := c.opts.GitHub.UploadAsset(gctx, rel, a); err != nil {
					return statusError(err, fmt.Sprintf("Failed to upload asset '%s'", a.Path))
				}
				c.logger.Info(fmt.Sprintf("Asset: %s was uploaded in ~%s", a.Path, time.Since(began).Round(time.Millisecond)))

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		published, err := c.opts.GitHub.PublishRelease(ctx, rel.ID)
		if err != nil {
			return statusError(err, "Failed to take release out of draft mode")
		}
		c.created = published
	}

	c.logger.Info(fmt.Sprintf("Created release: %s (id: %d)", c.created.HTMLURL, c.created.ID))

	return nil
}

// Undo deletes the release. The tag is left to the tag command.
func (c *GithubRelease) Undo(ctx context.Context) error {
	if c.created == nil {
		return nil
	}

	if err := c.opts.GitHub.DeleteRelease(ctx, c.created.ID); err != nil {
		return statusError(err, fmt.Sprintf("Failed to delete release '%s'", c.created.HTMLURL))
	}

	c.logger.Info(fmt.Sprintf("Deleted release: %s", c.created.HTMLURL))
	c.created = nil

	return nil
}

// IssueComment is one comment to post.
type IssueComment struct {
	Issue int
	Body  string
}

// GithubIssueCommentsOptions configures GithubIssueComments.
type GithubIssueCommentsOptions struct {
	GitHub GitHub

	Comments []IssueComment

	// FanOut bounds concurrent requests. Defaults to DefaultFanOut.
	FanOut int

	Logger *slog.Logger
}

// GithubIssueComments posts comments on issues. Issues that no longer exist
// are skipped.
type GithubIssueComments struct {
	command.Base

	opts   GithubIssueCommentsOptions
	logger *slog.Logger

	mu      sync.Mutex
	created []*github.Comment
}

var _ command.Command = (*GithubIssueComments)(nil)

// NewGithubIssueComments creates a GithubIssueComments command.
func NewGithubIssueComments(opts GithubIssueCommentsOptions) *GithubIssueComments {
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}

	return &GithubIssueComments{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GithubIssueComments) Name() string { return "GithubIssueComments" }

// Do implements command.Command.
func (c *GithubIssueComments) Do(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.FanOut)

	for _, ic := range c.opts.Comments {
		g.Go(func() error {
			comment, err := c.opts.GitHub.CreateComment(gctx, ic.Issue, ic.Body)
			if github.IsNotFound(err) {
				c.logger.Info(fmt.Sprintf("Could not find issue '%d'. Comment was not created.", ic.Issue))
				return nil
			}
			if err != nil {
				return statusError(err, fmt.Sprintf("Failed to create a comment in issue '%d'", ic.Issue))
			}

			c.mu.Lock()
			c.created = append(c.created, comment)
			c.mu.Unlock()

			c.logger.Info(fmt.Sprintf("Created comment: %s (id: %d)", comment.HTMLURL, comment.ID))

			return nil
		})
	}

	return g.Wait()
}

// Undo deletes every created comment, attempting all of them.
func (c *GithubIssueComments) Undo(ctx context.Context) error {
	c.mu.Lock()
	created := c.created
	c.created = nil
	c.mu.Unlock()

	var (
		mu     sync.Mutex
		errs   []error
		failed []*github.Comment
	)

	g := new(errgroup.Group)
	g.SetLimit(c.opts.FanOut)

	for _, comment := range created {
		g.Go(func() error {
			if err := c.opts.GitHub.DeleteComment(ctx, comment.ID); err != nil {
				mu.Lock()
				errs = append(errs, statusError(err, fmt.Sprintf("Failed to delete comment '%s'", comment.HTMLURL)))
				failed = append(failed, comment)
				mu.Unlock()

				return nil
			}
			c.logger.Info(fmt.Sprintf("Deleted comment: %s", comment.HTMLURL))

			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	c.created = append(c.created, failed...)
	c.mu.Unlock()

	return stderrors.Join(errs...)
}
