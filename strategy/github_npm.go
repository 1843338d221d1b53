package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/commands"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
	"github.com/input-output-hk/catalyst-forge-libs/release/npm"
	"github.com/input-output-hk/catalyst-forge-libs/release/release"
)

// DefaultChangelogPath is the changelog location relative to the worktree.
const DefaultChangelogPath = "CHANGELOG.md"

// Git is the repository surface the GitHub npm strategy needs.
type Git interface {
	commands.Git
	GateGit
}

var _ Git = (*git.Repo)(nil)

// BranchConfig holds per release branch settings.
type BranchConfig struct {
	// StableGithubRelease marks GitHub releases from the branch as stable.
	StableGithubRelease bool

	// NpmDistTag is the registry dist tag packages are published under.
	NpmDistTag string
}

// GithubNpmPackageOptions configures a GithubNpmPackage strategy.
type GithubNpmPackageOptions struct {
	Release release.Release
	Git     Git
	GitHub  commands.GitHub
	Npm     commands.Npm

	// FS is the worktree filesystem. Paths below are relative to it.
	FS billy.Filesystem

	Remote   string
	GitActor string

	PackageDir    string
	ChangelogPath string

	// PrependChangelog writes only the next changelog on top of the file
	// instead of regenerating it from every version.
	PrependChangelog bool

	// Owner and Repo build release links in issue comments.
	Owner string
	Repo  string

	Branches map[string]BranchConfig

	NpmRegistry   string
	UndoPublish   bool
	ReleaseAssets []commands.ReleaseAsset

	// IsReleaseBranch defaults to branches present in Branches.
	IsReleaseBranch IsReleaseBranchFunc

	Logger *slog.Logger
}

// Validate checks the options.
func (o *GithubNpmPackageOptions) Validate() error {
	var missing []string
	if o.Release == nil {
		missing = append(missing, "release")
	}
	if o.Git == nil {
		missing = append(missing, "git")
	}
	if o.GitHub == nil {
		missing = append(missing, "github")
	}
	if o.Npm == nil {
		missing = append(missing, "npm")
	}
	if o.FS == nil {
		missing = append(missing, "filesystem")
	}

	if len(missing) > 0 {
		return errors.WrapWithContext(nil, errors.CodeInvalidConfig,
			fmt.Sprintf("missing strategy dependencies: %s", strings.Join(missing, ", ")),
			map[string]interface{}{"missing": missing})
	}

	return nil
}

func (o *GithubNpmPackageOptions) applyDefaults() {
	if o.Remote == "" {
		o.Remote = git.DefaultRemoteName
	}
	if o.PackageDir == "" {
		o.PackageDir = "."
	}
	if o.ChangelogPath == "" {
		o.ChangelogPath = DefaultChangelogPath
	}
	if o.IsReleaseBranch == nil {
		branches := o.Branches
		o.IsReleaseBranch = func(branch string) bool {
			_, ok := branches[branch]
			return ok
		}
	}
}

// GithubNpmPackage releases an npm package: it tags the release, commits the
// changelog and manifest on a temporary branch opened as a pull request,
// creates the GitHub release, comments on mentioned issues and publishes to
// the registry.
type GithubNpmPackage struct {
	opts   GithubNpmPackageOptions
	gate   *GitGate
	logger *slog.Logger

	branchOnce sync.Once
	branch     string
	branchErr  error
}

var _ Strategy = (*GithubNpmPackage)(nil)

// NewGithubNpmPackage creates the strategy.
func NewGithubNpmPackage(opts GithubNpmPackageOptions) (*GithubNpmPackage, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	s := &GithubNpmPackage{opts: opts}
	s.logger = componentLogger(opts.Logger, s.Name())
	s.gate = NewGitGate(opts.Git, opts.IsReleaseBranch, s.logger)

	return s, nil
}

func (s *GithubNpmPackage) Name() string { return "GithubNpmPackageStrategy" }

// ShouldRun implements Strategy.
func (s *GithubNpmPackage) ShouldRun(ctx context.Context) (bool, error) {
	return s.gate.ShouldRun(ctx)
}

func (s *GithubNpmPackage) branchName(ctx context.Context) (string, error) {
	s.branchOnce.Do(func() {
		s.branch, s.branchErr = s.opts.Git.RefName(ctx, "HEAD")
	})

	return s.branch, s.branchErr
}

func (s *GithubNpmPackage) branchConfig(ctx context.Context) (BranchConfig, error) {
	branch, err := s.branchName(ctx)
	if err != nil {
		return BranchConfig{}, err
	}

	cfg, ok := s.opts.Branches[branch]
	if !ok {
		return BranchConfig{}, errors.WrapWithContext(nil, errors.CodeInvalidConfig,
			fmt.Sprintf("Branch '%s' is missing config", branch),
			map[string]interface{}{"branch": branch})
	}
	if cfg.NpmDistTag == "" {
		return BranchConfig{}, errors.WrapWithContext(nil, errors.CodeInvalidConfig,
			"registry dist tag is missing", map[string]interface{}{"branch": branch})
	}

	return cfg, nil
}

// changelog returns the file content and write mode. An empty content means
// there is nothing to write.
func (s *GithubNpmPackage) changelog(ctx context.Context, next string) (string, commands.WriteMode, error) {
	if s.opts.PrependChangelog {
		return next, commands.ModePrepend, nil
	}

	versions, err := s.opts.Release.Versions(ctx)
	if err != nil {
		return "", "", err
	}

	parts := make([]string, len(versions)+1)
	parts[0] = next

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commands.DefaultFanOut)
	for i, v := range versions {
		g.Go(func() error {
			log, err := s.opts.Release.ChangelogByVersion(gctx, v)
			if err != nil {
				return err
			}
			parts[i+1] = log
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", err
	}

	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, "\n"), commands.ModeReplace, nil
}

func (s *GithubNpmPackage) issueComments(ctx context.Context, tag string) ([]commands.IssueComment, error) {
	issues, err := s.opts.Release.MentionedIssues(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", s.opts.Owner, s.opts.Repo, tag)
	body := fmt.Sprintf(":mailbox: &nbsp; This issue was mentioned in release [%s](%s)", tag, url)

	var comments []commands.IssueComment
	for _, issue := range issues {
		n, err := strconv.Atoi(issue)
		if err != nil {
			continue
		}
		comments = append(comments, commands.IssueComment{Issue: n, Body: body})
	}

	return comments, nil
}

// Commands implements Strategy.
func (s *GithubNpmPackage) Commands(ctx context.Context) ([]command.Command, error) {
	branch, err := s.branchName(ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := s.branchConfig(ctx)
	if err != nil {
		return nil, err
	}

	version, err := s.opts.Release.NextVersion(ctx)
	if err != nil {
		return nil, err
	}
	tag := "v" + version

	next, err := s.opts.Release.Changelog(ctx)
	if err != nil {
		return nil, err
	}

	content, mode, err := s.changelog(ctx, next)
	if err != nil {
		return nil, err
	}

	comments, err := s.issueComments(ctx, tag)
	if err != nil {
		return nil, err
	}

	o := s.opts
	manifest := path.Join(o.PackageDir, npm.ManifestName)
	// The temporary branch is named after the version being released.
	temp := version

	cmds := []command.Command{
		commands.NewGitTag(commands.GitTagOptions{Git: o.Git, Name: tag, Remote: o.Remote, Logger: s.logger}),
		commands.NewGitSwitch(commands.GitSwitchOptions{Git: o.Git, Branch: temp, Logger: s.logger}),
	}

	paths := []string{manifest}
	if content != "" {
		paths = []string{o.ChangelogPath, manifest}
		cmds = append(cmds, commands.NewFileWriter(commands.FileWriterOptions{
			FS:      o.FS,
			Path:    o.ChangelogPath,
			Content: content,
			Mode:    mode,
			Create:  true,
			Logger:  s.logger,
		}))
	}

	cmds = append(cmds,
		commands.NewNpmBump(commands.NpmBumpOptions{
			Npm:     o.Npm,
			FS:      o.FS,
			Dir:     o.PackageDir,
			Version: version,
			Logger:  s.logger,
		}),
		commands.NewGitCommit(commands.GitCommitOptions{
			Git:     o.Git,
			Actor:   o.GitActor,
			Message: fmt.Sprintf("docs(changelog): Adding version %s change log", version),
			Paths:   paths,
			Logger:  s.logger,
		}),
		commands.NewGitPush(commands.GitPushOptions{Git: o.Git, Branch: temp, Remote: o.Remote, Logger: s.logger}),
		commands.NewGitSwitch(commands.GitSwitchOptions{Git: o.Git, Branch: branch, Logger: s.logger}),
		commands.NewGithubPullRequest(commands.GithubPullRequestOptions{
			GitHub: o.GitHub,
			Title:  fmt.Sprintf("Adding files affected by version %s release", version),
			Head:   temp,
			Base:   branch,
			Logger: s.logger,
		}),
		commands.NewGithubRelease(commands.GithubReleaseOptions{
			GitHub:  o.GitHub,
			TagName: tag,
			Name:    tag,
			Body:    next,
			Stable:  cfg.StableGithubRelease,
			Assets:  o.ReleaseAssets,
			FS:      o.FS,
			Logger:  s.logger,
		}),
		commands.NewGithubIssueComments(commands.GithubIssueCommentsOptions{
			GitHub:   o.GitHub,
			Comments: comments,
			Logger:   s.logger,
		}),
		commands.NewNpmPublish(commands.NpmPublishOptions{
			Npm:         o.Npm,
			FS:          o.FS,
			Dir:         o.PackageDir,
			Tag:         cfg.NpmDistTag,
			Registry:    o.NpmRegistry,
			UndoPublish: o.UndoPublish,
			Logger:      s.logger,
		}),
	)

	return cmds, nil
}
