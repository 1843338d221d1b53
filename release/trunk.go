package release

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/release/changelog"
	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
)

const (
	shortHashLength = git.ShortHashLength

	// DefaultConcurrency bounds per-commit lookups.
	DefaultConcurrency = 8
)

// TrunkOptions configures a Trunk engine.
type TrunkOptions struct {
	// Git is required.
	Git Git

	// RawCommits lists commits for a range. Defaults to Git.Commits.
	RawCommits RawCommitsFunc

	// ChangelogCommitFilter selects the commits shown in changelogs. Defaults
	// to keeping every commit.
	ChangelogCommitFilter CommitFilter

	Parser conventional.Parser
	Writer changelog.Writer

	// ChangelogContext is required to render non-empty changelogs.
	ChangelogContext *changelog.Context

	// Concurrency bounds the per-commit lookups of ChangelogByVersion.
	Concurrency int

	Logger *slog.Logger
}

// Validate checks the options that cannot be defaulted.
func (o *TrunkOptions) Validate() error {
	if o.Git == nil {
		return errors.New(errors.CodeInvalidConfig, "git client is required")
	}
	if o.Concurrency < 0 {
		return errors.New(errors.CodeInvalidConfig, "concurrency cannot be negative")
	}

	return nil
}

func (o *TrunkOptions) applyDefaults() {
	if o.RawCommits == nil {
		o.RawCommits = GitRawCommits(o.Git)
	}
	if o.ChangelogCommitFilter == nil {
		o.ChangelogCommitFilter = func(conventional.Commit) (bool, error) { return true, nil }
	}
	if o.Parser == nil {
		o.Parser = conventional.NewParser()
	}
	if o.Writer == nil {
		o.Writer = changelog.NewMarkdownWriter()
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
}

// Trunk versions every commit by its short hash. There is no branch or tag
// logic and no already released guard.
type Trunk struct {
	opts   TrunkOptions
	logger *slog.Logger
	memo   *memo
	head   string
}

var _ Release = (*Trunk)(nil)

// NewTrunk resolves HEAD once and creates a Trunk engine.
func NewTrunk(ctx context.Context, opts TrunkOptions) (*Trunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	head, err := opts.Git.RefHash(ctx, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return &Trunk{
		opts:   opts,
		logger: componentLogger(opts.Logger, "GitTrunkRelease"),
		memo:   newMemo(),
		head:   head,
	}, nil
}

func short(hash string) string {
	if len(hash) > shortHashLength {
		return hash[:shortHashLength]
	}

	return hash
}

func (t *Trunk) filter(commits []conventional.Commit) ([]conventional.Commit, error) {
	out := make([]conventional.Commit, 0, len(commits))
	for _, c := range commits {
		ok, err := t.opts.ChangelogCommitFilter(c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}

	return out, nil
}

// commits returns HEAD's commit after filtering.
func (t *Trunk) commits(ctx context.Context) ([]conventional.Commit, error) {
	return memoize(t.memo, keyCommits, func() ([]conventional.Commit, error) {
		raws, err := t.opts.RawCommits(ctx, "-1")
		if err != nil {
			return nil, fmt.Errorf("failed to list commits: %w", err)
		}

		parsed, err := parseAll(t.opts.Parser, raws)
		if err != nil {
			return nil, err
		}

		return t.filter(parsed)
	})
}

func (t *Trunk) history(ctx context.Context) ([]git.Commit, error) {
	commits, err := t.opts.Git.Commits(ctx, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	if len(commits) > 0 {
		commits = commits[1:]
	}

	return commits, nil
}

// versionsCommits maps every commit but HEAD to its own filtered commit.
func (t *Trunk) versionsCommits(ctx context.Context) (map[string][]conventional.Commit, error) {
	return memoize(t.memo, keyVersionsCommits, func() (map[string][]conventional.Commit, error) {
		history, err := t.history(ctx)
		if err != nil {
			return nil, err
		}

		var mu sync.Mutex
		out := make(map[string][]conventional.Commit, len(history))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(t.opts.Concurrency)

		for _, c := range history {
			g.Go(func() error {
				raws, err := t.opts.RawCommits(gctx, c.Hash+" -1")
				if err != nil {
					return fmt.Errorf("failed to read commit %s: %w", c.Hash, err)
				}

				parsed, err := parseAll(t.opts.Parser, raws[:min(len(raws), 1)])
				if err != nil {
					return err
				}

				kept, err := t.filter(parsed)
				if err != nil {
					return err
				}

				mu.Lock()
				out[short(c.Hash)] = kept
				mu.Unlock()

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		return out, nil
	})
}

func (t *Trunk) render(version string, commits []conventional.Commit) (string, error) {
	if len(commits) == 0 {
		return "", nil
	}
	if t.opts.ChangelogContext == nil {
		return "", errors.New(errors.CodeInvalidConfig, "conventional changelog writer context is missing")
	}

	return t.opts.Writer.Render(t.opts.ChangelogContext.WithVersion(version), commits)
}

// Versions returns the short hashes of every commit but HEAD, newest first.
func (t *Trunk) Versions(ctx context.Context) ([]string, error) {
	return memoize(t.memo, keyVersions, func() ([]string, error) {
		history, err := t.history(ctx)
		if err != nil {
			return nil, err
		}

		versions := make([]string, 0, len(history))
		for _, c := range history {
			versions = append(versions, short(c.Hash))
		}

		return versions, nil
	})
}

// PreviousVersion returns the parent's short hash, or HEAD's on a single
// commit history.
func (t *Trunk) PreviousVersion(ctx context.Context) (string, error) {
	return memoize(t.memo, keyPreviousVersion, func() (string, error) {
		versions, err := t.Versions(ctx)
		if err != nil {
			return "", err
		}
		if len(versions) > 0 {
			return versions[0], nil
		}

		hash := short(t.head)
		t.logger.Info(fmt.Sprintf("Could not find a previous version. Will use %s as initial version", hash))

		return hash, nil
	})
}

// NextVersion is HEAD's short hash.
func (t *Trunk) NextVersion(context.Context) (string, error) {
	return short(t.head), nil
}

// Changelog renders HEAD's commit, or "" when the filter drops it.
func (t *Trunk) Changelog(ctx context.Context) (string, error) {
	return memoize(t.memo, keyChangelog, func() (string, error) {
		next, err := t.NextVersion(ctx)
		if err != nil {
			return "", err
		}

		commits, err := t.commits(ctx)
		if err != nil {
			return "", err
		}

		return t.render(next, commits)
	})
}

// ChangelogByVersion renders the commit with the given short hash.
func (t *Trunk) ChangelogByVersion(ctx context.Context, version string) (string, error) {
	return memoize(t.memo, changelogKey(version), func() (string, error) {
		all, err := t.versionsCommits(ctx)
		if err != nil {
			return "", err
		}

		commits, ok := all[version]
		if !ok {
			return "", errors.Newf(errors.CodeNotFound, "Could not find commits for version '%s'", version)
		}

		return t.render(version, commits)
	})
}

// MentionedIssues lists the issues referenced by HEAD's commit.
func (t *Trunk) MentionedIssues(ctx context.Context) ([]string, error) {
	return memoize(t.memo, keyMentionedIssues, func() ([]string, error) {
		commits, err := t.commits(ctx)
		if err != nil {
			return nil, err
		}

		return issues(commits), nil
	})
}
