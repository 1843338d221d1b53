package release

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/release/changelog"
	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
)

// SemanticOptions configures a Semantic engine.
type SemanticOptions struct {
	// Git is required.
	Git Git

	// StableBranch is the branch that releases stable versions. Every other
	// branch needs an entry in PreReleaseBranches.
	StableBranch string

	// PreReleaseBranches maps branch names to pre-release ids ("next" -> "beta").
	PreReleaseBranches map[string]string

	// InitialVersion is used when no version tag is reachable. Defaults to 0.0.0.
	InitialVersion string

	// RawCommits lists commits for a range. Defaults to Git.Commits.
	RawCommits RawCommitsFunc

	// IsReleaseCommit defaults to DefaultIsReleaseCommit.
	IsReleaseCommit CommitFilter

	Parser conventional.Parser
	Writer changelog.Writer

	// ChangelogContext is required to render changelogs.
	ChangelogContext *changelog.Context

	Logger *slog.Logger
}

// Validate checks the options that cannot be defaulted.
func (o *SemanticOptions) Validate() error {
	if o.Git == nil {
		return errors.New(errors.CodeInvalidConfig, "git client is required")
	}

	return nil
}

func (o *SemanticOptions) applyDefaults() {
	if o.InitialVersion == "" {
		o.InitialVersion = DefaultInitialVersion
	}
	if o.PreReleaseBranches == nil {
		o.PreReleaseBranches = map[string]string{}
	}
	if o.RawCommits == nil {
		o.RawCommits = GitRawCommits(o.Git)
	}
	if o.IsReleaseCommit == nil {
		o.IsReleaseCommit = DefaultIsReleaseCommit
	}
	if o.Parser == nil {
		o.Parser = conventional.NewParser()
	}
	if o.Writer == nil {
		o.Writer = changelog.NewMarkdownWriter()
	}
}

// Semantic derives versions from semver tags.
type Semantic struct {
	opts   SemanticOptions
	logger *slog.Logger
	memo   *memo
}

var _ Release = (*Semantic)(nil)

// NewSemantic creates a Semantic engine. Options are copied.
func NewSemantic(opts SemanticOptions) (*Semantic, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	return &Semantic{
		opts:   opts,
		logger: componentLogger(opts.Logger, "GitSemanticRelease"),
		memo:   newMemo(),
	}, nil
}

func (s *Semantic) branchName(ctx context.Context) (string, error) {
	return memoize(s.memo, keyBranchName, func() (string, error) {
		return s.opts.Git.RefName(ctx, "HEAD")
	})
}

// preReleaseID returns "" on the stable branch.
func (s *Semantic) preReleaseID(ctx context.Context) (string, error) {
	return memoize(s.memo, keyPreReleaseID, func() (string, error) {
		if s.opts.StableBranch == "" {
			return "", errors.New(errors.CodeInvalidConfig, "Stable branch name is missing")
		}

		branch, err := s.branchName(ctx)
		if err != nil {
			return "", err
		}

		if branch == s.opts.StableBranch {
			return "", nil
		}
		if id := s.opts.PreReleaseBranches[branch]; id != "" {
			return id, nil
		}

		return "", errors.WrapWithContext(nil, errors.CodeInvalidConfig,
			fmt.Sprintf("Could not find pre release id for branch '%s'", branch),
			map[string]interface{}{"branch": branch})
	})
}

// mergedTags returns this branch's pre-release tags, then stable tags, each
// newest first.
func (s *Semantic) mergedTags(ctx context.Context) ([]git.MergedTag, error) {
	return memoize(s.memo, keyTags, func() ([]git.MergedTag, error) {
		tags, err := s.opts.Git.MergedTags(ctx, "HEAD")
		if err != nil {
			return nil, fmt.Errorf("failed to list merged tags: %w", err)
		}

		preReleaseID, err := s.preReleaseID(ctx)
		if err != nil {
			return nil, err
		}

		byName := map[string]git.MergedTag{}
		var stable, branch []string
		filtered := 0

		for _, tag := range tags {
			switch id := PrereleaseID(tag.Name); {
			case !ValidVersion(tag.Name):
				s.logger.Debug(fmt.Sprintf("Filtered tag '%s'. Tag name is not a valid semantic version", tag.Name))
				filtered++
				continue
			case id == "":
				stable = append(stable, tag.Name)
			case preReleaseID != "" && id == preReleaseID:
				branch = append(branch, tag.Name)
			default:
				continue
			}
			byName[tag.Name] = tag
		}

		if filtered > 0 {
			s.logger.Info(fmt.Sprintf("Filtered %d tags", filtered))
		}

		SortDescending(branch)
		SortDescending(stable)

		out := make([]git.MergedTag, 0, len(branch)+len(stable))
		for _, name := range append(branch, stable...) {
			out = append(out, byName[name])
		}

		return out, nil
	})
}

// commits classifies the commits after the newest relevant tag, or the whole
// history when there is none.
func (s *Semantic) commits(ctx context.Context) ([]conventional.Commit, error) {
	return memoize(s.memo, keyCommits, func() ([]conventional.Commit, error) {
		tags, err := s.mergedTags(ctx)
		if err != nil {
			return nil, err
		}

		until, err := s.opts.Git.RefHash(ctx, "HEAD")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
		}

		rng := until
		var since string
		if len(tags) > 0 {
			since = tags[0].Hash
			rng = since + ".."
		}

		raws, err := s.opts.RawCommits(ctx, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits: %w", err)
		}

		if since != "" {
			s.logger.Info(fmt.Sprintf("Retrieving commits since %s", since))
		} else {
			s.logger.Info(fmt.Sprintf("Retrieving commits until %s", until))
		}

		return parseAll(s.opts.Parser, raws)
	})
}

// versionsCommits assigns every commit reachable from the newest tag to the
// oldest tag that contains it.
func (s *Semantic) versionsCommits(ctx context.Context) (map[string][]conventional.Commit, error) {
	return memoize(s.memo, keyVersionsCommits, func() (map[string][]conventional.Commit, error) {
		tags, err := s.mergedTags(ctx)
		if err != nil {
			return nil, err
		}

		out := map[string][]conventional.Commit{}
		if len(tags) == 0 {
			return out, nil
		}

		raws, err := s.opts.RawCommits(ctx, tags[0].Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits: %w", err)
		}

		index := make(map[string]int, len(raws))
		for i, raw := range raws {
			index[raw.Hash] = i
		}

		taken := map[string]struct{}{}
		for i := len(tags) - 1; i >= 0; i-- {
			tag := tags[i]

			start, ok := index[tag.Hash]
			if !ok {
				s.logger.Debug("tag is not reachable from the newest tag", "tag", tag.Name, "hash", tag.Hash)
				continue
			}

			commits := []conventional.Commit{}
			for _, raw := range raws[start:] {
				if _, done := taken[raw.Hash]; done {
					continue
				}
				c, err := s.opts.Parser.Parse(raw)
				if err != nil {
					return nil, err
				}
				commits = append(commits, c)
				taken[raw.Hash] = struct{}{}
			}

			version, err := CleanVersion(tag.Name)
			if err != nil {
				return nil, err
			}
			out[version] = commits
		}

		return out, nil
	})
}

func (s *Semantic) changelogContext(version string) (changelog.Context, error) {
	if s.opts.ChangelogContext == nil {
		return changelog.Context{}, errors.New(errors.CodeInvalidConfig, "conventional changelog writer context is missing")
	}

	return s.opts.ChangelogContext.WithVersion(version), nil
}

// Versions returns the cleaned names of the relevant tags.
func (s *Semantic) Versions(ctx context.Context) ([]string, error) {
	return memoize(s.memo, keyVersions, func() ([]string, error) {
		tags, err := s.mergedTags(ctx)
		if err != nil {
			return nil, err
		}

		versions := make([]string, 0, len(tags))
		for _, tag := range tags {
			v, err := CleanVersion(tag.Name)
			if err != nil {
				return nil, err
			}
			versions = append(versions, v)
		}

		return versions, nil
	})
}

// PreviousVersion returns the newest version, or the initial version.
func (s *Semantic) PreviousVersion(ctx context.Context) (string, error) {
	return memoize(s.memo, keyPreviousVersion, func() (string, error) {
		versions, err := s.Versions(ctx)
		if err != nil {
			return "", err
		}
		if len(versions) > 0 {
			return versions[0], nil
		}

		initial := s.opts.InitialVersion
		s.logger.Info(fmt.Sprintf("Could not find a previous version. Will use %s as initial version", initial))

		if !ValidVersion(initial) {
			return "", errors.Newf(errors.CodeInvalidConfig, "%s is not a semantic version", initial)
		}

		return initial, nil
	})
}

// NextVersion bumps the previous version according to the release commits.
// It fails if the remote already has a tag for the result.
func (s *Semantic) NextVersion(ctx context.Context) (string, error) {
	return memoize(s.memo, keyNextVersion, func() (string, error) {
		previous, err := s.PreviousVersion(ctx)
		if err != nil {
			return "", err
		}

		commits, err := s.commits(ctx)
		if err != nil {
			return "", err
		}

		var releaseCommits []conventional.Commit
		for _, c := range commits {
			ok, err := s.opts.IsReleaseCommit(c)
			if err != nil {
				return "", err
			}
			if ok {
				releaseCommits = append(releaseCommits, c)
			}
		}

		s.logger.Info(fmt.Sprintf("Found %d new commits", len(commits)))
		if filtered := len(commits) - len(releaseCommits); filtered > 0 {
			plural := ""
			if filtered > 1 {
				plural = "s"
			}
			s.logger.Info(fmt.Sprintf("Filtered %d commit%s", filtered, plural))
		}

		if len(releaseCommits) == 0 {
			return previous, nil
		}

		preReleaseID, err := s.preReleaseID(ctx)
		if err != nil {
			return "", err
		}

		bump, reason := WhatBump(releaseCommits)
		next, err := Increment(previous, bump, preReleaseID)
		if err != nil {
			return "", err
		}

		name := "v" + next
		hash, err := s.opts.Git.RemoteTagHash(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to look up remote tag %s: %w", name, err)
		}

		s.logger.Info(reason)

		if hash != "" {
			s.logger.Warn(fmt.Sprintf("Version %s was already released. (tag: %s)", next, name))
			s.logger.Warn(fmt.Sprintf("You can fix this by branching from %s", hash))

			return "", errors.WrapWithContext(nil, errors.CodeConflict,
				fmt.Sprintf("A tag for version '%s' already exists (tag hash: %s)", next, hash),
				map[string]interface{}{"tag": name, "hash": hash})
		}

		return next, nil
	})
}

// Changelog renders the commits of the next version.
func (s *Semantic) Changelog(ctx context.Context) (string, error) {
	return memoize(s.memo, keyChangelog, func() (string, error) {
		next, err := s.NextVersion(ctx)
		if err != nil {
			return "", err
		}

		commits, err := s.commits(ctx)
		if err != nil {
			return "", err
		}

		wctx, err := s.changelogContext(next)
		if err != nil {
			return "", err
		}

		return s.opts.Writer.Render(wctx, commits)
	})
}

// ChangelogByVersion renders the commits of a released version.
func (s *Semantic) ChangelogByVersion(ctx context.Context, version string) (string, error) {
	return memoize(s.memo, changelogKey(version), func() (string, error) {
		all, err := s.versionsCommits(ctx)
		if err != nil {
			return "", err
		}

		commits, ok := all[version]
		if !ok {
			return "", errors.Newf(errors.CodeNotFound, "Could not find version %s conventional commits", version)
		}

		wctx, err := s.changelogContext(version)
		if err != nil {
			return "", err
		}

		return s.opts.Writer.Render(wctx, commits)
	})
}

// MentionedIssues lists the issues referenced by the next version's commits.
func (s *Semantic) MentionedIssues(ctx context.Context) ([]string, error) {
	return memoize(s.memo, keyMentionedIssues, func() ([]string, error) {
		commits, err := s.commits(ctx)
		if err != nil {
			return nil, err
		}

		return issues(commits), nil
	})
}
