// Package release derives versions and changelogs from git history.
//
// Two engines implement Release. Semantic reads semver tags merged into HEAD,
// classifies the commits since the newest one and computes the next version
// with the conventional commits bump rules. Trunk versions every commit by
// its short hash.
//
// Every getter is memoized for the lifetime of the engine: git is queried at
// most once per computation, and errors are cached like values.
package release

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/conventional"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
)

// DefaultInitialVersion is used when no version tag is reachable.
const DefaultInitialVersion = "0.0.0"

// Release is the read-only view a strategy works from.
type Release interface {
	Versions(ctx context.Context) ([]string, error)
	PreviousVersion(ctx context.Context) (string, error)
	NextVersion(ctx context.Context) (string, error)

	// Changelog returns "" when there is nothing to report.
	Changelog(ctx context.Context) (string, error)
	ChangelogByVersion(ctx context.Context, version string) (string, error)

	// MentionedIssues is deduplicated and sorted.
	MentionedIssues(ctx context.Context) ([]string, error)
}

// Git is the subset of *git.Repo the engines query.
type Git interface {
	RefName(ctx context.Context, ref string) (string, error)
	RefHash(ctx context.Context, ref string) (string, error)
	Commits(ctx context.Context, rng string) ([]git.Commit, error)
	MergedTags(ctx context.Context, ref string) ([]git.MergedTag, error)
	RemoteTagHash(ctx context.Context, tag string) (string, error)
}

// RawCommitsFunc lists the commits of a range, newest first.
type RawCommitsFunc func(ctx context.Context, rng string) ([]conventional.RawCommit, error)

// CommitFilter decides whether a classified commit counts.
type CommitFilter func(c conventional.Commit) (bool, error)

// GitRawCommits adapts g.Commits to RawCommitsFunc.
func GitRawCommits(g Git) RawCommitsFunc {
	return func(ctx context.Context, rng string) ([]conventional.RawCommit, error) {
		commits, err := g.Commits(ctx, rng)
		if err != nil {
			return nil, err
		}

		raws := make([]conventional.RawCommit, 0, len(commits))
		for _, c := range commits {
			raws = append(raws, conventional.RawCommit{
				Hash:      c.Hash,
				Message:   c.Message(),
				Tags:      c.Tags,
				Committed: time.UnixMilli(c.CommittedTimestamp),
			})
		}

		return raws, nil
	}
}

func issues(commits []conventional.Commit) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, c := range commits {
		for _, issue := range c.Issues() {
			if _, ok := seen[issue]; ok {
				continue
			}
			seen[issue] = struct{}{}
			out = append(out, issue)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return out[i] < out[j]
	})

	return out
}

func parseAll(p conventional.Parser, raws []conventional.RawCommit) ([]conventional.Commit, error) {
	out := make([]conventional.Commit, 0, len(raws))
	for _, raw := range raws {
		c, err := p.Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, nil
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger.With("component", name)
}
