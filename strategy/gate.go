package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// GateGit is the repository surface GitGate queries.
type GateGit interface {
	RefName(ctx context.Context, ref string) (string, error)
	RefHash(ctx context.Context, ref string) (string, error)
	RemoteBranchHash(ctx context.Context, branch string) (string, error)
}

// IsReleaseBranchFunc reports whether releases may run from branch.
type IsReleaseBranchFunc func(branch string) bool

// GitGate lets a run proceed only on a release branch whose local head
// matches its remote counterpart.
type GitGate struct {
	git             GateGit
	isReleaseBranch IsReleaseBranchFunc
	logger          *slog.Logger
}

// NewGitGate creates a GitGate. A nil isReleaseBranch accepts every branch.
func NewGitGate(git GateGit, isReleaseBranch IsReleaseBranchFunc, logger *slog.Logger) *GitGate {
	if isReleaseBranch == nil {
		isReleaseBranch = func(string) bool { return true }
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &GitGate{git: git, isReleaseBranch: isReleaseBranch, logger: logger}
}

// ShouldRun compares the checked out branch with the remote.
func (g *GitGate) ShouldRun(ctx context.Context) (bool, error) {
	branch, err := g.git.RefName(ctx, "HEAD")
	if err != nil {
		return false, errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to resolve current branch: %v", err))
	}

	if !g.isReleaseBranch(branch) {
		g.logger.Info(fmt.Sprintf("Branch '%s' is not a release branch", branch))
		return false, nil
	}

	local, err := g.git.RefHash(ctx, branch)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to resolve branch '%s': %v", branch, err))
	}

	remote, err := g.git.RemoteBranchHash(ctx, branch)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to query remote branch '%s': %v", branch, err))
	}

	g.logger.Info(fmt.Sprintf("Local branch hash is %s", local))
	g.logger.Info(fmt.Sprintf("Remote branch hash is %s", remote))

	if local != remote {
		g.logger.Info("Local branch hash is not the same as its remote counterpart")
		return false, nil
	}

	return true, nil
}
