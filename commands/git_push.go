package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// GitPushOptions configures GitPush.
type GitPushOptions struct {
	Git Git

	Branch string

	// Remote defaults to "origin".
	Remote string

	// AllowExisting pushes even when the remote already has the branch.
	// Undo never deletes a branch that existed before the push.
	AllowExisting bool

	Logger *slog.Logger
}

// GitPush pushes a branch and sets its upstream.
type GitPush struct {
	command.Base

	opts   GitPushOptions
	logger *slog.Logger

	remoteBranchCreated bool
}

var _ command.Command = (*GitPush)(nil)

// NewGitPush creates a GitPush command.
func NewGitPush(opts GitPushOptions) *GitPush {
	opts.Remote = remoteOrDefault(opts.Remote)

	return &GitPush{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GitPush) Name() string { return "GitPush" }

// Do implements command.Command.
func (c *GitPush) Do(ctx context.Context) error {
	branch, remote := c.opts.Branch, c.opts.Remote

	hash, err := c.opts.Git.RemoteRefHash(ctx, remote, plumbing.NewBranchReferenceName(branch))
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to list branches of remote '%s': %v", remote, err))
	}

	existed := hash != ""
	if existed && !c.opts.AllowExisting {
		return errors.Newf(errors.CodeConflict, "Remote '%s' already has a branch named '%s'", remote, branch)
	}

	if err := c.opts.Git.PushBranch(ctx, remote, branch); err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to push branch '%s': %v", branch, err))
	}
	c.remoteBranchCreated = !existed

	c.logger.Info(fmt.Sprintf("Pushed branch '%s'", branch))

	return nil
}

// Undo deletes the remote branch if Do created it.
func (c *GitPush) Undo(ctx context.Context) error {
	if !c.remoteBranchCreated {
		return nil
	}

	if err := c.opts.Git.DeleteRemoteRef(ctx, c.opts.Remote, plumbing.NewBranchReferenceName(c.opts.Branch)); err != nil {
		return err
	}
	c.remoteBranchCreated = false

	c.logger.Info(fmt.Sprintf("Deleted remote branch '%s'", c.opts.Branch))

	return nil
}
