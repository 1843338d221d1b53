package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// GitSwitchOptions configures GitSwitch.
type GitSwitchOptions struct {
	Git Git

	// Branch is switched to, and created at HEAD when missing.
	Branch string

	Logger *slog.Logger
}

// GitSwitch switches the worktree to a branch.
type GitSwitch struct {
	command.Base

	opts   GitSwitchOptions
	logger *slog.Logger

	initialBranch string
	createdBranch bool
}

var _ command.Command = (*GitSwitch)(nil)

// NewGitSwitch creates a GitSwitch command.
func NewGitSwitch(opts GitSwitchOptions) *GitSwitch {
	return &GitSwitch{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GitSwitch) Name() string { return "GitSwitch" }

// Do is a no-op when the branch is already checked out.
func (c *GitSwitch) Do(ctx context.Context) error {
	branch := c.opts.Branch
	if branch == "" {
		return errors.New(errors.CodeInvalidInput, "Missing branch name")
	}

	current, err := c.opts.Git.CurrentBranch(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to read current branch: %v", err))
	}
	if current == branch {
		return nil
	}

	exists, err := c.opts.Git.BranchExists(ctx, branch)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to look up branch '%s': %v", branch, err))
	}

	if err := c.opts.Git.Switch(ctx, branch, !exists); err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to switch to branch '%s': %v", branch, err))
	}
	c.createdBranch = !exists
	c.initialBranch = current

	c.logger.Info(fmt.Sprintf("Switched to branch '%s'", branch))

	return nil
}

// Undo switches back to the initial branch and deletes the branch if Do
// created it.
func (c *GitSwitch) Undo(ctx context.Context) error {
	if c.initialBranch != "" {
		if err := c.opts.Git.Switch(ctx, c.initialBranch, false); err != nil {
			return err
		}
		c.logger.Info(fmt.Sprintf("Switched to branch '%s'", c.initialBranch))
		c.initialBranch = ""
	}

	if c.createdBranch {
		if err := c.opts.Git.DeleteBranch(ctx, c.opts.Branch); err != nil {
			return err
		}
		c.createdBranch = false
		c.logger.Info(fmt.Sprintf("Deleted branch '%s'", c.opts.Branch))
	}

	return nil
}
