package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// GitTagOptions configures GitTag.
type GitTagOptions struct {
	Git Git

	// Name is the tag to create, e.g. "v1.2.0".
	Name string

	// Remote defaults to "origin".
	Remote string

	// Target is the revision to tag. Defaults to HEAD.
	Target string

	Logger *slog.Logger
}

// GitTag creates a tag locally and pushes it.
type GitTag struct {
	command.Base

	opts   GitTagOptions
	logger *slog.Logger

	localTagCreated  bool
	remoteTagCreated bool
}

var _ command.Command = (*GitTag)(nil)

// NewGitTag creates a GitTag command.
func NewGitTag(opts GitTagOptions) *GitTag {
	opts.Remote = remoteOrDefault(opts.Remote)
	if opts.Target == "" {
		opts.Target = "HEAD"
	}

	return &GitTag{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GitTag) Name() string { return "GitTag" }

// Do fails without side effects when the tag exists locally or remotely.
func (c *GitTag) Do(ctx context.Context) error {
	name, remote := c.opts.Name, c.opts.Remote

	remoteHash, err := c.opts.Git.RemoteRefHash(ctx, remote, plumbing.NewTagReferenceName(name))
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to list tags of remote '%s': %v", remote, err))
	}
	if remoteHash != "" {
		return errors.Newf(errors.CodeConflict, "A tag named '%s' already exists in remote '%s'", name, remote)
	}

	exists, err := c.opts.Git.TagExists(ctx, name)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to look up tag '%s': %v", name, err))
	}
	if exists {
		return errors.Newf(errors.CodeConflict, "A local tag named '%s' already exists", name)
	}

	if err := c.opts.Git.CreateTag(ctx, name, c.opts.Target); err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to create tag '%s': %v", name, err))
	}
	c.localTagCreated = true
	c.logger.Info(fmt.Sprintf("Created a local tag '%s'", name))

	if err := c.opts.Git.PushTag(ctx, remote, name); err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to push tag '%s' to remote '%s': %v", name, remote, err))
	}
	c.remoteTagCreated = true
	c.logger.Info(fmt.Sprintf("Pushed tag '%s' to remote '%s'", name, c.opts.Remote))

	return nil
}

// Undo deletes the local tag, then the remote one, each only if Do created
// it. Both deletions are attempted even if the first fails.
func (c *GitTag) Undo(ctx context.Context) error {
	var errs []error
	name := c.opts.Name

	if c.localTagCreated {
		if err := c.opts.Git.DeleteTag(ctx, name); err != nil {
			c.logger.Error(fmt.Sprintf("Failed to delete local tag '%s'", name), "error", err)
			errs = append(errs, err)
		} else {
			c.localTagCreated = false
			c.logger.Info(fmt.Sprintf("Deleted local tag '%s'", name))
		}
	}

	if c.remoteTagCreated {
		if err := c.opts.Git.DeleteRemoteRef(ctx, c.opts.Remote, plumbing.NewTagReferenceName(name)); err != nil {
			c.logger.Error(fmt.Sprintf("Failed to delete remote tag '%s'", name), "error", err)
			errs = append(errs, err)
		} else {
			c.remoteTagCreated = false
			c.logger.Info(fmt.Sprintf("Deleted remote tag '%s'", name))
		}
	}

	return stderrors.Join(errs...)
}
