package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
)

// GitCommitOptions configures GitCommit.
type GitCommitOptions struct {
	Git Git

	// Actor is an optional "name <email>" identity used as author and committer.
	Actor string

	Message string

	// Paths are staged before committing, relative to the worktree root.
	Paths []string

	Logger *slog.Logger
}

// GitCommit stages files and commits them.
type GitCommit struct {
	command.Base

	opts   GitCommitOptions
	logger *slog.Logger

	committed bool
}

var _ command.Command = (*GitCommit)(nil)

// NewGitCommit creates a GitCommit command.
func NewGitCommit(opts GitCommitOptions) *GitCommit {
	return &GitCommit{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *GitCommit) Name() string { return "GitCommit" }

// Do implements command.Command.
func (c *GitCommit) Do(ctx context.Context) error {
	var sig *git.Signature
	if c.opts.Actor != "" {
		parsed, err := ParseActor(c.opts.Actor)
		if err != nil {
			return err
		}
		sig = parsed
	}

	if err := c.opts.Git.Add(ctx, c.opts.Paths...); err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to stage files: %v", err))
	}

	hash, err := c.opts.Git.Commit(ctx, c.opts.Message, sig)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to commit: %v", err))
	}
	c.committed = true

	c.logger.Info(fmt.Sprintf("Committed files %s", strings.Join(c.opts.Paths, ", ")), "hash", hash)

	return nil
}

// Undo drops the commit, keeping its changes in the worktree.
func (c *GitCommit) Undo(ctx context.Context) error {
	if !c.committed {
		return nil
	}

	if err := c.opts.Git.ResetToParent(ctx); err != nil {
		return err
	}
	c.committed = false

	return nil
}

// ParseActor parses a "name <email>" identity.
func ParseActor(actor string) (*git.Signature, error) {
	addr, err := mail.ParseAddress(actor)
	if err != nil || addr.Name == "" || addr.Address == "" {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig,
			`actor must follow "name <email>" format`, map[string]interface{}{"actor": actor})
	}

	return &git.Signature{Name: addr.Name, Email: addr.Address}, nil
}
