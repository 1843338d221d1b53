package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/npm"
)

// Npm is the npm CLI surface the npm commands use.
type Npm interface {
	SetVersion(ctx context.Context, version string) error
	PreRelease(ctx context.Context, id string) error
	Publish(ctx context.Context, opts npm.PublishOptions) error
	Unpublish(ctx context.Context, spec string) error
}

var _ Npm = (*npm.CLI)(nil)

// NpmBumpOptions configures NpmBump.
type NpmBumpOptions struct {
	Npm Npm

	// FS and Dir locate the package.json that npm rewrites.
	FS  billy.Filesystem
	Dir string

	Version string

	// PreReleaseID additionally bumps to the next pre-release with this id.
	PreReleaseID string

	Logger *slog.Logger
}

// NpmBump sets the package version.
type NpmBump struct {
	command.Base

	opts   NpmBumpOptions
	logger *slog.Logger

	initialVersion string
	versionChanged bool
}

var _ command.Command = (*NpmBump)(nil)

// NewNpmBump creates an NpmBump command.
func NewNpmBump(opts NpmBumpOptions) *NpmBump {
	return &NpmBump{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *NpmBump) Name() string { return "NpmBump" }

// Do implements command.Command.
func (c *NpmBump) Do(ctx context.Context) error {
	pkg, err := npm.ReadPackage(c.opts.FS, c.opts.Dir)
	if err != nil {
		return err
	}
	c.initialVersion = pkg.Version

	// Any npm call may have rewritten the manifest, so undo is armed first.
	c.versionChanged = true

	if err := c.opts.Npm.SetVersion(ctx, c.opts.Version); err != nil {
		return errors.Wrap(err, errors.CodeExternal, err.Error())
	}
	if c.opts.PreReleaseID != "" {
		if err := c.opts.Npm.PreRelease(ctx, c.opts.PreReleaseID); err != nil {
			return errors.Wrap(err, errors.CodeExternal, err.Error())
		}
	}

	bumped, err := npm.ReadPackage(c.opts.FS, c.opts.Dir)
	if err != nil {
		return err
	}
	c.logger.Info(fmt.Sprintf("Changed package '%s' version to '%s'", bumped.Name, bumped.Version))

	return nil
}

// Undo restores the initial version when the manifest no longer has it.
func (c *NpmBump) Undo(ctx context.Context) error {
	if !c.versionChanged {
		return nil
	}

	pkg, err := npm.ReadPackage(c.opts.FS, c.opts.Dir)
	if err != nil {
		return err
	}

	if pkg.Version != c.initialVersion {
		if err := c.opts.Npm.SetVersion(ctx, c.initialVersion); err != nil {
			return err
		}
	}
	c.versionChanged = false

	c.logger.Info(fmt.Sprintf("Reverted '%s' version back to '%s'", pkg.Name, c.initialVersion))

	return nil
}

// NpmPublishOptions configures NpmPublish.
type NpmPublishOptions struct {
	Npm Npm

	FS  billy.Filesystem
	Dir string

	// Tag is the dist-tag, e.g. "latest" or "beta".
	Tag      string
	Registry string

	// UndoPublish unpublishes on undo. Only enable it for registries that
	// accept republishing an unpublished version.
	UndoPublish bool

	Logger *slog.Logger
}

// NpmPublish publishes the package. Private packages are skipped.
type NpmPublish struct {
	command.Base

	opts   NpmPublishOptions
	logger *slog.Logger

	published string
}

var _ command.Command = (*NpmPublish)(nil)

// NewNpmPublish creates an NpmPublish command.
func NewNpmPublish(opts NpmPublishOptions) *NpmPublish {
	return &NpmPublish{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *NpmPublish) Name() string { return "NpmPublish" }

// Do implements command.Command.
func (c *NpmPublish) Do(ctx context.Context) error {
	pkg, err := npm.ReadPackage(c.opts.FS, c.opts.Dir)
	if err != nil {
		return err
	}

	if pkg.Private {
		c.logger.Info(fmt.Sprintf("Skipping publish. Package '%s' private property is true.", pkg.Name))
		return nil
	}

	if c.opts.Tag != "" {
		c.logger.Info(fmt.Sprintf("Publishing '%s' using dist tag '%s'", pkg.Spec(), c.opts.Tag))
	}
	if c.opts.Registry != "" {
		c.logger.Info(fmt.Sprintf("Publishing '%s' to registry '%s'", pkg.Spec(), c.opts.Registry))
	}

	if err := c.opts.Npm.Publish(ctx, npm.PublishOptions{Tag: c.opts.Tag, Registry: c.opts.Registry}); err != nil {
		return errors.Wrap(err, errors.CodeExternal, err.Error())
	}
	c.published = pkg.Spec()

	c.logger.Info(fmt.Sprintf("Published package '%s'", c.published))

	return nil
}

// Undo unpublishes only when UndoPublish is set.
func (c *NpmPublish) Undo(ctx context.Context) error {
	if c.published == "" || !c.opts.UndoPublish {
		return nil
	}

	if err := c.opts.Npm.Unpublish(ctx, c.published); err != nil {
		return err
	}

	c.logger.Info(fmt.Sprintf("Unpublished package '%s'", c.published))
	c.published = ""

	return nil
}
