package npm

import (
	"context"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/release/executor"
)

// Program is the npm executable name.
const Program = "npm"

// CLI runs npm inside one package directory.
type CLI struct {
	npm    *executor.WrappedExecutor
	logger *slog.Logger
}

// NewCLI creates a CLI that runs npm in dir through runner.
func NewCLI(runner executor.Runner, dir string, logger *slog.Logger) *CLI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var opts []executor.Option
	if dir != "" {
		opts = append(opts, executor.WithWorkingDir(dir))
	}

	return &CLI{
		npm:    executor.NewWrappedExecutor(Program, runner, opts...),
		logger: logger,
	}
}

// SetVersion rewrites the manifest version without creating a git tag.
func (c *CLI) SetVersion(ctx context.Context, version string) error {
	return c.run(ctx, "version", version, "--no-git-tag-version")
}

// PreRelease bumps the manifest to the next pre-release with the given id.
func (c *CLI) PreRelease(ctx context.Context, id string) error {
	return c.run(ctx, "version", "prerelease", "--preid="+id, "--no-git-tag-version")
}

// PublishOptions configures Publish.
type PublishOptions struct {
	// Tag is the dist-tag the version is published under.
	Tag string

	// Registry overrides the configured registry.
	Registry string
}

// Publish publishes the package.
func (c *CLI) Publish(ctx context.Context, opts PublishOptions) error {
	args := []string{"publish"}
	if opts.Tag != "" {
		args = append(args, "--tag", opts.Tag)
	}
	if opts.Registry != "" {
		args = append(args, "--registry", opts.Registry)
	}

	return c.run(ctx, args...)
}

// Unpublish removes one published version.
func (c *CLI) Unpublish(ctx context.Context, spec string) error {
	return c.run(ctx, "unpublish", spec)
}

func (c *CLI) run(ctx context.Context, args ...string) error {
	c.logger.Debug("running npm", "args", args)

	_, err := c.npm.Execute(ctx, args)
	return err
}
