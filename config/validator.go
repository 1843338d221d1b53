package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/input-output-hk/catalyst-forge-libs/release/commands"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// Validate checks the configuration independently of what is run with it.
// All problems are reported together.
func (c *Config) Validate() error {
	var problems []string

	switch c.Mode {
	case ModeSemantic:
		if c.StableBranch == "" {
			problems = append(problems, "stableBranch is required in semantic mode")
		}
	case ModeTrunk:
	default:
		problems = append(problems, fmt.Sprintf("mode must be one of %s, %s (got %q)", ModeSemantic, ModeTrunk, c.Mode))
	}

	if _, err := semver.StrictNewVersion(c.InitialVersion); err != nil {
		problems = append(problems, fmt.Sprintf("initialVersion %q is not a semantic version", c.InitialVersion))
	}

	problems = append(problems, c.validatePreReleaseBranches()...)

	if c.GitActor != "" {
		if _, err := commands.ParseActor(c.GitActor); err != nil {
			problems = append(problems, `gitActor must follow "name <email>" format`)
		}
	}

	for i, a := range c.ReleaseAssets {
		if a.Path == "" {
			problems = append(problems, fmt.Sprintf("releaseAssets[%d].path is required", i))
		}
	}

	if _, err := c.Level(); err != nil {
		problems = append(problems, fmt.Sprintf("logLevel %q is not one of debug, info, warn, error", c.LogLevel))
	}

	return c.fail(problems)
}

// ValidateRelease additionally checks what a full release run needs.
func (c *Config) ValidateRelease() error {
	if err := c.Validate(); err != nil {
		return err
	}

	var problems []string
	if c.GitHub.Owner == "" {
		problems = append(problems, "github.owner is required")
	}
	if c.GitHub.Repo == "" {
		problems = append(problems, "github.repo is required")
	}
	if c.GitHub.Token == "" {
		problems = append(problems, fmt.Sprintf("github.token is required (or set %s)", EnvGitHubToken))
	}
	if len(c.Branches) == 0 {
		problems = append(problems, "branches must configure at least one release branch")
	}

	return c.fail(problems)
}

func (c *Config) validatePreReleaseBranches() []string {
	branches := make([]string, 0, len(c.PreReleaseBranches))
	for b := range c.PreReleaseBranches {
		branches = append(branches, b)
	}
	sort.Strings(branches)

	var problems []string
	for _, b := range branches {
		if b == c.StableBranch {
			problems = append(problems, fmt.Sprintf("branch %q cannot be both stable and pre-release", b))
		}
		if c.PreReleaseBranches[b] == "" {
			problems = append(problems, fmt.Sprintf("preReleaseBranches.%s has no pre-release id", b))
		}
	}

	return problems
}

func (c *Config) fail(problems []string) error {
	if len(problems) == 0 {
		return nil
	}

	return errors.WrapWithContext(nil, errors.CodeInvalidConfig,
		fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")),
		map[string]interface{}{"path": c.Path, "problems": problems})
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
