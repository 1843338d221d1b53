// Package config loads the release tool configuration.
//
// Configuration comes from a YAML file, then environment overrides, then
// defaults for anything left unset. The file is looked up in order:
//
//  1. an explicit path (the --config flag)
//  2. atomic-release.yaml in the working directory
//  3. $XDG_CONFIG_HOME/atomic-release/config.yaml (and the XDG config dirs)
//
// A missing file is not an error; the defaults plus environment apply.
//
// # Example
//
//	mode: semantic
//	stableBranch: main
//	preReleaseBranches:
//	  beta: beta
//	gitActor: release-bot <bot@example.com>
//	github:
//	  owner: octo
//	  repo: app
//	branches:
//	  main:
//	    stableGithubRelease: true
//	    npmDistTag: latest
//	  beta:
//	    npmDistTag: beta
//	releaseAssets:
//	  - path: dist/app.tgz
//	    label: Bundle
package config

import (
	"github.com/input-output-hk/catalyst-forge-libs/release/changelog"
)

// Release modes.
const (
	ModeSemantic = "semantic"
	ModeTrunk    = "trunk"
)

// Defaults applied to unset fields.
const (
	DefaultMode           = ModeSemantic
	DefaultRemote         = "origin"
	DefaultChangelogFile  = "CHANGELOG.md"
	DefaultInitialVersion = "0.0.0"
	DefaultLogLevel       = "info"
	DefaultGitHubHost     = "github.com"
)

// Config is the complete tool configuration.
type Config struct {
	// Mode selects the release engine: semantic or trunk.
	Mode   string `yaml:"mode"`
	Remote string `yaml:"remote"`

	// WorkingDirectory is the repository worktree. PackageRoot and
	// ChangelogFile are relative to it.
	WorkingDirectory string `yaml:"workingDirectory"`
	PackageRoot      string `yaml:"packageRoot"`
	ChangelogFile    string `yaml:"changelogFile"`

	// RegenerateChangelog rewrites the whole changelog from every version.
	// When false only the next version is prepended. Defaults to true.
	RegenerateChangelog *bool `yaml:"regenerateChangelog"`

	InitialVersion     string            `yaml:"initialVersion"`
	StableBranch       string            `yaml:"stableBranch"`
	PreReleaseBranches map[string]string `yaml:"preReleaseBranches"`

	// GitActor is "name <email>", used as commit author and committer.
	GitActor string `yaml:"gitActor"`

	GitHub        GitHubConfig            `yaml:"github"`
	Branches      map[string]BranchConfig `yaml:"branches"`
	Npm           NpmConfig               `yaml:"npm"`
	ReleaseAssets []AssetConfig           `yaml:"releaseAssets"`

	// Changelog holds the link context of generated changelogs. Unset
	// fields are derived from GitHub.
	Changelog changelog.Context `yaml:"changelog"`

	LogLevel string `yaml:"logLevel"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// GitHubConfig identifies the repository on GitHub.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token"`

	// Host is github.com or a GitHub Enterprise host.
	Host string `yaml:"host"`
}

// BranchConfig holds per release branch settings.
type BranchConfig struct {
	StableGithubRelease bool   `yaml:"stableGithubRelease"`
	NpmDistTag          string `yaml:"npmDistTag"`
}

// NpmConfig configures publishing.
type NpmConfig struct {
	Registry    string `yaml:"registry"`
	UndoPublish bool   `yaml:"undoPublish"`
}

// AssetConfig is a file attached to the GitHub release.
type AssetConfig struct {
	Path  string `yaml:"path"`
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Default returns a configuration holding only defaults.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Remote == "" {
		c.Remote = DefaultRemote
	}
	if c.WorkingDirectory == "" {
		c.WorkingDirectory = "."
	}
	if c.PackageRoot == "" {
		c.PackageRoot = "."
	}
	if c.ChangelogFile == "" {
		c.ChangelogFile = DefaultChangelogFile
	}
	if c.RegenerateChangelog == nil {
		regenerate := true
		c.RegenerateChangelog = &regenerate
	}
	if c.InitialVersion == "" {
		c.InitialVersion = DefaultInitialVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.GitHub.Host == "" {
		c.GitHub.Host = DefaultGitHubHost
	}
}
