package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

const (
	// AppName names the XDG config directory.
	AppName = "atomic-release"

	// LocalFileName is looked up in the working directory.
	LocalFileName = "atomic-release.yaml"

	// UserFileName is looked up under the XDG config directories.
	UserFileName = "config.yaml"
)

// Environment variables overriding file values.
const (
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvRemote       = "ATOMIC_RELEASE_REMOTE"
	EnvStableBranch = "ATOMIC_RELEASE_STABLE_BRANCH"
	EnvLogLevel     = "ATOMIC_RELEASE_LOG_LEVEL"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Path is an explicit config file. It must exist.
	Path string

	// Dir is searched for LocalFileName. Defaults to ".".
	Dir string

	// Getenv reads environment overrides. Defaults to os.Getenv.
	Getenv func(string) string

	// SkipValidation returns the configuration without validating it.
	SkipValidation bool
}

// Load finds, decodes and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	path, err := find(opts)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	if cfg.WorkingDirectory == "" {
		cfg.WorkingDirectory = opts.Dir
	}

	cfg.applyEnv(opts.Getenv)
	cfg.applyDefaults()

	if !opts.SkipValidation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// find returns the config file to read, or "" when there is none.
func find(opts LoadOptions) (string, error) {
	if opts.Path != "" {
		if !exists(opts.Path) {
			return "", errors.WrapWithContext(nil, errors.CodeNotFound,
				fmt.Sprintf("config file %s does not exist", opts.Path),
				map[string]interface{}{"path": opts.Path})
		}
		return opts.Path, nil
	}

	local := filepath.Join(opts.Dir, LocalFileName)
	if exists(local) {
		return local, nil
	}

	if p, err := xdg.SearchConfigFile(filepath.Join(AppName, UserFileName)); err == nil {
		return p, nil
	}

	return "", nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func decodeFile(path string, cfg *Config) error {
	fs := osfs.New(filepath.Dir(path))

	data, err := util.ReadFile(fs, filepath.Base(path))
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeNotFound,
			fmt.Sprintf("failed to read config file %s: %v", path, err),
			map[string]interface{}{"path": path})
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.WrapWithContext(err, errors.CodeInvalidConfig,
			fmt.Sprintf("failed to parse config file %s: %v", path, err),
			map[string]interface{}{"path": path})
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := getenv(EnvRemote); v != "" {
		c.Remote = v
	}
	if v := getenv(EnvStableBranch); v != "" {
		c.StableBranch = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}
