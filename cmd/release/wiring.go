package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/release/commands"
	"github.com/input-output-hk/catalyst-forge-libs/release/config"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/executor"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
	"github.com/input-output-hk/catalyst-forge-libs/release/github"
	"github.com/input-output-hk/catalyst-forge-libs/release/npm"
	"github.com/input-output-hk/catalyst-forge-libs/release/release"
	"github.com/input-output-hk/catalyst-forge-libs/release/strategy"
)

func (a *app) openRepo(ctx context.Context) (*git.Repo, error) {
	cfg := a.cfg

	var auth []git.AuthProvider
	if cfg.GitHub.Token != "" {
		auth = append(auth, git.TokenAuth(cfg.GitHub.Token, cfg.GitHub.Host))
	}
	auth = append(auth, git.SSHAgentAuth())

	repo, err := git.Open(ctx, &git.Options{
		FS:     osfs.New(cfg.WorkingDirectory),
		Remote: cfg.Remote,
		Auth:   git.ChainAuth(auth...),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput,
			fmt.Sprintf("failed to open repository at %s: %v", cfg.WorkingDirectory, err))
	}

	a.resolveRepository(repo)

	return repo, nil
}

// resolveRepository fills the GitHub owner and repository from the remote
// URL when the configuration leaves them out.
func (a *app) resolveRepository(repo *git.Repo) {
	gh := &a.cfg.GitHub
	if gh.Owner != "" && gh.Repo != "" {
		return
	}

	url, err := repo.RemoteURL(a.cfg.Remote)
	if err != nil {
		a.logger.Debug(fmt.Sprintf("Could not read remote '%s' URL", a.cfg.Remote), "error", err)
		return
	}

	owner, name, ok := config.ParseRemoteURL(url)
	if !ok {
		return
	}
	if gh.Owner == "" {
		gh.Owner = owner
	}
	if gh.Repo == "" {
		gh.Repo = name
	}
}

func (a *app) newRelease(ctx context.Context, repo *git.Repo) (release.Release, error) {
	cfg := a.cfg
	cc := cfg.ChangelogContext()

	switch cfg.Mode {
	case config.ModeTrunk:
		return release.NewTrunk(ctx, release.TrunkOptions{
			Git:              repo,
			ChangelogContext: &cc,
			Logger:           a.logger,
		})
	default:
		return release.NewSemantic(release.SemanticOptions{
			Git:                repo,
			StableBranch:       cfg.StableBranch,
			PreReleaseBranches: cfg.PreReleaseBranches,
			InitialVersion:     cfg.InitialVersion,
			ChangelogContext:   &cc,
			Logger:             a.logger,
		})
	}
}

func (a *app) newStrategy(repo *git.Repo, rel release.Release) (*strategy.GithubNpmPackage, error) {
	cfg := a.cfg
	base, upload := cfg.GitHubURLs()

	gh, err := github.New(github.Options{
		Owner:     cfg.GitHub.Owner,
		Repo:      cfg.GitHub.Repo,
		Token:     cfg.GitHub.Token,
		BaseURL:   base,
		UploadURL: upload,
		FS:        repo.Worktree(),
		Logger:    a.logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, fmt.Sprintf("failed to create GitHub client: %v", err))
	}

	runner := executor.New(a.logger, executor.WithStderrWriter(a.stderr))
	packageDir := filepath.Join(cfg.WorkingDirectory, cfg.PackageRoot)

	branches := make(map[string]strategy.BranchConfig, len(cfg.Branches))
	for name, b := range cfg.Branches {
		branches[name] = strategy.BranchConfig{StableGithubRelease: b.StableGithubRelease, NpmDistTag: b.NpmDistTag}
	}

	assets := make([]commands.ReleaseAsset, 0, len(cfg.ReleaseAssets))
	for _, as := range cfg.ReleaseAssets {
		assets = append(assets, commands.ReleaseAsset{Path: as.Path, Name: as.Name, Label: as.Label})
	}

	return strategy.NewGithubNpmPackage(strategy.GithubNpmPackageOptions{
		Release:          rel,
		Git:              repo,
		GitHub:           gh,
		Npm:              npm.NewCLI(runner, packageDir, a.logger),
		FS:               repo.Worktree(),
		Remote:           cfg.Remote,
		GitActor:         cfg.GitActor,
		PackageDir:       cfg.PackageRoot,
		ChangelogPath:    cfg.ChangelogFile,
		PrependChangelog: !cfg.Regenerate(),
		Owner:            cfg.GitHub.Owner,
		Repo:             cfg.GitHub.Repo,
		Branches:         branches,
		NpmRegistry:      cfg.Npm.Registry,
		UndoPublish:      cfg.Npm.UndoPublish,
		ReleaseAssets:    assets,
		Logger:           a.logger,
	})
}
