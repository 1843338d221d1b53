package strategy

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

type fixture struct {
	repo    *fakeRepo
	github  *fakeGitHub
	npm     *fakeNpm
	release *fakeRelease
	opts    GithubNpmPackageOptions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "package.json", []byte(`{"name":"app","version":"1.0.0"}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "CHANGELOG.md", []byte("## 1.0.0 notes\n"), 0o644))

	f := &fixture{
		repo:   newFakeRepo(),
		github: newFakeGitHub(),
		npm:    &fakeNpm{fs: fs, dir: ".", fail: map[string]error{}},
		release: &fakeRelease{
			versions:  []string{"1.0.0", "0.1.0"},
			previous:  "1.0.0",
			next:      "1.1.0",
			changelog: "## 1.1.0 notes\n",
			byVersion: map[string]string{"1.0.0": "## 1.0.0 notes\n", "0.1.0": ""},
			issues:    []string{"12", "ABC-1", "7"},
		},
	}

	f.opts = GithubNpmPackageOptions{
		Release:  f.release,
		Git:      f.repo,
		GitHub:   f.github,
		Npm:      f.npm,
		FS:       fs,
		GitActor: "release-bot <bot@example.com>",
		Owner:    "octo",
		Repo:     "app",
		Branches: map[string]BranchConfig{
			"main": {StableGithubRelease: true, NpmDistTag: "latest"},
			"beta": {NpmDistTag: "beta"},
			"next": {},
		},
	}

	return f
}

func names(cmds []command.Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name())
	}
	return out
}

func TestGithubNpmPackageCommands(t *testing.T) {
	tests := []struct {
		name      string
		changelog string
		prepend   bool
		want      []string
	}{
		{
			name:      "with changelog",
			changelog: "## 1.1.0 notes\n",
			want: []string{
				"GitTag", "GitSwitch", "FileWriter", "NpmBump", "GitCommit", "GitPush",
				"GitSwitch", "GithubPullRequest", "GithubRelease", "GithubIssueComments", "NpmPublish",
			},
		},
		{
			name:    "nothing to write",
			prepend: true,
			want: []string{
				"GitTag", "GitSwitch", "NpmBump", "GitCommit", "GitPush",
				"GitSwitch", "GithubPullRequest", "GithubRelease", "GithubIssueComments", "NpmPublish",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.release.changelog = tt.changelog
			f.opts.PrependChangelog = tt.prepend

			s, err := NewGithubNpmPackage(f.opts)
			require.NoError(t, err)
			assert.Equal(t, "GithubNpmPackageStrategy", s.Name())

			cmds, err := s.Commands(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(cmds))
		})
	}
}

func TestGithubNpmPackageBranchConfig(t *testing.T) {
	tests := []struct {
		branch  string
		wantErr string
	}{
		{branch: "feature", wantErr: "Branch 'feature' is missing config"},
		{branch: "next", wantErr: "registry dist tag is missing"},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			f := newFixture(t)
			f.repo.current = tt.branch

			s, err := NewGithubNpmPackage(f.opts)
			require.NoError(t, err)

			_, err = s.Commands(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
		})
	}
}

func TestGithubNpmPackageDefaultReleaseBranches(t *testing.T) {
	f := newFixture(t)
	f.repo.current = "feature"
	f.repo.hashes["feature"] = "abc123"

	s, err := NewGithubNpmPackage(f.opts)
	require.NoError(t, err)

	ok, err := s.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGithubNpmPackageChangelog(t *testing.T) {
	t.Run("regenerates from every version", func(t *testing.T) {
		f := newFixture(t)
		s, err := NewGithubNpmPackage(f.opts)
		require.NoError(t, err)

		content, mode, err := s.changelog(context.Background(), f.release.changelog)
		require.NoError(t, err)
		assert.Equal(t, "replace", string(mode))
		assert.Equal(t, "## 1.1.0 notes\n\n## 1.0.0 notes\n", content)
	})

	t.Run("prepends next only", func(t *testing.T) {
		f := newFixture(t)
		f.opts.PrependChangelog = true
		s, err := NewGithubNpmPackage(f.opts)
		require.NoError(t, err)

		content, mode, err := s.changelog(context.Background(), f.release.changelog)
		require.NoError(t, err)
		assert.Equal(t, "prepend", string(mode))
		assert.Equal(t, "## 1.1.0 notes\n", content)
	})

	t.Run("unknown version fails", func(t *testing.T) {
		f := newFixture(t)
		f.release.versions = append(f.release.versions, "0.0.1")
		s, err := NewGithubNpmPackage(f.opts)
		require.NoError(t, err)

		_, _, err = s.changelog(context.Background(), f.release.changelog)
		require.Error(t, err)
	})
}

func TestGithubNpmPackageIssueComments(t *testing.T) {
	f := newFixture(t)
	s, err := NewGithubNpmPackage(f.opts)
	require.NoError(t, err)

	comments, err := s.issueComments(context.Background(), "v1.1.0")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, 12, comments[0].Issue)
	assert.Equal(t, 7, comments[1].Issue)
	assert.Equal(t,
		":mailbox: &nbsp; This issue was mentioned in release [v1.1.0](https://github.com/octo/app/releases/tag/v1.1.0)",
		comments[0].Body)
}

func TestNewGithubNpmPackageValidation(t *testing.T) {
	_, err := NewGithubNpmPackage(GithubNpmPackageOptions{})
	require.Error(t, err)
	assert.Equal(t, "missing strategy dependencies: release, git, github, npm, filesystem", err.Error())
	assert.Equal(t, errors.CodeInvalidConfig, errors.CodeOf(err))
}
