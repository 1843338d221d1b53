package commands

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
	"github.com/input-output-hk/catalyst-forge-libs/release/github"
)

func status(code int) error {
	return &github.StatusError{StatusCode: code, Err: stderrors.New(http.StatusText(code))}
}

func TestGithubPullRequest(t *testing.T) {
	gh := newFakeGitHub()
	logger, buf := bufferLogger()

	c := NewGithubPullRequest(GithubPullRequestOptions{GitHub: gh, Title: "t", Head: "1.2.0", Base: "main", Logger: logger})
	require.NoError(t, c.Do(context.Background()))
	require.NoError(t, c.Undo(context.Background()))

	assert.Equal(t, []string{"CreatePullRequest", "ClosePullRequest 7"}, gh.calls)
	assert.Contains(t, buf.String(), "Closed pull request: https://github.com/octo/app/pull/7")
}

func TestGithubPullRequestFailures(t *testing.T) {
	gh := newFakeGitHub()
	gh.fail["CreatePullRequest"] = status(http.StatusUnprocessableEntity)

	c := NewGithubPullRequest(GithubPullRequestOptions{GitHub: gh})
	err := c.Do(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to create pull request. Status code is 422", err.Error())
	assert.Equal(t, errors.CodeExternal, errors.CodeOf(err))

	require.NoError(t, c.Undo(context.Background()))
	assert.Equal(t, []string{"CreatePullRequest"}, gh.calls)

	gh = newFakeGitHub()
	gh.fail["ClosePullRequest 7"] = status(http.StatusForbidden)
	c = NewGithubPullRequest(GithubPullRequestOptions{GitHub: gh})
	require.NoError(t, c.Do(context.Background()))

	err = c.Undo(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to close pull request https://github.com/octo/app/pull/7. Status code is 403", err.Error())
}

func TestGithubReleaseWithoutAssets(t *testing.T) {
	gh := newFakeGitHub()

	c := NewGithubRelease(GithubReleaseOptions{GitHub: gh, TagName: "v1.0.0", Name: "v1.0.0", Body: "notes", Stable: true})
	require.NoError(t, c.Do(context.Background()))

	require.Len(t, gh.releases, 1)
	assert.False(t, gh.releases[0].Draft)
	assert.False(t, gh.releases[0].Prerelease)
	assert.Equal(t, []string{"CreateRelease"}, gh.calls)

	require.NoError(t, c.Undo(context.Background()))
	assert.Equal(t, []string{"CreateRelease", "DeleteRelease 42"}, gh.calls)
}

func TestGithubReleaseWithAssets(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "dist/app.tgz", []byte("a"), 0o644))
	require.NoError(t, util.WriteFile(fs, "other/app.tgz", []byte("b"), 0o644))
	require.NoError(t, util.WriteFile(fs, "dist/notes.txt", []byte("c"), 0o644))

	gh := newFakeGitHub()
	logger, buf := bufferLogger()

	c := NewGithubRelease(GithubReleaseOptions{
		GitHub:  gh,
		TagName: "v1.0.0-beta.0",
		Name:    "v1.0.0-beta.0",
		FS:      fs,
		Assets: []ReleaseAsset{
			{Path: "dist/app.tgz"},
			{Path: "other/app.tgz"},
			{Path: "dist/notes.txt", Name: "NOTES", Label: "Release notes"},
		},
		Logger: logger,
	})
	require.NoError(t, c.Do(context.Background()))

	require.Len(t, gh.releases, 1)
	assert.True(t, gh.releases[0].Draft)
	assert.True(t, gh.releases[0].Prerelease)

	names := []string{gh.uploads[0].Name, gh.uploads[1].Name}
	sort.Strings(names)
	assert.Equal(t, []string{"NOTES", "app.tgz"}, names)
	assert.Equal(t, "PublishRelease", gh.calls[len(gh.calls)-1])

	out := buf.String()
	assert.Contains(t, out, "An asset named 'app.tgz' already exists")
	assert.Contains(t, out, "Duplicate asset will be filtered out")
}

func TestGithubReleaseFailures(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "dist/app.tgz", []byte("a"), 0o644))
	require.NoError(t, fs.MkdirAll("dist/dir", 0o755))

	tests := []struct {
		name     string
		assets   []ReleaseAsset
		fail     map[string]error
		wantErr  string
		wantCode errors.ErrorCode
		created  bool
	}{
		{
			name:     "missing asset",
			assets:   []ReleaseAsset{{Path: "dist/missing.zip"}},
			wantErr:  "File 'dist/missing.zip' does not exist or is not a file",
			wantCode: errors.CodeNotFound,
		},
		{
			name:     "asset is a directory",
			assets:   []ReleaseAsset{{Path: "dist/dir"}},
			wantErr:  "File 'dist/dir' does not exist or is not a file",
			wantCode: errors.CodeNotFound,
		},
		{
			name:     "create fails",
			fail:     map[string]error{"CreateRelease": status(http.StatusNotFound)},
			wantErr:  "Failed to create release. Status code is 404",
			wantCode: errors.CodeExternal,
		},
		{
			name:     "upload fails",
			assets:   []ReleaseAsset{{Path: "dist/app.tgz"}},
			fail:     map[string]error{"UploadAsset": status(http.StatusBadGateway)},
			wantErr:  "Failed to upload asset 'dist/app.tgz'. Status code is 502",
			wantCode: errors.CodeExternal,
			created:  true,
		},
		{
			name:     "publish fails",
			assets:   []ReleaseAsset{{Path: "dist/app.tgz"}},
			fail:     map[string]error{"PublishRelease": status(http.StatusInternalServerError)},
			wantErr:  "Failed to take release out of draft mode. Status code is 500",
			wantCode: errors.CodeExternal,
			created:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := newFakeGitHub()
			for k, v := range tt.fail {
				gh.fail[k] = v
			}

			c := NewGithubRelease(GithubReleaseOptions{GitHub: gh, TagName: "v1.0.0", FS: fs, Assets: tt.assets})

			err := c.Do(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))

			require.NoError(t, c.Undo(context.Background()))
			if tt.created {
				assert.Contains(t, gh.calls, "DeleteRelease 42")
			} else {
				assert.NotContains(t, gh.calls, "DeleteRelease 42")
			}
		})
	}
}

func TestGithubIssueComments(t *testing.T) {
	gh := newFakeGitHub()
	gh.commentErrs[4] = status(http.StatusNotFound)
	gh.commentErrs[5] = status(http.StatusGone)
	logger, buf := bufferLogger()

	c := NewGithubIssueComments(GithubIssueCommentsOptions{
		GitHub: gh,
		Comments: []IssueComment{
			{Issue: 3, Body: "a"},
			{Issue: 4, Body: "b"},
			{Issue: 5, Body: "c"},
			{Issue: 6, Body: "d"},
		},
		Logger: logger,
	})
	require.NoError(t, c.Do(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Could not find issue '4'. Comment was not created.")
	assert.Contains(t, out, "Could not find issue '5'. Comment was not created.")

	require.NoError(t, c.Undo(context.Background()))
	assert.Len(t, gh.deleted, 2)
}

func TestGithubIssueCommentsHardFailure(t *testing.T) {
	gh := newFakeGitHub()
	gh.commentErrs[9] = status(http.StatusInternalServerError)

	c := NewGithubIssueComments(GithubIssueCommentsOptions{
		GitHub:   gh,
		Comments: []IssueComment{{Issue: 9, Body: "x"}},
	})

	err := c.Do(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to create a comment in issue '9'. Status code is 500", err.Error())
}

func TestGithubIssueCommentsUndoFailure(t *testing.T) {
	gh := newFakeGitHub()

	c := NewGithubIssueComments(GithubIssueCommentsOptions{
		GitHub:   gh,
		Comments: []IssueComment{{Issue: 1, Body: "x"}, {Issue: 2, Body: "y"}},
	})
	require.NoError(t, c.Do(context.Background()))

	gh.fail["DeleteComment"] = status(http.StatusForbidden)
	err := c.Undo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Status code is 403")
	assert.Equal(t, 2, countCalls(gh.calls, "DeleteComment"))

	// Failed deletions stay pending for another attempt.
	delete(gh.fail, "DeleteComment")
	require.NoError(t, c.Undo(context.Background()))
	assert.Len(t, gh.deleted, 2)
}
