package git

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    logRange
		wantErr bool
	}{
		{name: "empty means HEAD", input: "", want: logRange{from: "HEAD"}},
		{name: "single revision", input: "abc123", want: logRange{from: "abc123"}},
		{name: "since", input: "abc123..", want: logRange{from: "HEAD", exclude: "abc123"}},
		{name: "since until", input: "v1.0.0..v1.1.0", want: logRange{from: "v1.1.0", exclude: "v1.0.0"}},
		{name: "limit only", input: "-1", want: logRange{from: "HEAD", limit: 1}},
		{name: "revision with limit", input: "abc123 -1", want: logRange{from: "abc123", limit: 1}},
		{name: "bad limit", input: "-x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRange(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		message     string
		wantSubject string
		wantBody    string
	}{
		{message: "feat: add thing\n", wantSubject: "feat: add thing"},
		{message: "fix: a\n\nlonger body\nsecond line\n", wantSubject: "fix: a", wantBody: "longer body\nsecond line"},
		{message: "wrapped\nsubject\n\nbody", wantSubject: "wrapped subject", wantBody: "body"},
	}

	for _, tt := range tests {
		subject, body := splitMessage(tt.message)
		assert.Equal(t, tt.wantSubject, subject)
		assert.Equal(t, tt.wantBody, body)
	}
}

func TestCommits(t *testing.T) {
	ctx := context.Background()
	r, first := setupTestRepoWithCommit(t)
	second := commitFile(t, r, "a.txt", "a", "feat: add a\n\ncloses #12")
	third := commitFile(t, r, "b.txt", "b", "fix: fix b")
	require.NoError(t, r.CreateTag(ctx, "v0.1.0", second))

	tests := []struct {
		name string
		rng  string
		want []string
	}{
		{name: "all from HEAD", rng: "HEAD", want: []string{third, second, first}},
		{name: "since tag commit", rng: second + "..", want: []string{third}},
		{name: "until commit", rng: second, want: []string{second, first}},
		{name: "head only", rng: "-1", want: []string{third}},
		{name: "commit with limit", rng: second + " -1", want: []string{second}},
		{name: "tag range", rng: "v0.1.0..HEAD", want: []string{third}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commits, err := r.Commits(ctx, tt.rng)
			require.NoError(t, err)

			hashes := make([]string, 0, len(commits))
			for _, c := range commits {
				hashes = append(hashes, c.Hash)
			}
			assert.Equal(t, tt.want, hashes)
		})
	}

	t.Run("fields", func(t *testing.T) {
		commits, err := r.Commits(ctx, second+" -1")
		require.NoError(t, err)
		require.Len(t, commits, 1)

		c := commits[0]
		assert.Equal(t, "feat: add a", c.Subject)
		assert.Equal(t, "closes #12", c.Body)
		assert.Equal(t, []string{"v0.1.0"}, c.Tags)
		assert.Equal(t, Person{Name: "Test User", Email: "test@example.com"}, c.Author)
		assert.Equal(t, c.Author, c.Committer)
		assert.Equal(t, second[:7], c.ShortHash())
		assert.NotZero(t, c.CommittedTimestamp)
		assert.Equal(t, "feat: add a\n\ncloses #12", c.Message())
	})

	t.Run("unknown revision", func(t *testing.T) {
		_, err := r.Commits(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrResolveFailed)
	})
}

func TestLog(t *testing.T) {
	ctx := context.Background()
	r, _ := setupTestRepoWithCommit(t)
	hash := commitFile(t, r, "a.txt", "a", "feat: add a")
	require.NoError(t, r.CreateTag(ctx, "v1.0.0", hash))
	require.NoError(t, r.CreateTag(ctx, "latest", hash))

	lines, err := r.Log(ctx, "-1", "%h|%s|%D|%an <%ae>|100%%")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, hash[:7]+"|feat: add a|tag: latest, tag: v1.0.0|Test User <test@example.com>|100%", lines[0])
}

func TestFormatCommitUnknownPlaceholder(t *testing.T) {
	c := Commit{Hash: "0123456789abcdef", Notes: "note", CommittedTimestamp: 5000}
	assert.Equal(t, "%x note 5 %", formatCommit(c, "%x %N %ct %"))
}

func TestMergedTags(t *testing.T) {
	ctx := context.Background()
	r, first := setupTestRepoWithCommit(t)
	second := commitFile(t, r, "a.txt", "a", "feat: a")

	require.NoError(t, r.CreateTag(ctx, "v0.1.0", first))
	_, err := r.repo.CreateTag("v0.2.0", plumbing.NewHash(second), &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test User", Email: "test@example.com", When: testClock},
		Message: "release 0.2.0",
	})
	require.NoError(t, err)

	require.NoError(t, r.Switch(ctx, "feature", true))
	unmerged := commitFile(t, r, "b.txt", "b", "feat: b")
	require.NoError(t, r.CreateTag(ctx, "v9.9.9", unmerged))
	require.NoError(t, r.Switch(ctx, "master", false))

	tags, err := r.MergedTags(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []MergedTag{
		{Name: "v0.1.0", Hash: first},
		{Name: "v0.2.0", Hash: second},
	}, tags)

	tags, err = r.MergedTags(ctx, "feature")
	require.NoError(t, err)
	assert.Len(t, tags, 3)
}
