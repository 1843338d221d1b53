package release

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/release/changelog"
	"github.com/input-output-hk/catalyst-forge-libs/release/git"
)

// fakeGit serves canned answers and counts queries.
type fakeGit struct {
	mu sync.Mutex

	branch     string
	head       string
	tags       []git.MergedTag
	commits    map[string][]git.Commit
	remoteTags map[string]string

	calls map[string]int
}

func newFakeGit(branch, head string) *fakeGit {
	return &fakeGit{
		branch:     branch,
		head:       head,
		commits:    map[string][]git.Commit{},
		remoteTags: map[string]string{},
		calls:      map[string]int{},
	}
}

func (f *fakeGit) count(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call]++
}

func (f *fakeGit) RefName(_ context.Context, ref string) (string, error) {
	f.count("RefName " + ref)
	return f.branch, nil
}

func (f *fakeGit) RefHash(_ context.Context, ref string) (string, error) {
	f.count("RefHash " + ref)
	return f.head, nil
}

func (f *fakeGit) Commits(_ context.Context, rng string) ([]git.Commit, error) {
	f.count("Commits " + rng)

	commits, ok := f.commits[rng]
	if !ok {
		return nil, fmt.Errorf("unexpected range %q", rng)
	}

	return commits, nil
}

func (f *fakeGit) MergedTags(_ context.Context, ref string) ([]git.MergedTag, error) {
	f.count("MergedTags " + ref)
	return f.tags, nil
}

func (f *fakeGit) RemoteTagHash(_ context.Context, tag string) (string, error) {
	f.count("RemoteTagHash " + tag)
	return f.remoteTags[tag], nil
}

func commit(hash, message string) git.Commit {
	return git.Commit{Hash: hash, Subject: message}
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func writerContext() *changelog.Context {
	return &changelog.Context{
		Host:       "https://github.com",
		Owner:      "octo",
		Repository: "app",
		RepoURL:    "https://github.com/octo/app",
		Date:       "2024-01-01",
	}
}
