package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/release/git"
	"github.com/input-output-hk/catalyst-forge-libs/release/github"
	"github.com/input-output-hk/catalyst-forge-libs/release/npm"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type fakeRelease struct {
	versions  []string
	previous  string
	next      string
	changelog string
	byVersion map[string]string
	issues    []string
	err       error
}

func (r *fakeRelease) Versions(context.Context) ([]string, error) { return r.versions, r.err }

func (r *fakeRelease) PreviousVersion(context.Context) (string, error) { return r.previous, r.err }

func (r *fakeRelease) NextVersion(context.Context) (string, error) { return r.next, r.err }

func (r *fakeRelease) Changelog(context.Context) (string, error) { return r.changelog, r.err }

func (r *fakeRelease) ChangelogByVersion(_ context.Context, v string) (string, error) {
	log, ok := r.byVersion[v]
	if !ok {
		return "", fmt.Errorf("unknown version %s", v)
	}
	return log, nil
}

func (r *fakeRelease) MentionedIssues(context.Context) ([]string, error) { return r.issues, r.err }

// fakeRepo is an in-memory repository with one remote.
type fakeRepo struct {
	current    string
	branches   map[string]bool
	hashes     map[string]string
	tags       map[string]bool
	remoteRefs map[plumbing.ReferenceName]string
	commits    []string
	staged     []string
	fail       map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		current:    "main",
		branches:   map[string]bool{"main": true},
		hashes:     map[string]string{"main": "abc123"},
		tags:       map[string]bool{},
		remoteRefs: map[plumbing.ReferenceName]string{plumbing.NewBranchReferenceName("main"): "abc123"},
		fail:       map[string]error{},
	}
}

func (g *fakeRepo) RefName(context.Context, string) (string, error) {
	if err := g.fail["RefName"]; err != nil {
		return "", err
	}
	return g.current, nil
}

func (g *fakeRepo) RefHash(_ context.Context, ref string) (string, error) {
	return g.hashes[ref], nil
}

func (g *fakeRepo) RemoteBranchHash(_ context.Context, branch string) (string, error) {
	return g.remoteRefs[plumbing.NewBranchReferenceName(branch)], nil
}

func (g *fakeRepo) CurrentBranch(context.Context) (string, error) { return g.current, nil }

func (g *fakeRepo) BranchExists(_ context.Context, name string) (bool, error) {
	return g.branches[name], nil
}

func (g *fakeRepo) Switch(_ context.Context, branch string, create bool) error {
	if create {
		g.branches[branch] = true
	} else if !g.branches[branch] {
		return git.ErrBranchMissing
	}
	g.current = branch
	return nil
}

func (g *fakeRepo) DeleteBranch(_ context.Context, name string) error {
	delete(g.branches, name)
	return nil
}

func (g *fakeRepo) TagExists(_ context.Context, name string) (bool, error) { return g.tags[name], nil }

func (g *fakeRepo) CreateTag(_ context.Context, name, _ string) error {
	g.tags[name] = true
	return nil
}

func (g *fakeRepo) DeleteTag(_ context.Context, name string) error {
	delete(g.tags, name)
	return nil
}

func (g *fakeRepo) Add(_ context.Context, paths ...string) error {
	g.staged = append(g.staged, paths...)
	return nil
}

func (g *fakeRepo) Commit(_ context.Context, message string, _ *git.Signature) (string, error) {
	g.commits = append(g.commits, message)
	return "def456", nil
}

func (g *fakeRepo) ResetToParent(context.Context) error {
	g.commits = g.commits[:len(g.commits)-1]
	return nil
}

func (g *fakeRepo) RemoteRefHash(_ context.Context, _ string, ref plumbing.ReferenceName) (string, error) {
	return g.remoteRefs[ref], nil
}

func (g *fakeRepo) PushTag(_ context.Context, _ string, tag string) error {
	g.remoteRefs[plumbing.NewTagReferenceName(tag)] = "pushed"
	return nil
}

func (g *fakeRepo) PushBranch(_ context.Context, _ string, branch string) error {
	g.remoteRefs[plumbing.NewBranchReferenceName(branch)] = "pushed"
	return nil
}

func (g *fakeRepo) DeleteRemoteRef(_ context.Context, _ string, ref plumbing.ReferenceName) error {
	delete(g.remoteRefs, ref)
	return nil
}

// fakeNpm rewrites the manifest version the way npm version does.
type fakeNpm struct {
	fs        billy.Filesystem
	dir       string
	published []npm.PublishOptions
	fail      map[string]error
}

func (n *fakeNpm) SetVersion(_ context.Context, version string) error {
	p := path.Join(n.dir, npm.ManifestName)

	data, err := util.ReadFile(n.fs, p)
	if err != nil {
		return err
	}

	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		return err
	}
	manifest["version"] = version

	out, err := json.Marshal(manifest)
	if err != nil {
		return err
	}
	return util.WriteFile(n.fs, p, out, 0o644)
}

func (n *fakeNpm) PreRelease(context.Context, string) error { return nil }

func (n *fakeNpm) Publish(_ context.Context, opts npm.PublishOptions) error {
	if err := n.fail["Publish"]; err != nil {
		return err
	}
	n.published = append(n.published, opts)
	return nil
}

func (n *fakeNpm) Unpublish(context.Context, string) error { return nil }

type fakeGitHub struct {
	mu sync.Mutex

	prs          []github.NewPullRequest
	closed       []int
	releases     []github.NewRelease
	deleted      []int64
	comments     map[int]string
	deletedNotes int
	nextID       int64
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{comments: map[int]string{}}
}

func (f *fakeGitHub) CreatePullRequest(_ context.Context, pr github.NewPullRequest) (*github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prs = append(f.prs, pr)
	return &github.PullRequest{Number: len(f.prs), HTMLURL: fmt.Sprintf("https://github.com/octo/app/pull/%d", len(f.prs))}, nil
}

func (f *fakeGitHub) ClosePullRequest(_ context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = append(f.closed, number)
	return nil
}

func (f *fakeGitHub) CreateRelease(_ context.Context, r github.NewRelease) (*github.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releases = append(f.releases, r)
	return &github.Release{ID: 42, HTMLURL: "https://github.com/octo/app/releases/tag/" + r.TagName}, nil
}

func (f *fakeGitHub) PublishRelease(_ context.Context, id int64) (*github.Release, error) {
	return &github.Release{ID: id}, nil
}

func (f *fakeGitHub) DeleteRelease(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGitHub) UploadAsset(context.Context, *github.Release, github.Asset) error { return nil }

func (f *fakeGitHub) CreateComment(_ context.Context, issue int, body string) (*github.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.comments[issue] = body
	return &github.Comment{ID: f.nextID}, nil
}

func (f *fakeGitHub) DeleteComment(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletedNotes++
	return nil
}
