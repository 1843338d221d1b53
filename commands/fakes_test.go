package commands

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

// fakeGit keeps refs in maps. Methods listed in fail return the given error.
type fakeGit struct {
	current    string
	branches   map[string]bool
	tags       map[string]bool
	remoteRefs map[plumbing.ReferenceName]string
	staged     []string
	commits    []string
	signature  *git.Signature
	fail       map[string]error
	calls      []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		current:    "main",
		branches:   map[string]bool{"main": true},
		tags:       map[string]bool{},
		remoteRefs: map[plumbing.ReferenceName]string{},
		fail:       map[string]error{},
	}
}

func (g *fakeGit) call(name string) error {
	g.calls = append(g.calls, name)
	return g.fail[name]
}

func (g *fakeGit) CurrentBranch(context.Context) (string, error) {
	if err := g.call("CurrentBranch"); err != nil {
		return "", err
	}
	return g.current, nil
}

func (g *fakeGit) BranchExists(_ context.Context, name string) (bool, error) {
	if err := g.call("BranchExists"); err != nil {
		return false, err
	}
	return g.branches[name], nil
}

func (g *fakeGit) Switch(_ context.Context, branch string, create bool) error {
	if err := g.call("Switch"); err != nil {
		return err
	}
	if create {
		if g.branches[branch] {
			return git.ErrBranchExists
		}
		g.branches[branch] = true
	} else if !g.branches[branch] {
		return git.ErrBranchMissing
	}
	g.current = branch
	return nil
}

func (g *fakeGit) DeleteBranch(_ context.Context, name string) error {
	if err := g.call("DeleteBranch"); err != nil {
		return err
	}
	if !g.branches[name] {
		return git.ErrBranchMissing
	}
	delete(g.branches, name)
	return nil
}

func (g *fakeGit) TagExists(_ context.Context, name string) (bool, error) {
	if err := g.call("TagExists"); err != nil {
		return false, err
	}
	return g.tags[name], nil
}

func (g *fakeGit) CreateTag(_ context.Context, name, _ string) error {
	if err := g.call("CreateTag"); err != nil {
		return err
	}
	g.tags[name] = true
	return nil
}

func (g *fakeGit) DeleteTag(_ context.Context, name string) error {
	if err := g.call("DeleteTag"); err != nil {
		return err
	}
	delete(g.tags, name)
	return nil
}

func (g *fakeGit) Add(_ context.Context, paths ...string) error {
	if err := g.call("Add"); err != nil {
		return err
	}
	g.staged = append(g.staged, paths...)
	return nil
}

func (g *fakeGit) Commit(_ context.Context, message string, sig *git.Signature) (string, error) {
	if err := g.call("Commit"); err != nil {
		return "", err
	}
	g.commits = append(g.commits, message)
	g.signature = sig
	return fmt.Sprintf("%040d", len(g.commits)), nil
}

func (g *fakeGit) ResetToParent(context.Context) error {
	if err := g.call("ResetToParent"); err != nil {
		return err
	}
	g.commits = g.commits[:len(g.commits)-1]
	return nil
}

func (g *fakeGit) RemoteRefHash(_ context.Context, _ string, ref plumbing.ReferenceName) (string, error) {
	if err := g.call("RemoteRefHash"); err != nil {
		return "", err
	}
	return g.remoteRefs[ref], nil
}

func (g *fakeGit) PushTag(_ context.Context, _ string, tag string) error {
	if err := g.call("PushTag"); err != nil {
		return err
	}
	g.remoteRefs[plumbing.NewTagReferenceName(tag)] = "pushed"
	return nil
}

func (g *fakeGit) PushBranch(_ context.Context, _ string, branch string) error {
	if err := g.call("PushBranch"); err != nil {
		return err
	}
	g.remoteRefs[plumbing.NewBranchReferenceName(branch)] = "pushed"
	return nil
}

func (g *fakeGit) DeleteRemoteRef(_ context.Context, _ string, ref plumbing.ReferenceName) error {
	if err := g.call("DeleteRemoteRef"); err != nil {
		return err
	}
	delete(g.remoteRefs, ref)
	return nil
}

// fakeNpm rewrites the manifest the way npm version does.
type fakeNpm struct {
	fs        billy.Filesystem
	dir       string
	calls     []string
	published []npm.PublishOptions
	fail      map[string]error
}

func newFakeNpm(fs billy.Filesystem, dir string) *fakeNpm {
	return &fakeNpm{fs: fs, dir: dir, fail: map[string]error{}}
}

func (n *fakeNpm) setManifestVersion(version string) error {
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

func (n *fakeNpm) SetVersion(_ context.Context, version string) error {
	n.calls = append(n.calls, "version "+version)
	if err := n.fail["SetVersion"]; err != nil {
		return err
	}
	return n.setManifestVersion(version)
}

func (n *fakeNpm) PreRelease(_ context.Context, id string) error {
	n.calls = append(n.calls, "prerelease "+id)
	if err := n.fail["PreRelease"]; err != nil {
		return err
	}

	pkg, err := npm.ReadPackage(n.fs, n.dir)
	if err != nil {
		return err
	}
	return n.setManifestVersion(pkg.Version + "-" + id + ".0")
}

func (n *fakeNpm) Publish(_ context.Context, opts npm.PublishOptions) error {
	n.calls = append(n.calls, "publish")
	if err := n.fail["Publish"]; err != nil {
		return err
	}
	n.published = append(n.published, opts)
	return nil
}

func (n *fakeNpm) Unpublish(_ context.Context, spec string) error {
	n.calls = append(n.calls, "unpublish "+spec)
	return n.fail["Unpublish"]
}

// fakeGitHub records API calls. Per-issue comment failures come from
// commentErrs.
type fakeGitHub struct {
	mu sync.Mutex

	calls       []string
	releases    []github.NewRelease
	uploads     []github.Asset
	nextID      int64
	fail        map[string]error
	commentErrs map[int]error
	deleted     []int64
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{fail: map[string]error{}, commentErrs: map[int]error{}, nextID: 100}
}

func (f *fakeGitHub) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
	return f.fail[call]
}

func (f *fakeGitHub) CreatePullRequest(_ context.Context, pr github.NewPullRequest) (*github.PullRequest, error) {
	if err := f.record("CreatePullRequest"); err != nil {
		return nil, err
	}
	return &github.PullRequest{Number: 7, HTMLURL: "https://github.com/octo/app/pull/7"}, nil
}

func (f *fakeGitHub) ClosePullRequest(_ context.Context, number int) error {
	return f.record(fmt.Sprintf("ClosePullRequest %d", number))
}

func (f *fakeGitHub) CreateRelease(_ context.Context, r github.NewRelease) (*github.Release, error) {
	if err := f.record("CreateRelease"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.releases = append(f.releases, r)
	f.mu.Unlock()
	return &github.Release{ID: 42, HTMLURL: "https://github.com/octo/app/releases/tag/" + r.TagName}, nil
}

func (f *fakeGitHub) PublishRelease(_ context.Context, id int64) (*github.Release, error) {
	if err := f.record("PublishRelease"); err != nil {
		return nil, err
	}
	return &github.Release{ID: id, HTMLURL: "https://github.com/octo/app/releases/tag/published"}, nil
}

func (f *fakeGitHub) DeleteRelease(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("DeleteRelease %d", id))
}

func (f *fakeGitHub) UploadAsset(_ context.Context, _ *github.Release, asset github.Asset) error {
	if err := f.record("UploadAsset"); err != nil {
		return err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, asset)
	f.mu.Unlock()
	return nil
}

func (f *fakeGitHub) CreateComment(_ context.Context, issue int, _ string) (*github.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fmt.Sprintf("CreateComment %d", issue))
	if err := f.commentErrs[issue]; err != nil {
		return nil, err
	}
	f.nextID++
	return &github.Comment{ID: f.nextID, HTMLURL: fmt.Sprintf("https://github.com/octo/app/issues/%d#issuecomment-%d", issue, f.nextID)}, nil
}

func (f *fakeGitHub) DeleteComment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "DeleteComment")
	if err := f.fail["DeleteComment"]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}
