package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// RemoteURL returns the first URL configured for remote.
func (r *Repo) RemoteURL(remote string) (string, error) {
	rem, err := r.remote(remote)
	if err != nil {
		return "", err
	}

	return rem.Config().URLs[0], nil
}

// RemoteRefHash returns the hash remote advertises for the full ref name,
// or "" when the remote does not have it.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) RemoteRefHash(ctx context.Context, remote string, ref plumbing.ReferenceName) (string, error) {
	rem, err := r.remote(remote)
	if err != nil {
		return "", err
	}

	auth, err := r.authFor(rem)
	if err != nil {
		return "", err
	}

	refs, err := rem.ListContext(ctx, &git.ListOptions{Auth: auth})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return "", nil
	}
	if err != nil {
		return "", WrapErrorf(err, "failed to list references of remote %s", rem.Config().Name)
	}

	for _, candidate := range refs {
		if candidate.Name() == ref {
			return candidate.Hash().String(), nil
		}
	}

	return "", nil
}

// RemoteTagHash returns the hash of tag on the default remote, or "".
func (r *Repo) RemoteTagHash(ctx context.Context, tag string) (string, error) {
	if tag == "" {
		return "", WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	return r.RemoteRefHash(ctx, r.options.Remote, plumbing.NewTagReferenceName(tag))
}

// RemoteBranchHash returns the hash of branch on the default remote, or "".
// An empty branch means the current branch.
func (r *Repo) RemoteBranchHash(ctx context.Context, branch string) (string, error) {
	if branch == "" {
		current, err := r.CurrentBranch(ctx)
		if err != nil {
			return "", err
		}
		branch = current
	}

	return r.RemoteRefHash(ctx, r.options.Remote, plumbing.NewBranchReferenceName(branch))
}

// Push updates remote with refspecs such as "refs/tags/v1:refs/tags/v1".
// Returns ErrAlreadyUpToDate if nothing changed.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) Push(ctx context.Context, remote string, refspecs ...string) error {
	rem, err := r.remote(remote)
	if err != nil {
		return err
	}

	specs := make([]config.RefSpec, 0, len(refspecs))
	for _, s := range refspecs {
		spec := config.RefSpec(s)
		if err := spec.Validate(); err != nil {
			return WrapErrorf(ErrInvalidRef, "invalid refspec %q", s)
		}
		specs = append(specs, spec)
	}

	auth, err := r.authFor(rem)
	if err != nil {
		return err
	}

	err = rem.PushContext(ctx, &git.PushOptions{RemoteName: rem.Config().Name, RefSpecs: specs, Auth: auth})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return ErrAlreadyUpToDate
	}

	return WrapErrorf(err, "failed to push to remote %s", rem.Config().Name)
}

// PushTag pushes a local tag to remote.
func (r *Repo) PushTag(ctx context.Context, remote, tag string) error {
	ref := plumbing.NewTagReferenceName(tag)
	err := r.Push(ctx, remote, fmt.Sprintf("%s:%s", ref, ref))
	if errors.Is(err, ErrAlreadyUpToDate) {
		return nil
	}

	return err
}

// PushBranch pushes a local branch to remote and records it as the branch's upstream.
func (r *Repo) PushBranch(ctx context.Context, remote, branch string) error {
	rem, err := r.remote(remote)
	if err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	err = r.Push(ctx, rem.Config().Name, fmt.Sprintf("%s:%s", ref, ref))
	if err != nil && !errors.Is(err, ErrAlreadyUpToDate) {
		return err
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return WrapError(err, "failed to read repository config")
	}

	cfg.Branches[branch] = &config.Branch{Name: branch, Remote: rem.Config().Name, Merge: ref}
	if err := r.repo.SetConfig(cfg); err != nil {
		return WrapError(err, "failed to set upstream")
	}

	return nil
}

// DeleteRemoteRef deletes the full ref name from remote. Deleting a ref the
// remote does not have is not an error.
func (r *Repo) DeleteRemoteRef(ctx context.Context, remote string, ref plumbing.ReferenceName) error {
	err := r.Push(ctx, remote, ":"+ref.String())
	if errors.Is(err, ErrAlreadyUpToDate) {
		return nil
	}

	return err
}

func (r *Repo) remote(name string) (*git.Remote, error) {
	if name == "" {
		name = r.options.Remote
	}

	rem, err := r.repo.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return nil, WrapErrorf(ErrRemoteNotFound, "remote %s", name)
	}
	if err != nil {
		return nil, WrapErrorf(err, "failed to read remote %s", name)
	}

	if len(rem.Config().URLs) == 0 {
		return nil, WrapErrorf(ErrRemoteNotFound, "remote %s has no URL", name)
	}

	return rem, nil
}

//nolint:ireturn // go-git requires transport.AuthMethod
func (r *Repo) authFor(rem *git.Remote) (transport.AuthMethod, error) {
	if r.options.Auth == nil {
		return nil, nil
	}

	method, err := r.options.Auth.Method(rem.Config().URLs[0])
	if err != nil {
		return nil, WrapErrorf(ErrAuthRequired, "remote %s: %v", rem.Config().Name, err)
	}

	return method, nil
}

// AddRemote configures a remote named name pointing at url.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	return WrapErrorf(err, "failed to add remote %s", name)
}
