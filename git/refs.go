package git

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
)

// RefHash resolves ref (branch, tag, hash, HEAD or any revision go-git
// understands) to a full commit hash.
func (r *Repo) RefHash(ctx context.Context, ref string) (string, error) {
	hash, err := r.resolve(ref)
	if err != nil {
		return "", err
	}

	return hash.String(), nil
}

// RefName returns the short symbolic name of ref. For "HEAD" this is the
// current branch, or "HEAD" itself when detached.
func (r *Repo) RefName(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", WrapError(ErrInvalidRef, "ref cannot be empty")
	}

	if ref == plumbing.HEAD.String() {
		head, err := r.repo.Head()
		if err != nil {
			return "", WrapError(ErrResolveFailed, "failed to resolve HEAD")
		}
		if !head.Name().IsBranch() {
			return plumbing.HEAD.String(), nil
		}

		return head.Name().Short(), nil
	}

	candidates := []plumbing.ReferenceName{
		plumbing.ReferenceName(ref),
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewTagReferenceName(ref),
		plumbing.ReferenceName("refs/remotes/" + ref),
	}
	for _, name := range candidates {
		_, err := r.repo.Reference(name, false)
		if err == nil {
			return name.Short(), nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", WrapErrorf(err, "failed to read reference %s", name)
		}
	}

	return "", WrapErrorf(ErrResolveFailed, "%s is not a symbolic reference", ref)
}

// CurrentBranch returns the checked out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.RefName(ctx, plumbing.HEAD.String())
	if err != nil {
		return "", err
	}
	if name == plumbing.HEAD.String() {
		return "", WrapError(ErrInvalidRef, "HEAD is detached")
	}

	return name, nil
}

func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	if rev == "" {
		return plumbing.ZeroHash, WrapError(ErrInvalidRef, "revision cannot be empty")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, WrapErrorf(ErrResolveFailed, "failed to resolve %q", rev)
	}

	return *hash, nil
}
