package git

import (
	"context"
	"errors"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Add stages the given paths, relative to the worktree root.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot stage files in a bare repository")
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.worktree.Add(path); err != nil {
			return WrapErrorf(err, "failed to stage %s", path)
		}
	}

	return nil
}

// Commit records the staged changes and returns the new commit hash.
// A nil sig uses the identity from the repository configuration.
// Returns ErrEmptyCommit when nothing is staged.
func (r *Repo) Commit(ctx context.Context, message string, sig *Signature) (string, error) {
	if r.worktree == nil {
		return "", WrapError(ErrInvalidRef, "cannot commit in a bare repository")
	}

	opts := &git.CommitOptions{}
	if sig != nil {
		when := sig.When
		if when.IsZero() {
			when = time.Now()
		}
		signature := &object.Signature{Name: sig.Name, Email: sig.Email, When: when}
		opts.Author = signature
		opts.Committer = signature
	}

	hash, err := r.worktree.Commit(message, opts)
	if errors.Is(err, git.ErrEmptyCommit) {
		return "", ErrEmptyCommit
	}
	if err != nil {
		return "", WrapError(err, "failed to commit")
	}

	return hash.String(), nil
}

// ResetToParent moves the current branch to HEAD's first parent, keeping the
// worktree untouched and unstaging the dropped commit's changes.
func (r *Repo) ResetToParent(ctx context.Context) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot reset a bare repository")
	}

	head, err := r.repo.Head()
	if err != nil {
		return WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return WrapError(err, "failed to read HEAD commit")
	}

	if commit.NumParents() == 0 {
		return WrapError(ErrResolveFailed, "HEAD has no parent")
	}

	err = r.worktree.Reset(&git.ResetOptions{Commit: commit.ParentHashes[0], Mode: git.MixedReset})
	return WrapError(err, "failed to reset to parent")
}
