package git

import (
	"context"
	"errors"
	"os"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// BranchExists reports whether a local branch named name exists.
func (r *Repo) BranchExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, WrapError(ErrInvalidRef, "branch name cannot be empty")
	}

	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, WrapError(err, "failed to read branch")
	}

	return true, nil
}

// Switch checks out branch, creating it at HEAD when create is true.
// Uncommitted changes to paths that differ between HEAD and the target are
// rejected with ErrWorktreeConflict; all other local changes are carried over.
func (r *Repo) Switch(ctx context.Context, branch string, create bool) error {
	if r.worktree == nil {
		return WrapError(ErrInvalidRef, "cannot switch branches in a bare repository")
	}

	exists, err := r.BranchExists(ctx, branch)
	if err != nil {
		return err
	}

	refName := plumbing.NewBranchReferenceName(branch)

	if create {
		if exists {
			return WrapErrorf(ErrBranchExists, "branch %s", branch)
		}

		head, err := r.repo.Head()
		if err != nil {
			return WrapError(ErrResolveFailed, "failed to resolve HEAD")
		}

		// Same commit, so index and worktree stay as they are.
		err = r.worktree.Checkout(&git.CheckoutOptions{Branch: refName, Hash: head.Hash(), Create: true, Keep: true})
		return WrapErrorf(err, "failed to create branch %s", branch)
	}

	if !exists {
		return WrapErrorf(ErrBranchMissing, "branch %s", branch)
	}

	head, err := r.repo.Head()
	if err != nil {
		return WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}

	target, err := r.repo.Reference(refName, true)
	if err != nil {
		return WrapErrorf(ErrResolveFailed, "failed to resolve %s", branch)
	}

	changes, toTree, err := r.treeChanges(head.Hash(), target.Hash())
	if err != nil {
		return err
	}

	if err := r.checkOverwrites(branch, changes); err != nil {
		return err
	}

	for _, change := range changes {
		if err := r.applyChange(change, toTree); err != nil {
			return err
		}
	}

	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, refName)); err != nil {
		return WrapError(err, "failed to update HEAD")
	}

	// Mixed mode rebuilds the index only; the worktree was updated above.
	err = r.worktree.Reset(&git.ResetOptions{Commit: target.Hash(), Mode: git.MixedReset})
	return WrapErrorf(err, "failed to switch to branch %s", branch)
}

// DeleteBranch removes a local branch and its tracking configuration.
// The checked out branch cannot be deleted.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	exists, err := r.BranchExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return WrapErrorf(ErrBranchMissing, "branch %s", name)
	}

	head, err := r.repo.Head()
	if err == nil && head.Name() == plumbing.NewBranchReferenceName(name) {
		return WrapErrorf(ErrInvalidRef, "cannot delete checked out branch %s", name)
	}

	if err := r.repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return WrapError(err, "failed to delete branch configuration")
	}

	if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return WrapError(err, "failed to delete branch")
	}

	return nil
}

// dirtyPaths lists tracked files with staged or unstaged modifications.
func (r *Repo) dirtyPaths() (map[string]struct{}, error) {
	status, err := r.worktree.Status()
	if err != nil {
		return nil, WrapError(err, "failed to read worktree status")
	}

	paths := map[string]struct{}{}
	for path, s := range status {
		if s.Worktree == git.Untracked && s.Staging == git.Untracked {
			continue
		}
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			paths[path] = struct{}{}
		}
	}

	return paths, nil
}

// checkOverwrites refuses a switch that would clobber local modifications or
// untracked files at paths the target branch changes.
func (r *Repo) checkOverwrites(branch string, changes object.Changes) error {
	if len(changes) == 0 {
		return nil
	}

	dirty, err := r.dirtyPaths()
	if err != nil {
		return err
	}

	for _, c := range changes {
		for _, path := range []string{c.From.Name, c.To.Name} {
			if _, ok := dirty[path]; ok && path != "" {
				return WrapErrorf(ErrWorktreeConflict, "switching to %s would overwrite %s", branch, path)
			}
		}

		if c.From.Name == "" {
			if _, err := r.fs.Lstat(c.To.Name); err == nil {
				return WrapErrorf(ErrWorktreeConflict, "switching to %s would overwrite untracked %s", branch, c.To.Name)
			}
		}
	}

	return nil
}

// treeChanges diffs the trees of two commits.
func (r *Repo) treeChanges(from, to plumbing.Hash) (object.Changes, *object.Tree, error) {
	fromTree, err := r.treeOf(from)
	if err != nil {
		return nil, nil, err
	}

	toTree, err := r.treeOf(to)
	if err != nil {
		return nil, nil, err
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, nil, WrapError(err, "failed to diff trees")
	}

	return changes, toTree, nil
}

func (r *Repo) treeOf(hash plumbing.Hash) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, WrapErrorf(err, "failed to read commit %s", hash)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, WrapErrorf(err, "failed to read tree of %s", hash)
	}

	return tree, nil
}

// applyChange writes one tree difference to the worktree.
func (r *Repo) applyChange(c *object.Change, toTree *object.Tree) error {
	action, err := c.Action()
	if err != nil {
		return WrapError(err, "failed to classify change")
	}

	if action == merkletrie.Delete {
		if err := r.fs.Remove(c.From.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return WrapErrorf(err, "failed to remove %s", c.From.Name)
		}
		return nil
	}

	file, err := toTree.File(c.To.Name)
	if err != nil {
		return WrapErrorf(err, "failed to read %s", c.To.Name)
	}

	contents, err := file.Contents()
	if err != nil {
		return WrapErrorf(err, "failed to read %s", c.To.Name)
	}

	mode, err := file.Mode.ToOSFileMode()
	if err != nil {
		mode = 0o644
	}

	if err := util.WriteFile(r.fs, c.To.Name, []byte(contents), mode.Perm()); err != nil {
		return WrapErrorf(err, "failed to write %s", c.To.Name)
	}

	return nil
}
