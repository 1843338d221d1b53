// Package fsbridge builds go-git storage on top of billy filesystems.
package fsbridge

import (
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// MinCacheSize is used when a non-positive cache size is requested.
const MinCacheSize = 100

// NewStorage creates git storage with an LRU object cache of cacheSize entries.
func NewStorage(fs billy.Filesystem, cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = MinCacheSize
	}

	return filesystem.NewStorage(fs, cache.NewObjectLRU(cache.FileSize(cacheSize)))
}

// Layout scopes root to workdir and splits it into object storage and worktree.
// Bare repositories keep storage at the root and have no worktree; non-bare
// repositories keep storage under .git.
//
//nolint:ireturn // billy.Filesystem is the worktree type go-git expects
func Layout(root billy.Filesystem, workdir string, bare bool, cacheSize int) (*filesystem.Storage, billy.Filesystem, error) {
	scoped, err := root.Chroot(workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to workdir %q: %w", workdir, err)
	}

	if bare {
		return NewStorage(scoped, cacheSize), nil, nil
	}

	dotGit, err := scoped.Chroot(".git")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}

	return NewStorage(dotGit, cacheSize), scoped, nil
}
