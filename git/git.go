package git

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage"

	"github.com/input-output-hk/catalyst-forge-libs/release/git/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// DefaultRemoteName is the remote queried and pushed to when none is given.
	DefaultRemoteName = "origin"

	// ShortHashLength is the number of hex digits in an abbreviated commit hash.
	ShortHashLength = 7
)

// Options configures repository discovery/creation and remote access.
type Options struct {
	// FS is the REQUIRED filesystem root (OS or in-memory).
	FS billy.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// Bare indicates a repository without a worktree.
	Bare bool

	// StorerCacheSize sets the LRU objects cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// Remote is the remote used by RemoteTagHash and RemoteBranchHash.
	// Defaults to DefaultRemoteName.
	Remote string

	// Auth is an optional provider that resolves per-URL AuthMethod.
	// If nil, remotes are accessed anonymously.
	Auth AuthProvider
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if o.Remote == "" {
		o.Remote = DefaultRemoteName
	}
}

// Init creates a new git repository at the specified location.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	return setup(opts, git.Init, "failed to initialize repository")
}

// Open opens an existing git repository.
// For non-bare repositories, both .git directory and worktree must be present.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	return setup(opts, git.Open, "failed to open repository")
}

func setup(opts *Options, factory func(storage.Storer, billy.Filesystem) (*git.Repository, error), failure string) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	options := *opts
	options.applyDefaults()

	st, worktreeFS, err := fsbridge.Layout(options.FS, options.Workdir, options.Bare, options.StorerCacheSize)
	if err != nil {
		return nil, err
	}

	repo, err := factory(st, worktreeFS)
	if err != nil {
		return nil, WrapError(err, failure)
	}

	r := &Repo{
		repo:    repo,
		fs:      worktreeFS,
		options: options,
	}

	if !options.Bare {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, WrapError(err, "failed to get worktree")
		}
		r.worktree = worktree
	}

	return r, nil
}

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string

	// When defaults to the current time.
	When time.Time
}

// Repo is a git repository opened through Init or Open.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       billy.Filesystem
	options  Options
}

// Remote returns the name of the remote this repository queries by default.
func (r *Repo) Remote() string {
	return r.options.Remote
}

// Worktree returns the worktree filesystem, or nil for bare repositories.
//
//nolint:ireturn // billy.Filesystem is the filesystem abstraction shared with callers
func (r *Repo) Worktree() billy.Filesystem {
	return r.fs
}
