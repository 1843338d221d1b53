package commands

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/input-output-hk/catalyst-forge-libs/release/git"
)

// Git is the repository surface the git commands use.
type Git interface {
	CurrentBranch(ctx context.Context) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	Switch(ctx context.Context, branch string, create bool) error
	DeleteBranch(ctx context.Context, name string) error

	TagExists(ctx context.Context, name string) (bool, error)
	CreateTag(ctx context.Context, name, target string) error
	DeleteTag(ctx context.Context, name string) error

	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string, sig *git.Signature) (string, error)
	ResetToParent(ctx context.Context) error

	RemoteRefHash(ctx context.Context, remote string, ref plumbing.ReferenceName) (string, error)
	PushTag(ctx context.Context, remote, tag string) error
	PushBranch(ctx context.Context, remote, branch string) error
	DeleteRemoteRef(ctx context.Context, remote string, ref plumbing.ReferenceName) error
}

var _ Git = (*git.Repo)(nil)

func remoteOrDefault(remote string) string {
	if remote == "" {
		return git.DefaultRemoteName
	}

	return remote
}
