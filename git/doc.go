// Package git is the repository facade used by release derivation and the git
// release commands.
//
// It wraps go-git and operates on a go-billy filesystem, so the same code runs
// against an on-disk checkout or an in-memory repository in tests. No git
// binary is required: remote queries and pushes go through go-git transports.
//
// # Queries
//
// The read side mirrors the handful of git invocations a release needs:
//
//	repo, err := git.Open(ctx, &git.Options{FS: osfs.New(dir)})
//
//	head, err := repo.RefHash(ctx, "HEAD")
//	branch, err := repo.RefName(ctx, "HEAD")
//	commits, err := repo.Commits(ctx, head+"..")
//	tags, err := repo.MergedTags(ctx, "HEAD")
//	hash, err := repo.RemoteTagHash(ctx, "v1.2.0")
//
// Commit ranges accept a subset of git log syntax: "rev", "since..", "since..until"
// and an optional "-N" limit, for example "HEAD -1".
//
// # Mutations
//
// Tag, branch, commit and push operations back the release commands. Each
// reports failures through the sentinel errors in errors.go so callers can
// use errors.Is:
//
//	if err := repo.CreateTag(ctx, "v1.2.0", "HEAD"); errors.Is(err, git.ErrTagExists) {
//	    ...
//	}
//
// Switch keeps uncommitted changes to files the target branch does not touch,
// the way git switch does, and refuses when they would be overwritten.
package git
