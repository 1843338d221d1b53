package git

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked with errors.Is().

// ErrAlreadyUpToDate is returned when a push changes nothing on the remote.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrAuthRequired is returned when credentials could not be resolved for a remote.
var ErrAuthRequired = errors.New("authentication required")

// ErrBranchExists is returned when creating a branch that already exists.
var ErrBranchExists = errors.New("branch already exists")

// ErrBranchMissing is returned when operating on a branch that does not exist.
var ErrBranchMissing = errors.New("branch does not exist")

// ErrTagExists is returned when creating a tag that already exists.
var ErrTagExists = errors.New("tag already exists")

// ErrTagMissing is returned when operating on a tag that does not exist.
var ErrTagMissing = errors.New("tag does not exist")

// ErrInvalidRef is returned for malformed reference names, ranges or options.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision cannot be resolved to a commit.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrEmptyCommit is returned when a commit would record no changes.
var ErrEmptyCommit = errors.New("nothing to commit")

// ErrWorktreeConflict is returned when switching branches would overwrite local changes.
var ErrWorktreeConflict = errors.New("local changes would be overwritten")

// ErrRemoteNotFound is returned when the configured remote does not exist.
var ErrRemoteNotFound = errors.New("remote not found")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
