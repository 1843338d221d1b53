// Package commands holds the concrete release steps: git tag, commit, switch
// and push, file writes, npm bump and publish, and GitHub pull requests,
// releases and issue comments.
//
// Each command tracks exactly which external effects its Do completed, so
// Undo reverses only those. Collaborators are consumed through small
// interfaces; *git.Repo, *npm.CLI and *github.Client satisfy them.
package commands

import (
	"log/slog"
)

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger
}
