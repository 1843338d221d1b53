// Package strategy decides whether a release should happen and which
// commands make it up, then runs them through the command executor.
package strategy

import (
	"context"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
)

// Strategy describes one release flow.
type Strategy interface {
	Name() string

	// ShouldRun gates the run. False is not an error.
	ShouldRun(ctx context.Context) (bool, error)

	// Commands builds the command list with every option resolved. An error
	// aborts the run before any command executes.
	Commands(ctx context.Context) ([]command.Command, error)
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger.With("component", name)
}
