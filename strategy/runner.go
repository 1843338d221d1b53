package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/release"
)

// Runner gates a strategy, builds its commands and executes them.
type Runner struct {
	logger   *slog.Logger
	executor *command.Executor
	now      func() time.Time

	exitCode atomic.Int32
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithExecutor sets the command executor.
func WithExecutor(e *command.Executor) RunnerOption {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithClock sets the clock used for timing logs.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.executor == nil {
		r.executor = command.NewExecutor(command.WithLogger(r.logger), command.WithClock(r.now))
	}

	return r
}

// ExitCode is 1 once a run has failed, 0 otherwise.
func (r *Runner) ExitCode() int {
	return int(r.exitCode.Load())
}

// Executor returns the command executor.
func (r *Runner) Executor() *command.Executor {
	return r.executor
}

// Run executes s if its gate allows it. Any failure marks the runner as
// failed and is returned after compensation has completed.
func (r *Runner) Run(ctx context.Context, s Strategy, rel release.Release) error {
	if err := r.run(ctx, s, rel); err != nil {
		r.exitCode.Store(1)
		return err
	}

	return nil
}

func (r *Runner) run(ctx context.Context, s Strategy, rel release.Release) error {
	logger := r.logger.With("component", s.Name())

	ok, err := s.ShouldRun(ctx)
	if err != nil {
		return err
	}

	if ok {
		cmds, err := s.Commands(ctx)
		if err != nil {
			return err
		}

		next, err := rel.NextVersion(ctx)
		if err != nil {
			return err
		}

		prev, err := rel.PreviousVersion(ctx)
		if err != nil {
			return err
		}

		logger.Info(fmt.Sprintf("Next version is %s", next))
		logger.Info(fmt.Sprintf("Previous version is %s", prev))
		logger.Debug(fmt.Sprintf("Executing %d commands", len(cmds)))

		if len(cmds) > 0 {
			start := r.now()
			if err := r.executor.Execute(ctx, cmds); err != nil {
				return err
			}
			logger.Info(fmt.Sprintf("Execution completed in ~%s", r.now().Sub(start).Round(time.Millisecond)))
		} else {
			logger.Warn(fmt.Sprintf("Strategy %s has no commands", s.Name()))
		}
	}

	logger.Info("All done...")

	return nil
}
