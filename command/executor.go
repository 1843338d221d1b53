package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// State is the lifecycle of one Execute call.
type State int

const (
	NotStarted State = iota
	Running
	Failing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Failing:
		return "Failing"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Executor runs commands in order and compensates on failure.
// An Executor runs one list at a time; Execute calls are serialized.
type Executor struct {
	logger *slog.Logger
	now    func() time.Time

	run      sync.Mutex
	mu       sync.Mutex
	state    State
	warnings []error
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithClock sets the clock used for timing logs.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	return e
}

// State returns the state of the latest run.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Warnings returns the undo and cleanup failures of the latest run.
func (e *Executor) Warnings() []error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]error(nil), e.warnings...)
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = s
}

func (e *Executor) warn(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.warnings = append(e.warnings, err)
}

// Execute runs commands in list order. On the first failure, the failed
// command and all completed ones are undone in reverse order and the failure
// is returned. Cleanup then runs, in reverse, on every command whose Do was
// attempted.
//
// Undo and Cleanup run under a context detached from ctx's cancellation, so
// a cancelled run still compensates.
func (e *Executor) Execute(ctx context.Context, commands []Command) error {
	e.run.Lock()
	defer e.run.Unlock()

	e.mu.Lock()
	e.state = Running
	e.warnings = nil
	e.mu.Unlock()

	started := e.now()

	var stack []Command
	defer func() {
		e.cleanup(context.WithoutCancel(ctx), stack)
	}()

	for _, cmd := range commands {
		name := cmd.Name()

		if err := ctx.Err(); err != nil {
			e.logger.Warn(fmt.Sprintf("Execution interrupted before command '%s'", name), "error", err)
			e.compensate(context.WithoutCancel(ctx), stack)
			e.setState(Failed)

			return err
		}

		e.logger.Debug(fmt.Sprintf("Executing command '%s'", name))

		begin := e.now()
		err := protect(name, "Do", func() error { return cmd.Do(ctx) })
		stack = append(stack, cmd)

		e.logger.Debug(fmt.Sprintf("Executing command '%s' completed in ~%s", name, e.since(begin)))

		if err != nil {
			e.logger.Warn(fmt.Sprintf("An error occurred while executing command '%s'", name))
			e.logger.Error(err.Error(), "command", name)

			e.compensate(context.WithoutCancel(ctx), stack)
			e.setState(Failed)

			return err
		}
	}

	e.setState(Completed)
	e.logger.Debug(fmt.Sprintf("Executed %d commands in ~%s", len(commands), e.since(started)))

	return nil
}

// compensate pops the stack, undoing every command even if some fail.
func (e *Executor) compensate(ctx context.Context, stack []Command) {
	e.setState(Failing)

	for i := len(stack) - 1; i >= 0; i-- {
		cmd := stack[i]

		name := cmd.Name()
		if err := protect(name, "Undo", func() error { return cmd.Undo(ctx) }); err != nil {
			e.logger.Warn(fmt.Sprintf("An error occurred while undoing command '%s'", name))
			e.logger.Error(err.Error(), "command", name)

			e.warn(errors.WrapWithContext(err, errors.CodeCompensation,
				fmt.Sprintf("undo of command '%s' failed: %v", name, err),
				map[string]interface{}{"command": name}))
		}
	}
}

func (e *Executor) cleanup(ctx context.Context, attempted []Command) {
	for i := len(attempted) - 1; i >= 0; i-- {
		cmd := attempted[i]

		name := cmd.Name()
		if err := protect(name, "Cleanup", func() error { return cmd.Cleanup(ctx) }); err != nil {
			e.logger.Warn(fmt.Sprintf("An error occurred while cleaning up command '%s'", name), "error", err)

			e.warn(errors.WrapWithContext(err, errors.CodeCompensation,
				fmt.Sprintf("cleanup of command '%s' failed: %v", name, err),
				map[string]interface{}{"command": name}))
		}
	}
}

// protect turns a panic in a command step into an error.
func protect(name, step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WrapWithContext(nil, errors.CodeInternal,
				fmt.Sprintf("%s of command '%s' panicked: %v", step, name, r),
				map[string]interface{}{"command": name, "step": step})
		}
	}()

	return fn()
}

func (e *Executor) since(t time.Time) time.Duration {
	return e.now().Sub(t).Round(time.Millisecond)
}
