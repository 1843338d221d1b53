// Package executor runs external programs (npm, git) for release commands.
// It captures output, manages environment and working directory, and turns
// non-zero exits into *ExitError values that carry the exit code.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Result holds the output of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a program with arguments. Commands depend on this interface
// so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// ExitError reports a process that ran but exited with a non-zero status.
type ExitError struct {
	Program  string
	Args     []string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s exited with code %d", e.Program, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}

	return msg
}

// Options configures command execution behavior.
type Options struct {
	// WorkingDir is the directory the program runs in.
	WorkingDir string

	// Env holds variables appended to the current environment.
	Env map[string]string

	// Stdin is fed to the process when non-empty.
	Stdin string

	// RedirectToConsole tees stdout/stderr to the parent process.
	RedirectToConsole bool

	// StdoutWriter and StderrWriter receive a copy of the output.
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return WithEnv(map[string]string{key: value})
}

// WithStdin feeds input to the process.
func WithStdin(input string) Option {
	return func(o *Options) {
		o.Stdin = input
	}
}

// WithConsoleRedirect enables/disables console output.
func WithConsoleRedirect(redirect bool) Option {
	return func(o *Options) {
		o.RedirectToConsole = redirect
	}
}

// WithStdoutWriter sets an additional stdout writer.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter sets an additional stderr writer.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}

// CommandExecutor implements Runner on top of os/exec.
type CommandExecutor struct {
	defaults []Option
	logger   *slog.Logger
}

// New creates a CommandExecutor. Defaults are applied before per-call options.
func New(logger *slog.Logger, defaults ...Option) *CommandExecutor {
	return &CommandExecutor{
		defaults: defaults,
		logger:   logger,
	}
}

// Run executes program with args.
// A non-zero exit returns both the Result and an *ExitError.
//
// Context timeout/cancellation is honored during the execution.
func (c *CommandExecutor) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	options := c.mergeOptions(opts...)

	cmd := exec.CommandContext(ctx, program, args...)
	setupCommand(cmd, options)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = writers(&stdout, options.StdoutWriter, options.RedirectToConsole, os.Stdout)
	cmd.Stderr = writers(&stderr, options.StderrWriter, options.RedirectToConsole, os.Stderr)

	if c.logger != nil {
		c.logger.DebugContext(ctx, "executing", "program", program, "args", args, "dir", options.WorkingDir)
	}

	err := cmd.Run()
	result := &Result{
		Stdout: strings.TrimRight(stdout.String(), "\n"),
		Stderr: stderr.String(),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{
			Program:  program,
			Args:     args,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	result.ExitCode = -1
	return result, fmt.Errorf("command execution failed: %w", err)
}

// WrappedExecutor binds a Runner to one program.
type WrappedExecutor struct {
	program string
	runner  Runner
	opts    []Option
}

// NewWrappedExecutor creates an executor for a specific program.
func NewWrappedExecutor(program string, runner Runner, opts ...Option) *WrappedExecutor {
	return &WrappedExecutor{
		program: program,
		runner:  runner,
		opts:    opts,
	}
}

// Execute runs the wrapped program with args.
func (w *WrappedExecutor) Execute(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	all := append(append([]Option{}, w.opts...), opts...)

	result, err := w.runner.Run(ctx, w.program, args, all...)
	if err != nil {
		return result, fmt.Errorf("failed to execute %s with args %v: %w", w.program, args, err)
	}

	return result, nil
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := &Options{}
	for _, opt := range c.defaults {
		opt(merged)
	}
	for _, opt := range opts {
		opt(merged)
	}

	return merged
}

// setupCommand configures the exec.Cmd with working directory, environment, and input.
func setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		keys := make([]string, 0, len(options.Env))
		for k := range options.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Env = os.Environ()
		for _, k := range keys {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, options.Env[k]))
		}
	}

	if options.Stdin != "" {
		cmd.Stdin = strings.NewReader(options.Stdin)
	}
}

func writers(buf *bytes.Buffer, extra io.Writer, console bool, std io.Writer) io.Writer {
	ws := []io.Writer{buf}
	if console {
		ws = append(ws, std)
	}
	if extra != nil {
		ws = append(ws, extra)
	}

	return io.MultiWriter(ws...)
}
