// Package command defines reversible release steps and the executor that
// runs them as a saga.
//
// A Command performs one external side effect in Do and records what it
// actually changed, so that Undo reverses only those changes. The Executor
// runs commands strictly in order. When one fails, it undoes that command and
// every command completed before it, newest first, then returns the original
// error. Undo failures are logged and collected as warnings; they never stop
// the sweep and never replace the original error.
package command

import (
	"context"
)

// Command is one reversible release step.
type Command interface {
	Name() string

	// Do performs the side effect.
	Do(ctx context.Context) error

	// Undo reverses whatever Do managed to change. It must be a no-op when Do
	// never ran or changed nothing.
	Undo(ctx context.Context) error

	// Cleanup releases resources once the run is over, successful or not.
	Cleanup(ctx context.Context) error
}

// Base provides no-op Undo and Cleanup for embedding.
type Base struct{}

// Undo does nothing.
func (Base) Undo(context.Context) error { return nil }

// Cleanup does nothing.
func (Base) Cleanup(context.Context) error { return nil }

// Func builds a Command from functions. Nil functions are no-ops.
type Func struct {
	CommandName string
	DoFunc      func(ctx context.Context) error
	UndoFunc    func(ctx context.Context) error
	CleanupFunc func(ctx context.Context) error
}

var _ Command = (*Func)(nil)

// Name implements Command.
func (f *Func) Name() string { return f.CommandName }

// Do implements Command.
func (f *Func) Do(ctx context.Context) error {
	if f.DoFunc == nil {
		return nil
	}

	return f.DoFunc(ctx)
}

// Undo implements Command.
func (f *Func) Undo(ctx context.Context) error {
	if f.UndoFunc == nil {
		return nil
	}

	return f.UndoFunc(ctx)
}

// Cleanup implements Command.
func (f *Func) Cleanup(ctx context.Context) error {
	if f.CleanupFunc == nil {
		return nil
	}

	return f.CleanupFunc(ctx)
}
