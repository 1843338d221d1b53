package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/release/command"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// WriteMode selects how content is combined with an existing file.
type WriteMode string

const (
	ModeAppend  WriteMode = "append"
	ModePrepend WriteMode = "prepend"
	ModeReplace WriteMode = "replace"
)

// FileWriterOptions configures FileWriter.
type FileWriterOptions struct {
	FS   billy.Filesystem
	Path string

	Content string

	// Mode applies to existing files. Defaults to ModeAppend.
	Mode WriteMode

	// Create writes the file when it does not exist. Otherwise a missing
	// file is left alone.
	Create bool

	Logger *slog.Logger
}

// FileWriter writes content to a file and restores it on undo.
type FileWriter struct {
	command.Base

	opts   FileWriterOptions
	logger *slog.Logger

	created  bool
	original []byte
	modified bool
}

var _ command.Command = (*FileWriter)(nil)

// NewFileWriter creates a FileWriter command.
func NewFileWriter(opts FileWriterOptions) *FileWriter {
	if opts.Mode == "" {
		opts.Mode = ModeAppend
	}

	return &FileWriter{opts: opts, logger: loggerOrDiscard(opts.Logger)}
}

// Name implements command.Command.
func (c *FileWriter) Name() string { return "FileWriter" }

// Do implements command.Command.
func (c *FileWriter) Do(ctx context.Context) error {
	mode, path := c.opts.Mode, c.opts.Path

	switch mode {
	case ModeAppend, ModePrepend, ModeReplace:
	default:
		return errors.Newf(errors.CodeInvalidInput, "Unknown mode '%s'", mode)
	}

	info, err := c.opts.FS.Stat(path)
	if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to stat %s: %v", path, err))
	}

	if err != nil {
		if !c.opts.Create {
			c.logger.Debug(fmt.Sprintf("File %s does not exist, nothing written", path))
			return nil
		}

		if err := util.WriteFile(c.opts.FS, path, []byte(c.opts.Content), 0o644); err != nil {
			return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to create %s: %v", path, err))
		}
		c.created = true
		c.logger.Info(fmt.Sprintf("Created file %s", path))

		return nil
	}

	c.logger.Debug(fmt.Sprintf("Reading file %s", path))

	original, err := util.ReadFile(c.opts.FS, path)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to read %s: %v", path, err))
	}

	var content string
	switch mode {
	case ModeReplace:
		content = c.opts.Content
	case ModePrepend:
		content = c.opts.Content + string(original)
	default:
		content = string(original) + c.opts.Content
	}

	if err := util.WriteFile(c.opts.FS, path, []byte(content), info.Mode().Perm()); err != nil {
		return errors.Wrap(err, errors.CodeExternal, fmt.Sprintf("failed to write %s: %v", path, err))
	}
	c.original = original
	c.modified = true

	switch mode {
	case ModeReplace:
		c.logger.Info(fmt.Sprintf("Replaced %s content", path))
	case ModePrepend:
		c.logger.Info(fmt.Sprintf("Prepended content to file %s", path))
	default:
		c.logger.Info(fmt.Sprintf("Appended content to file %s", path))
	}

	return nil
}

// Undo deletes the file if Do created it, otherwise restores its exact
// previous content.
func (c *FileWriter) Undo(ctx context.Context) error {
	path := c.opts.Path

	switch {
	case c.created:
		if err := c.opts.FS.Remove(path); err != nil {
			return err
		}
		c.created = false
		c.logger.Info(fmt.Sprintf("Deleted file %s", path))

	case c.modified:
		perm := os.FileMode(0o644)
		if info, err := c.opts.FS.Stat(path); err == nil {
			perm = info.Mode().Perm()
		}

		if err := util.WriteFile(c.opts.FS, path, c.original, perm); err != nil {
			return err
		}
		c.modified = false
		c.logger.Info(fmt.Sprintf("Reverted file %s", path))
	}

	return nil
}
