package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/release/config"
	"github.com/input-output-hk/catalyst-forge-libs/release/errors"
)

// app carries what every subcommand shares.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	configPath string
	dir        string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger

	// exitCode is set by subcommands that report their own status.
	exitCode int
}

func execute(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	a := &app{stdout: stdout, stderr: stderr, getenv: getenv}

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error(err.Error(), "code", errors.CodeOf(err))
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		if a.exitCode != 0 {
			return a.exitCode
		}
		return 1
	}

	return a.exitCode
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "release",
		Short: "Atomic semantic releases",
		Long: `Computes versions and changelogs from conventional commits and releases
npm packages to GitHub and the registry. Failed releases are rolled back.

Configuration is read from atomic-release.yaml in the working directory, or
$XDG_CONFIG_HOME/atomic-release/config.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the configuration file")
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "Repository working directory")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(
		newRunCmd(a),
		newNextVersionCmd(a),
		newVersionsCmd(a),
		newChangelogCmd(a),
	)

	return root
}

// setup loads the configuration and builds the logger. Flags win over the
// environment, which wins over the file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{
		Path:           a.configPath,
		Dir:            a.dir,
		Getenv:         a.getenv,
		SkipValidation: true,
	})
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logger, err := newLogger(a.stderr, level, a.logFormat)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	if cfg.Path != "" {
		logger.Debug(fmt.Sprintf("Loaded configuration from %s", cfg.Path))
	}

	return nil
}

func newLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown log format %q", format)
	}
}
