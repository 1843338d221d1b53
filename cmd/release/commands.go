package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/release/release"
	"github.com/input-output-hk/catalyst-forge-libs/release/strategy"
)

func newRunCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Release the next version",
		Long: `Tags the next version, opens a pull request with the updated changelog and
package manifest, creates the GitHub release, comments on mentioned issues and
publishes the package. Completed steps are undone if a later one fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := a.cfg.ValidateRelease(); err != nil {
				return err
			}

			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}

			rel, err := a.newRelease(ctx, repo)
			if err != nil {
				return err
			}

			s, err := a.newStrategy(repo, rel)
			if err != nil {
				return err
			}

			if dryRun {
				return a.plan(cmd, s)
			}

			runner := strategy.NewRunner(strategy.WithLogger(a.logger))
			err = runner.Run(ctx, s, rel)
			a.exitCode = runner.ExitCode()

			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the release steps without running them")

	return cmd
}

// plan prints the commands a run would execute.
func (a *app) plan(cmd *cobra.Command, s strategy.Strategy) error {
	ctx := cmd.Context()

	ok, err := s.ShouldRun(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to release")
		return nil
	}

	cmds, err := s.Commands(ctx)
	if err != nil {
		return err
	}

	for i, c := range cmds {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, c.Name())
	}

	return nil
}

func newNextVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next-version",
		Short: "Print the version the next release would get",
		Args:  cobra.NoArgs,
		RunE: a.withRelease(func(cmd *cobra.Command, rel release.Release) error {
			next, err := rel.NextVersion(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		}),
	}
}

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List released versions, newest first",
		Args:  cobra.NoArgs,
		RunE: a.withRelease(func(cmd *cobra.Command, rel release.Release) error {
			versions, err := rel.Versions(cmd.Context())
			if err != nil {
				return err
			}

			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		}),
	}
}

func newChangelogCmd(a *app) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Print the changelog of the next release or of a released version",
		Args:  cobra.NoArgs,
		RunE: a.withRelease(func(cmd *cobra.Command, rel release.Release) error {
			var (
				log string
				err error
			)
			if version != "" {
				log, err = rel.ChangelogByVersion(cmd.Context(), version)
			} else {
				log, err = rel.Changelog(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), log)
			return nil
		}),
	}

	cmd.Flags().StringVar(&version, "version", "", "Released version to print")

	return cmd
}

// withRelease opens the repository and builds the release engine.
func (a *app) withRelease(fn func(cmd *cobra.Command, rel release.Release) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		repo, err := a.openRepo(cmd.Context())
		if err != nil {
			return err
		}

		rel, err := a.newRelease(cmd.Context(), repo)
		if err != nil {
			return err
		}

		return fn(cmd, rel)
	}
}
