package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/ir"
	"github.com/roach88/dtable/internal/session"
)

// NewPerformCommand creates the perform command.
func NewPerformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "perform <specs-dir> <name>",
		Short: "Perform a table's selected rule or a command",
		Long: `Perform the assignments of a table's selected rule, or of a command.

A table and a command of the same name resolve to the table. Table
performs never run the else rule. Command outcomes report whether the
command's gate was satisfied.

Examples:
  dtable perform ./specs ship --db state.db
  dtable perform ./specs shipping --db state.db --trace`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpisode(opts, args[0], cmd, func(ctx context.Context, sess *session.Session, req session.Request) error {
				return sess.Perform(ctx, args[1], req)
			})
		},
	}
	addEvalFlags(cmd, opts)
	return cmd
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <specs-dir> <locator::field> <value>",
		Short: "Write one field of a state locator",
		Long: `Write one field of a state locator as its own episode.

Constant, request and table locators are read-only.

Example:
  dtable set ./specs order::weight 12 --db state.db`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, field, ok := strings.Cut(args[1], ir.Separator)
			if !ok || loc == "" || field == "" {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid target %q: expected locator%sfield", args[1], ir.Separator))
			}
			return runEpisode(opts, args[0], cmd, func(ctx context.Context, sess *session.Session, _ session.Request) error {
				return sess.SetValueFor(ctx, loc, field, args[2])
			})
		},
	}
	return cmd
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset <specs-dir> <locator>",
		Short: "Re-parse the specs and clear a state locator",
		Long: `Re-parse every table and command, then clear the fields of one
state locator. Other locators keep their fields.

Example:
  dtable reset ./specs order --db state.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpisode(opts, args[0], cmd, func(ctx context.Context, sess *session.Session, _ session.Request) error {
				return sess.ResetComputationState(ctx, args[1])
			})
		},
	}
	return cmd
}
