package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against their rule tables",
		Long: `Run the scenario files of a directory.

Each scenario names its own specs directory, runs its steps on a fresh
in-memory session, checks its assertions and compares its trace with the
golden file stored next to it in golden/. Scenarios without a golden
file are judged by their assertions alone.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  dtable test ./scenarios
  dtable test ./scenarios --filter "shipping*"
  dtable test ./scenarios --update
  dtable test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(files) == 0 {
		if f.IsJSON() {
			return f.Success(harness.Summary{Scenarios: []harness.ScenarioResult{}})
		}
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		f.VerboseLog("Running %s", file)
	}
	summary := harness.RunAll(files, opts.Update)

	if f.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: summary}
		if summary.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_TEST_FAILED", Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed)}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		outputTestText(f.Writer, summary)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

// outputTestText prints one line per scenario and a summary line.
func outputTestText(w io.Writer, summary *harness.Summary) {
	for _, res := range summary.Scenarios {
		if !res.Pass {
			fmt.Fprintf(w, "✗ %s\n", res.Name)
			for _, e := range res.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
			continue
		}
		switch res.Golden {
		case harness.GoldenUpdated:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", res.Name)
		case harness.GoldenMissing:
			fmt.Fprintf(w, "✓ %s (no golden file)\n", res.Name)
		default:
			fmt.Fprintf(w, "✓ %s\n", res.Name)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
}
