package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/ir"
)

// StateResult is the persisted state, optionally limited to one locator.
type StateResult struct {
	Locators map[string]map[string]string `json:"locators"`
	Hash     string                       `json:"hash"`
}

// String renders one "locator::field = value" line per field.
func (r StateResult) String() string {
	if len(r.Locators) == 0 {
		return "No state."
	}
	var lines []string
	for _, name := range ir.SortedKeys(r.Locators) {
		fields := r.Locators[name]
		if len(fields) == 0 {
			lines = append(lines, name+ir.Separator+" (empty)")
			continue
		}
		for _, field := range ir.SortedKeys(fields) {
			lines = append(lines, fmt.Sprintf("%s%s%s = %s", name, ir.Separator, field, fields[field]))
		}
	}
	return strings.Join(lines, "\n")
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state [locator]",
		Short: "Show persisted state locators",
		Long: `Show the state locators stored in the database, or one of them.

Examples:
  dtable state --db state.db
  dtable state order --db state.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runState(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	cfg, err := loadProject(opts)
	if err != nil {
		return err
	}
	st, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.LoadState(ctx)
	if err != nil {
		return f.Fail("failed to load state", err)
	}
	hash, err := ir.StateHash(state)
	if err != nil {
		return f.Fail("failed to hash state", err)
	}

	if len(args) == 1 {
		fields, ok := state[args[0]]
		if !ok {
			_ = f.Error("LOCATOR_NOT_FOUND", fmt.Sprintf("Locator '%s' not found", args[0]), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("locator %s not found", args[0]))
		}
		state = map[string]map[string]string{args[0]: fields}
	}

	return f.Success(StateResult{Locators: state, Hash: hash})
}
