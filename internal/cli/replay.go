package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/config"
	"github.com/roach88/dtable/internal/ir"
	"github.com/roach88/dtable/internal/session"
	"github.com/roach88/dtable/internal/source"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
}

// ReplayStep is the replay outcome of one stored episode.
type ReplayStep struct {
	Seq           int64  `json:"seq"`
	ID            string `json:"id"`
	Operation     string `json:"operation"`
	Target        string `json:"target"`
	StoredHash    string `json:"stored_hash"`
	ReplayedHash  string `json:"replayed_hash"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Steps            []ReplayStep `json:"steps"`
	TotalEpisodes    int          `json:"total_episodes"`
	AllDeterministic bool         `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <specs-dir>",
		Short: "Replay the episode log and verify determinism",
		Long: `Re-run every stored episode, in seq order, against a fresh in-memory
session seeded with the project file's locators, and compare each
episode's state hash with the stored one.

The stored database is only read. Replay is meaningful when the database
started from the same seeded locators.

Exit codes:
  0 - Every episode reproduced its stored state hash
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  dtable replay ./specs --db state.db
  dtable replay ./specs --db state.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	return cmd
}

func runReplay(opts *ReplayOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	cfg, err := loadProject(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := requireStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	episodes, err := st.ListEpisodes(ctx)
	if err != nil {
		return f.Fail("failed to list episodes", err)
	}

	result, err := replayEpisodes(ctx, cfg, specsDir(cfg, []string{dir}), episodes)
	if err != nil {
		return f.Fail("replay failed", err)
	}

	if f.IsJSON() {
		if err := f.encode(replayResponse(result)); err != nil {
			return err
		}
	} else {
		outputReplayText(f.Writer, result, opts.Verbose)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// replayEpisodes re-runs the episodes on a fresh store-less session.
// Operation errors are expected to reproduce, so only the state hash is
// compared.
func replayEpisodes(ctx context.Context, cfg config.Config, dir string, episodes []ir.Episode) (ReplayResult, error) {
	specs := source.Dir(dir)
	bundle, err := specs.Load()
	if err != nil {
		return ReplayResult{}, err
	}

	opts := []session.Option{
		session.WithSource(specs),
		session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if cfg.MaxSteps > 0 {
		opts = append(opts, session.WithMaxSteps(cfg.MaxSteps))
	}
	for _, name := range ir.SortedKeys(cfg.Locators) {
		opts = append(opts, session.WithLocator(name, cfg.Locators[name]))
	}
	sess, err := session.New(ctx, *bundle, opts...)
	if err != nil {
		return ReplayResult{}, err
	}
	defer sess.Close()

	result := ReplayResult{
		Steps:            make([]ReplayStep, 0, len(episodes)),
		TotalEpisodes:    len(episodes),
		AllDeterministic: true,
	}
	for _, ep := range episodes {
		if err := reapply(ctx, sess, ep); err != nil && !isEvaluationFailure(err) {
			return ReplayResult{}, fmt.Errorf("episode %s: %w", ep.ID, err)
		}
		hash, err := ir.StateHash(sess.State())
		if err != nil {
			return ReplayResult{}, err
		}
		step := ReplayStep{
			Seq:           ep.Seq,
			ID:            ep.ID,
			Operation:     string(ep.Operation),
			Target:        ep.Target,
			StoredHash:    ep.StateHash,
			ReplayedHash:  hash,
			Deterministic: hash == ep.StateHash,
		}
		if !step.Deterministic {
			result.AllDeterministic = false
		}
		result.Steps = append(result.Steps, step)
	}
	return result, nil
}

// reapply runs the operation an episode recorded.
func reapply(ctx context.Context, sess *session.Session, ep ir.Episode) error {
	req := session.Request(ep.Request)
	switch ep.Operation {
	case ir.OpDecide:
		_, err := sess.DecisionFor(ctx, ep.Target, req)
		return err
	case ir.OpPerform:
		return sess.Perform(ctx, ep.Target, req)
	case ir.OpSet:
		loc, field, ok := strings.Cut(ep.Target, ir.Separator)
		if !ok {
			return fmt.Errorf("malformed set target %q", ep.Target)
		}
		value, ok := ep.Outcome[field]
		if !ok {
			// a failed set records no value; it changed nothing
			return nil
		}
		return sess.SetValueFor(ctx, loc, field, value)
	case ir.OpReset:
		return sess.ResetComputationState(ctx, ep.Target)
	default:
		return fmt.Errorf("unknown operation %q", ep.Operation)
	}
}

// isEvaluationFailure reports whether err is an error the rules produced,
// as opposed to a broken episode log.
func isEvaluationFailure(err error) bool {
	_, _, exit := classify(err)
	return exit == ExitFailure
}

func replayResponse(result ReplayResult) CLIResponse {
	resp := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		resp.Status = "error"
		resp.Error = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
	}
	return resp
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) {
	fmt.Fprintf(w, "Replay Summary: %d episode(s)\n", result.TotalEpisodes)
	fmt.Fprintln(w)

	for _, step := range result.Steps {
		if step.Deterministic && !verbose {
			continue
		}
		status := "✓"
		if !step.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s [%d] %s %s\n", status, step.Seq, step.Operation, step.Target)
		if !step.Deterministic {
			fmt.Fprintf(w, "  stored:   %s\n", step.StoredHash)
			fmt.Fprintf(w, "  replayed: %s\n", step.ReplayedHash)
		}
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All episodes verified deterministic")
		return
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
}
