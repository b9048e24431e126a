package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/ir"
	"github.com/roach88/dtable/internal/session"
)

// EvalOptions holds flags shared by the commands that run one episode.
type EvalOptions struct {
	*RootOptions
	Request []string // locator.field=value, repeatable
	Trace   bool     // print the episode trace
}

// EpisodeResult is the output of a command that ran one episode.
type EpisodeResult struct {
	Episode   string                       `json:"episode"`
	Seq       int64                        `json:"seq"`
	Operation ir.Operation                 `json:"operation"`
	Target    string                       `json:"target"`
	Request   map[string]map[string]string `json:"request,omitempty"`
	Outcome   map[string]string            `json:"outcome,omitempty"`
	Error     string                       `json:"error,omitempty"`
	Trace     []ir.TraceRecord             `json:"trace,omitempty"`
}

func newEpisodeResult(ep ir.Episode, withTrace bool) EpisodeResult {
	res := EpisodeResult{
		Episode:   ep.ID,
		Seq:       ep.Seq,
		Operation: ep.Operation,
		Target:    ep.Target,
		Request:   ep.Request,
		Outcome:   ep.Outcome,
		Error:     ep.Error,
	}
	if withTrace {
		res.Trace = ep.Trace
	}
	return res
}

// String renders the result for text output.
func (r EpisodeResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (episode %s, seq %d)", r.Operation, r.Target, r.Episode, r.Seq)
	for _, k := range ir.SortedKeys(r.Outcome) {
		fmt.Fprintf(&b, "\n  %s = %s", k, r.Outcome[k])
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\n  error: %s", r.Error)
	}
	if len(r.Trace) > 0 {
		b.WriteString("\ntrace:")
		for _, rec := range r.Trace {
			fmt.Fprintf(&b, "\n  %3d [%s] %s", rec.Seq, rec.Kind, rec.Message)
		}
	}
	return b.String()
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decide <specs-dir> <table>",
		Short: "Compute a table's outcome",
		Long: `Compute the outcome of a decision table against the stored state.

The selected rule's outcome (or the else rule's) is printed. Request
locators are read-only and visible for this evaluation only.

Examples:
  dtable decide ./specs shipping --db state.db
  dtable decide ./specs greeting --request request.lang=nl --trace
  dtable decide ./specs shipping --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpisode(opts, args[0], cmd, func(ctx context.Context, sess *session.Session, req session.Request) error {
				_, err := sess.DecisionFor(ctx, args[1], req)
				return err
			})
		},
	}
	addEvalFlags(cmd, opts)
	return cmd
}

func addEvalFlags(cmd *cobra.Command, opts *EvalOptions) {
	cmd.Flags().StringArrayVarP(&opts.Request, "request", "r", nil, "request locator field as locator.field=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the evaluation trace")
}

// runEpisode opens a session, runs op as one episode and prints the
// episode. A failed evaluation still prints its episode when one was
// recorded.
func runEpisode(opts *EvalOptions, dir string, cmd *cobra.Command, op func(context.Context, *session.Session, session.Request) error) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	req, err := session.ParseRequest(opts.Request)
	if err != nil {
		return f.Fail("invalid request", err)
	}

	cfg, err := loadProject(opts.RootOptions)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cfg, specsDir(cfg, []string{dir}))
	if err != nil {
		return f.Fail("failed to open session", err)
	}
	defer sess.Close()

	before, _ := sess.LastEpisode()
	opErr := op(ctx, sess, req)
	ep, ok := sess.LastEpisode()
	recorded := ok && ep.ID != before.ID

	if opErr != nil {
		if recorded && opts.Trace && !f.IsJSON() {
			fmt.Fprintln(f.GetErrWriter(), newEpisodeResult(ep, true))
		}
		return f.Fail("evaluation failed", opErr)
	}
	return f.Success(newEpisodeResult(ep, opts.Trace))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
