package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/engine"
	"github.com/roach88/dtable/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Kind   string // optional trace kind filter
	Target string // optional episode target filter (listing only)
	Last   bool   // show the most recent episode
}

// EpisodeSummary is one line of the episode timeline.
type EpisodeSummary struct {
	ID        string       `json:"id"`
	Seq       int64        `json:"seq"`
	Operation ir.Operation `json:"operation"`
	Target    string       `json:"target"`
	Error     string       `json:"error,omitempty"`
}

// TraceResult holds the episode timeline, or one episode with its trace.
type TraceResult struct {
	Timeline []EpisodeSummary `json:"timeline,omitempty"`
	Episode  *EpisodeResult   `json:"episode,omitempty"`
	Stats    TraceStats       `json:"stats"`
}

// TraceStats holds summary statistics.
type TraceStats struct {
	Episodes int            `json:"episodes"`
	Failed   int            `json:"failed"`
	Entries  int            `json:"entries"`
	ByKind   map[string]int `json:"by_kind,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [episode-id]",
		Short: "Show recorded episodes and their evaluation traces",
		Long: `Show the episode log stored in the database.

Without an episode ID the timeline of every episode is listed in seq
order. With an ID (or --last) the episode's trace entries are shown:
locator reads, condition results, rule and table selection, and
performed assignments.

Examples:
  dtable trace --db state.db
  dtable trace --db state.db --target shipping
  dtable trace 0192c4d5-... --db state.db --kind condition
  dtable trace --last --db state.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show trace entries of this kind (static|dynamic|condition|rule|table|command)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only list episodes with this target")
	cmd.Flags().BoolVar(&opts.Last, "last", false, "show the most recent episode")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	if opts.Kind != "" && !validKind(opts.Kind) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown trace kind %q", opts.Kind))
	}

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

	id := ""
	switch {
	case len(args) == 1:
		id = args[0]
	case opts.Last && len(episodes) > 0:
		id = episodes[len(episodes)-1].ID
	}

	if id == "" {
		result := TraceResult{Timeline: []EpisodeSummary{}, Stats: TraceStats{}}
		for _, ep := range episodes {
			if opts.Target != "" && ep.Target != opts.Target {
				continue
			}
			result.Timeline = append(result.Timeline, EpisodeSummary{
				ID: ep.ID, Seq: ep.Seq, Operation: ep.Operation, Target: ep.Target, Error: ep.Error,
			})
			result.Stats.Episodes++
			if ep.Error != "" {
				result.Stats.Failed++
			}
		}
		if f.IsJSON() {
			return f.Success(result)
		}
		return outputTimelineText(f.Writer, result)
	}

	ep, err := st.ReadEpisode(ctx, id)
	if errors.Is(err, ir.ErrEpisodeNotFound) {
		_ = f.Error("EPISODE_NOT_FOUND", fmt.Sprintf("Episode '%s' not found", id), nil)
		return WrapExitError(ExitFailure, "trace failed", err)
	}
	if err != nil {
		return f.Fail("failed to read episode", err)
	}

	ep.Trace = filterTrace(ep.Trace, opts.Kind)
	res := newEpisodeResult(ep, true)
	result := TraceResult{
		Episode: &res,
		Stats:   TraceStats{Episodes: 1, Entries: len(ep.Trace), ByKind: countKinds(ep.Trace)},
	}
	if ep.Error != "" {
		result.Stats.Failed = 1
	}
	if f.IsJSON() {
		return f.Success(result)
	}
	return outputEpisodeText(f.Writer, result, opts.Verbose)
}

func validKind(kind string) bool {
	switch engine.TraceKind(kind) {
	case engine.TraceStatic, engine.TraceDynamic, engine.TraceCondition,
		engine.TraceRule, engine.TraceTable, engine.TraceCommand:
		return true
	}
	return false
}

func filterTrace(trace []ir.TraceRecord, kind string) []ir.TraceRecord {
	if kind == "" {
		return trace
	}
	var out []ir.TraceRecord
	for _, rec := range trace {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

func countKinds(trace []ir.TraceRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range trace {
		counts[rec.Kind]++
	}
	return counts
}

// outputTimelineText prints one line per episode.
func outputTimelineText(w io.Writer, result TraceResult) error {
	fmt.Fprintln(w, "=== Episodes ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no episodes)")
		return nil
	}
	for _, ep := range result.Timeline {
		line := fmt.Sprintf("  [%d] %-7s %s  %s", ep.Seq, ep.Operation, ep.Target, truncateID(ep.ID))
		if ep.Error != "" {
			line += "  ERROR " + ep.Error
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d episode(s), %d failed\n", result.Stats.Episodes, result.Stats.Failed)
	return nil
}

// outputEpisodeText prints one episode with its trace.
func outputEpisodeText(w io.Writer, result TraceResult, verbose bool) error {
	ep := result.Episode
	fmt.Fprintf(w, "Episode: %s\n", ep.Episode)
	fmt.Fprintf(w, "Seq: %d  %s %s\n", ep.Seq, ep.Operation, ep.Target)
	if len(ep.Request) > 0 {
		fmt.Fprintf(w, "Request: %s\n", formatRequest(ep.Request))
	}
	if len(ep.Outcome) > 0 {
		fmt.Fprintf(w, "Outcome: %s\n", formatFields(ep.Outcome))
	}
	if ep.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", ep.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Trace ===")
	if len(ep.Trace) == 0 {
		fmt.Fprintln(w, "  (no entries)")
	}
	for _, rec := range ep.Trace {
		fmt.Fprintf(w, "  [%d] %-9s %s\n", rec.Seq, rec.Kind, rec.Message)
	}

	if verbose {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Stats ===")
		for _, kind := range ir.SortedKeys(result.Stats.ByKind) {
			fmt.Fprintf(w, "  %-9s %d\n", kind, result.Stats.ByKind[kind])
		}
	}
	return nil
}

// formatFields formats a field map with sorted keys.
func formatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, k := range ir.SortedKeys(fields) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatRequest(req map[string]map[string]string) string {
	parts := make([]string, 0, len(req))
	for _, name := range ir.SortedKeys(req) {
		parts = append(parts, name+formatFields(req[name]))
	}
	return strings.Join(parts, " ")
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
