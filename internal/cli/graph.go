package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/compiler"
	"github.com/roach88/dtable/internal/graph"
	"github.com/roach88/dtable/internal/source"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Output string // dot, md or html
	Kinds  string // comma-separated node kinds to keep
	Out    string // output file, stdout when empty
	Title  string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph [specs-dir]",
		Short: "Render the table dependency graph",
		Long: `Render the tables, rules, conditions, commands and locators of a specs
directory, and the reads, writes and table references between them.

Output forms:
  dot  - Graphviz source
  md   - Markdown outline
  html - the Markdown outline as a standalone HTML page

With --format json the graph is printed as nodes and edges.

Examples:
  dtable graph ./specs | dot -Tsvg > tables.svg
  dtable graph ./specs --output html --out tables.html
  dtable graph ./specs --kinds table,locator`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "dot", "output form (dot, md, html)")
	cmd.Flags().StringVar(&opts.Kinds, "kinds", "", "comma-separated node kinds to keep (table, rule, condition, locator, command)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&opts.Title, "title", "Decision tables", "page title for html output")

	return cmd
}

func runGraph(opts *GraphOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	render, err := graphRenderer(opts.Output, opts.Title)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid output", err)
	}
	kinds, err := graph.ParseKinds(opts.Kinds)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid kinds", err)
	}

	cfg, err := loadProject(opts.RootOptions)
	if err != nil {
		return err
	}
	bundle, err := source.Dir(specsDir(cfg, args)).Load()
	if err != nil {
		return f.Fail("failed to load specs", err)
	}
	catalog, err := compiler.Build(*bundle)
	if err != nil {
		return f.Fail("failed to build tables", err)
	}

	g := graph.FromCatalog(catalog).Filter(kinds...)
	f.VerboseLog("Graph has %d node(s) and %d edge(s)", len(g.Nodes), len(g.Edges))

	if f.IsJSON() {
		return f.Success(g)
	}

	if opts.Out == "" {
		return render(f.Writer, g)
	}
	file, err := os.Create(opts.Out)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output file", err)
	}
	if err := render(file, g); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func graphRenderer(output, title string) (func(io.Writer, *graph.Graph) error, error) {
	switch output {
	case "dot":
		return graph.RenderDOT, nil
	case "md", "markdown":
		return graph.RenderMarkdown, nil
	case "html":
		return func(w io.Writer, g *graph.Graph) error {
			return graph.RenderHTML(w, g, title)
		}, nil
	default:
		return nil, fmt.Errorf("unknown output %q (want dot, md or html)", output)
	}
}
