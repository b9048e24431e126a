package graph

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// Styles per node kind, in the spirit of the record/note shapes Graphviz
// renders well.
var dotStyle = map[NodeKind]string{
	NodeTable:     `shape="record", style="rounded,filled,bold", fillcolor="#2d93ad"`,
	NodeRule:      `shape="record", style="rounded,filled", fillcolor="#99ddc8"`,
	NodeCondition: `shape="note", style="filled", fillcolor="#f5f5dc"`,
	NodeLocator:   `shape="cylinder", style="filled", fillcolor="#52aa5e"`,
	NodeCommand:   `shape="record", style="rounded,filled,dashed", fillcolor="#f98b8b"`,
}

var edgeColor = map[EdgeKind]string{
	EdgeElseRule:   "gray",
	EdgeWrites:     "red",
	EdgeReferences: "blue",
	EdgeNegates:    "orange",
}

// RenderDOT writes g as a Graphviz digraph.
//
//	dtable graph specs/ | dot -Tpng > g.png
func RenderDOT(w io.Writer, g *Graph) error {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  graph [ordering=out,rankdir=LR,nodesep=0.3,ranksep=0.6]\n")
	buf.WriteString("  edge [fontsize=\"10\"]\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s, label=%q]\n", n.ID, dotStyle[n.Kind], n.Label)
	}
	for _, e := range g.Edges {
		color := edgeColor[e.Kind]
		if color == "" {
			color = "black"
		}
		fmt.Fprintf(&buf, "  %q -> %q [color=%q, label=%q]\n", e.From, e.To, color, string(e.Kind))
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// sections lists node kinds in rendering order.
var sections = []struct {
	kind  NodeKind
	title string
}{
	{NodeTable, "Tables"},
	{NodeCommand, "Commands"},
	{NodeLocator, "Locators"},
}

// RenderMarkdown writes g as a Markdown document: one section per table and
// command with its rules, conditions and data flow, then the locators.
func RenderMarkdown(w io.Writer, g *Graph) error {
	var buf bytes.Buffer
	for _, sec := range sections {
		var nodes []Node
		for _, n := range g.Nodes {
			if n.Kind == sec.kind {
				nodes = append(nodes, n)
			}
		}
		if len(nodes) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "## %s\n\n", sec.title)
		for _, n := range nodes {
			if sec.kind == NodeLocator {
				fmt.Fprintf(&buf, "- `%s`%s\n", n.Label, usage(g, n.ID))
				continue
			}
			fmt.Fprintf(&buf, "### %s\n\n", n.Label)
			writeChildren(&buf, g, n.ID, 0)
			buf.WriteString("\n")
		}
		if sec.kind == NodeLocator {
			buf.WriteString("\n")
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeChildren(buf *bytes.Buffer, g *Graph, id string, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range g.Outgoing(id) {
		to, ok := g.Node(e.To)
		if !ok {
			continue
		}
		switch e.Kind {
		case EdgeHasRule, EdgeElseRule, EdgeRequires, EdgeNegates:
			fmt.Fprintf(buf, "%s- %s `%s`\n", indent, strings.ReplaceAll(string(e.Kind), "_", " "), to.Label)
			writeChildren(buf, g, to.ID, depth+1)
		default:
			fmt.Fprintf(buf, "%s- %s `%s`\n", indent, e.Kind, to.Label)
		}
	}
}

// usage summarizes who reads and writes a locator.
func usage(g *Graph, id string) string {
	var readers, writers int
	for _, e := range g.Edges {
		if e.To != id {
			continue
		}
		switch e.Kind {
		case EdgeReads:
			readers++
		case EdgeWrites:
			writers++
		}
	}
	return fmt.Sprintf(": %d reads, %d writes", readers, writers)
}

// RenderHTML renders the Markdown form as an HTML page titled title.
func RenderHTML(w io.Writer, g *Graph, title string) error {
	var md bytes.Buffer
	fmt.Fprintf(&md, "# %s\n\n", title)
	if err := RenderMarkdown(&md, g); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
  </head>
  <body>
%s
  </body>
</html>
`, html.EscapeString(title), blackfriday.Run(md.Bytes()))
	return err
}
