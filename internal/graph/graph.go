// Package graph is a read-only introspection layer over built tables and
// commands. It has no evaluation semantics: nothing here resolves a
// coordinate or checks a rule.
package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/dtable/internal/compiler"
	"github.com/roach88/dtable/internal/engine"
)

// NodeKind classifies a node.
type NodeKind string

const (
	NodeTable     NodeKind = "table"
	NodeRule      NodeKind = "rule"
	NodeCondition NodeKind = "condition"
	NodeLocator   NodeKind = "locator"
	NodeCommand   NodeKind = "command"
)

// EdgeKind classifies an edge.
type EdgeKind string

const (
	// EdgeHasRule links a table to each of its rules.
	EdgeHasRule EdgeKind = "has_rule"
	// EdgeElseRule links a table to its fallback rule.
	EdgeElseRule EdgeKind = "else_rule"
	// EdgeRequires links a rule to each of its conditions.
	EdgeRequires EdgeKind = "requires"
	// EdgeReads links a condition, rule or command to a locator it reads.
	EdgeReads EdgeKind = "reads"
	// EdgeWrites links a rule or command to a locator it assigns.
	EdgeWrites EdgeKind = "writes"
	// EdgeReferences links a condition, rule or command to a table whose
	// outcome it reads.
	EdgeReferences EdgeKind = "references"
	// EdgeNegates links a negation to the condition it wraps.
	EdgeNegates EdgeKind = "negates"
)

// Node is one vertex. ID is unique within a graph.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
}

// Edge is one directed, typed edge.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Graph holds nodes and edges in insertion order.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	index map[string]int
	edges map[Edge]bool
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int), edges: make(map[Edge]bool)}
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Outgoing returns the edges leaving id in insertion order.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) addNode(id string, kind NodeKind, label string) string {
	if _, ok := g.index[id]; !ok {
		g.index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: id, Kind: kind, Label: label})
	}
	return id
}

func (g *Graph) addEdge(from, to string, kind EdgeKind) {
	e := Edge{From: from, To: to, Kind: kind}
	if g.edges[e] {
		return
	}
	g.edges[e] = true
	g.Edges = append(g.Edges, e)
}

// builder carries the set of table names so that reads of a table become
// references.
type builder struct {
	g      *Graph
	tables map[string]bool
}

// Build creates the graph of tables and commands.
func Build(tables []*engine.DecisionTable, commands []*engine.Command) *Graph {
	b := &builder{g: newGraph(), tables: make(map[string]bool, len(tables))}
	for _, t := range tables {
		b.tables[t.Name()] = true
	}

	for _, t := range tables {
		label := t.Name()
		if t.Title() != "" && t.Title() != t.Name() {
			label = fmt.Sprintf("%s (%s)", t.Name(), t.Title())
		}
		tid := b.g.addNode(tableID(t.Name()), NodeTable, label)
		for _, r := range t.Rules() {
			b.g.addEdge(tid, b.rule(t.Name(), r), EdgeHasRule)
		}
		if r := t.ElseRule(); r != nil {
			b.g.addEdge(tid, b.rule(t.Name(), r), EdgeElseRule)
		}
	}

	for _, c := range commands {
		cid := b.g.addNode("command:"+c.Name(), NodeCommand, c.Name())
		b.ruleBody(cid, "command:"+c.Name(), c.Rule())
	}
	return b.g
}

// FromCatalog builds the graph of every template in the catalog.
func FromCatalog(c *compiler.Catalog) *Graph {
	return Build(c.Tables(), c.Commands())
}

func (b *builder) rule(table string, r *engine.Rule) string {
	id := "rule:" + table + "/" + r.Name()
	b.g.addNode(id, NodeRule, r.Name())
	b.ruleBody(id, id, r)
	return id
}

// ruleBody adds conditions, outcome reads and assignment writes of r under
// owner. prefix namespaces condition IDs.
func (b *builder) ruleBody(owner, prefix string, r *engine.Rule) {
	for i, c := range r.Conditions() {
		b.g.addEdge(owner, b.condition(fmt.Sprintf("%s/c%d", prefix, i), c), EdgeRequires)
	}
	for _, name := range r.OutcomeNames() {
		c, _ := r.OutcomeCoordinate(name)
		b.reads(owner, compiler.Sources(c.String()))
	}
	for _, a := range r.Assignments() {
		target := a.Target()
		written := ""
		if src := target.Source(); src != "" && !strings.Contains(src, "${") {
			written = src
			b.g.addEdge(owner, b.locator(src), EdgeWrites)
		}
		reads := compiler.Sources(target.String())
		if written != "" && len(reads) > 0 && reads[0] == written {
			reads = reads[1:]
		}
		b.reads(owner, reads)
		b.reads(owner, compiler.Sources(a.Source().String()))
	}
}

func (b *builder) condition(id string, c *engine.Condition) string {
	b.g.addNode(id, NodeCondition, c.String())
	if c.Kind() == engine.Not {
		b.g.addEdge(id, b.condition(id+"/not", c.Inner()), EdgeNegates)
		return id
	}
	b.reads(id, compiler.Sources(c.Left().String()))
	b.reads(id, compiler.Sources(c.Right().String()))
	return id
}

func (b *builder) reads(from string, sources []string) {
	for _, src := range sources {
		if b.tables[src] {
			b.g.addEdge(from, tableID(src), EdgeReferences)
			continue
		}
		b.g.addEdge(from, b.locator(src), EdgeReads)
	}
}

func (b *builder) locator(name string) string {
	return b.g.addNode("locator:"+name, NodeLocator, name)
}

func tableID(name string) string {
	return "table:" + name
}

// Filter returns a graph holding only nodes of the given kinds and the
// edges between them. No kinds returns a copy of g.
func (g *Graph) Filter(kinds ...NodeKind) *Graph {
	out := newGraph()
	for _, n := range g.Nodes {
		if len(kinds) == 0 || slices.Contains(kinds, n.Kind) {
			out.addNode(n.ID, n.Kind, n.Label)
		}
	}
	for _, e := range g.Edges {
		_, from := out.index[e.From]
		_, to := out.index[e.To]
		if from && to {
			out.addEdge(e.From, e.To, e.Kind)
		}
	}
	return out
}

// ParseKinds parses comma-separated node kind names.
func ParseKinds(s string) ([]NodeKind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var kinds []NodeKind
	for _, part := range strings.Split(s, ",") {
		k := NodeKind(strings.TrimSpace(part))
		switch k {
		case NodeTable, NodeRule, NodeCondition, NodeLocator, NodeCommand:
			kinds = append(kinds, k)
		default:
			return nil, fmt.Errorf("unknown node kind %q", part)
		}
	}
	return kinds, nil
}
