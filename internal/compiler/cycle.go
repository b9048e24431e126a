package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/dtable/internal/engine"
	"github.com/roach88/dtable/internal/ir"
)

// CycleWarning represents a potential cycle between decision tables.
//
// Cycles are warnings, not errors, because a table reference only costs a
// read when the referencing condition is actually reached: a cycle guarded
// by an earlier unsatisfied condition never recurses. Cycles that are
// reached fail at run time with TABLE_RECURSION.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["board", "winner", "board"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeDependencies performs static cycle analysis on tables.
//
// The algorithm:
//  1. Build a table → table graph from every statically known coordinate
//     source (including sources inside placeholders) that names a table
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a potential cycle warning
//
// Sources that are themselves computed (e.g. "${a::b}::c") are invisible to
// this analysis. A DAG returns an empty warning list.
func AnalyzeDependencies(b ir.Bundle) []CycleWarning {
	if len(b.Tables) == 0 {
		return []CycleWarning{}
	}

	graph := TableDependencies(b)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// TableDependencies maps each table name to the sorted names of the tables
// it reads.
func TableDependencies(b ir.Bundle) map[string][]string {
	tables := make(map[string]bool, len(b.Tables))
	for _, t := range b.Tables {
		tables[t.Name] = true
	}

	graph := make(map[string][]string, len(b.Tables))
	for _, t := range b.Tables {
		var deps []string
		for _, src := range tableReads(t) {
			if tables[src] && !slices.Contains(deps, src) {
				deps = append(deps, src)
			}
		}
		slices.Sort(deps)
		graph[t.Name] = deps
	}
	return graph
}

// tableReads lists every statically known locator name the table reads.
func tableReads(def ir.TableDef) []string {
	var out []string
	for _, row := range def.Rows {
		switch row.Kind {
		case ir.RowCondition:
			out = append(out, Sources(row.Key())...)
			for _, cell := range row.Values() {
				if arg, ok := conditionArgument(cell); ok {
					out = append(out, Sources(arg)...)
				}
			}
		case ir.RowOutcome:
			for _, cell := range row.Values() {
				out = append(out, Sources(cell)...)
			}
		case ir.RowAssignment:
			// The target is written, not read; only its placeholders are.
			for _, inner := range placeholders(row.Key()) {
				out = append(out, Sources(inner)...)
			}
			for _, cell := range row.Values() {
				out = append(out, Sources(cell)...)
			}
		}
	}
	return out
}

// Sources returns the locator names a coordinate text reads, in order of
// appearance: its own source when it is not computed, then the sources of
// every nested placeholder. Constant coordinates contribute nothing.
func Sources(text string) []string {
	var out []string
	seen := make(map[string]bool)

	var walk func(string)
	walk = func(t string) {
		c, err := engine.ParseCoordinate(strings.TrimSpace(t))
		if err != nil {
			return
		}
		src := c.Source()
		if src != "" && src != ir.ConstantSource && !strings.Contains(src, ir.PlaceholderOpen) && !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
		for _, inner := range placeholders(t) {
			walk(inner)
		}
	}
	walk(text)
	return out
}

// placeholders returns the inner text of each top-level ${...} in text.
func placeholders(text string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], ir.PlaceholderOpen) {
			if depth == 0 {
				start = i + len(ir.PlaceholderOpen)
			}
			depth++
			i += len(ir.PlaceholderOpen) - 1
			continue
		}
		if text[i] == ir.PlaceholderClose[0] && depth > 0 {
			depth--
			if depth == 0 {
				out = append(out, text[start:i])
			}
		}
	}
	return out
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph map[string][]string) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in sorted order so the result is deterministic.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph map[string][]string) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Table reads its own outcome: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Potential table cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph map[string][]string) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
