package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/compiler"
	"github.com/roach88/dtable/internal/testutil"
)

func shopGraph(t *testing.T) *Graph {
	t.Helper()
	cat, err := compiler.Build(testutil.ShopBundle())
	require.NoError(t, err)
	return FromCatalog(cat)
}

func hasEdge(g *Graph, from, to string, kind EdgeKind) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestBuild_Nodes(t *testing.T) {
	g := shopGraph(t)

	for _, id := range []string{
		"table:shipping",
		"rule:shipping/heavy",
		"rule:shipping/light",
		"rule:shipping/else",
		"table:greeting",
		"table:label",
		"command:ship",
		"locator:order",
		"locator:request",
	} {
		_, ok := g.Node(id)
		assert.True(t, ok, "missing node %s", id)
	}

	n, ok := g.Node("table:shipping")
	require.True(t, ok)
	assert.Equal(t, NodeTable, n.Kind)
	assert.Equal(t, "shipping (Shipping)", n.Label)

	_, ok = g.Node("locator:constant")
	assert.False(t, ok, "constants are not locators in the graph")
}

func TestBuild_Edges(t *testing.T) {
	g := shopGraph(t)

	assert.True(t, hasEdge(g, "table:shipping", "rule:shipping/heavy", EdgeHasRule))
	assert.True(t, hasEdge(g, "table:shipping", "rule:shipping/else", EdgeElseRule))
	assert.True(t, hasEdge(g, "rule:shipping/heavy", "rule:shipping/heavy/c0", EdgeRequires))
	assert.True(t, hasEdge(g, "rule:shipping/heavy/c0", "locator:order", EdgeReads))
	assert.True(t, hasEdge(g, "rule:shipping/heavy", "locator:order", EdgeWrites))
	assert.True(t, hasEdge(g, "rule:label/by-truck/c0", "table:shipping", EdgeReferences))
	assert.True(t, hasEdge(g, "command:ship", "locator:order", EdgeWrites))
	assert.True(t, hasEdge(g, "command:ship", "locator:order", EdgeReads))

	cond, ok := g.Node("rule:shipping/heavy/c0")
	require.True(t, ok)
	assert.Equal(t, "order::weight > constant::10", cond.Label)
}

func TestBuild_Negation(t *testing.T) {
	bundle := testutil.ShopBundle()
	bundle.Tables[1].Rows[1] = testutil.Row("CND", "request::lang", "!nl", "en")
	cat, err := compiler.Build(bundle)
	require.NoError(t, err)

	g := FromCatalog(cat)
	assert.True(t, hasEdge(g, "rule:greeting/dutch/c0", "rule:greeting/dutch/c0/not", EdgeNegates))
	assert.True(t, hasEdge(g, "rule:greeting/dutch/c0/not", "locator:request", EdgeReads))
}

func TestFilter(t *testing.T) {
	g := shopGraph(t).Filter(NodeTable, NodeRule)

	for _, n := range g.Nodes {
		assert.Contains(t, []NodeKind{NodeTable, NodeRule}, n.Kind)
	}
	for _, e := range g.Edges {
		assert.Contains(t, []EdgeKind{EdgeHasRule, EdgeElseRule}, e.Kind)
	}
	assert.True(t, hasEdge(g, "table:label", "rule:label/by-truck", EdgeHasRule))

	all := shopGraph(t)
	assert.Equal(t, len(all.Nodes), len(all.Filter().Nodes))
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds("table, rule")
	require.NoError(t, err)
	assert.Equal(t, []NodeKind{NodeTable, NodeRule}, kinds)

	kinds, err = ParseKinds("")
	require.NoError(t, err)
	assert.Nil(t, kinds)

	_, err = ParseKinds("table,nope")
	assert.Error(t, err)
}
