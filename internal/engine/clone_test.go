package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sharedBaseTable builds two rules whose conditions share one base
// coordinate, the way a compiled condition row does.
func sharedBaseTable(t *testing.T) (*DecisionTable, *Coordinate) {
	base := coord(t, "market::shop")
	table := NewDecisionTable("prices", []*Rule{
		NewRule("cheap").AddCondition(NewLessThan(base, coord(t, "3"))).SetOutcome("band", coord(t, "low")),
		NewRule("dear").AddCondition(NewNot(NewLessThan(base, coord(t, "3")))).SetOutcome("band", coord(t, "high")),
	}, nil)
	return table, base
}

func TestClone_PreservesSharing(t *testing.T) {
	table, base := sharedBaseTable(t)
	dup := table.Clone()

	left0 := dup.Rules()[0].Conditions()[0].Left()
	left1 := dup.Rules()[1].Conditions()[0].Inner().Left()
	assert.Same(t, left0, left1, "copies share where the template shares")
	assert.NotSame(t, base, left0)
}

func TestClone_TemplateStaysUnresolved(t *testing.T) {
	table, base := sharedBaseTable(t)

	cc := NewComputationContext(nil, stateOf(map[string]map[string]string{"market": {"shop": "2"}}))
	out, err := table.Clone().Outcome(cc)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"band": "low"}, out)
	assert.Equal(t, 1, cc.Steps(), "the shared base is read once per episode")

	assert.Equal(t, "market::shop", base.String())
	for _, r := range table.Rules() {
		assert.Equal(t, NotEvaluated, r.Status())
	}

	// A fresh clone sees new state
	next := NewComputationContext(nil, stateOf(map[string]map[string]string{"market": {"shop": "9"}}))
	out, err = table.Clone().Outcome(next)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"band": "high"}, out)
}

func TestClone_Command(t *testing.T) {
	target := coord(t, "board::x")
	cmd := NewCommand("set", NewAssignment(target, coord(t, "1")))
	dup := cmd.Clone()

	assert.Equal(t, "set", dup.Name())
	require.Len(t, dup.Rule().Assignments(), 1)
	assert.NotSame(t, target, dup.Rule().Assignments()[0].Target())
	assert.Equal(t, "board::x := constant::1", dup.Rule().Assignments()[0].String())
}
