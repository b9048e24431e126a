package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// stateOf builds a state namespace of memory locators.
func stateOf(locators map[string]map[string]string) *Locators {
	l := NewLocators().Register("constant", NewConstantLocator())
	for name, fields := range locators {
		l.Register(name, NewMemoryLocator(fields))
	}
	return l
}

// tablesOf registers tables under their own names.
func tablesOf(tables ...*DecisionTable) *Locators {
	l := NewLocators()
	for _, t := range tables {
		l.Register(t.Name(), t)
	}
	return l
}

func coord(t *testing.T, text string) *Coordinate {
	t.Helper()
	c, err := ParseCoordinate(text)
	require.NoError(t, err)
	return c
}

// basicTable is the table of the "basic table" scenario: one rule requiring
// data::is-stored = true and market::shop < 3.
func basicTable(t *testing.T) *DecisionTable {
	t.Helper()
	rule := NewRule("stored-and-cheap").
		AddCondition(NewEquals(coord(t, "data::is-stored"), coord(t, "true"))).
		AddCondition(NewLessThan(coord(t, "market::shop"), coord(t, "3"))).
		SetOutcome("outcome", coord(t, "true")).
		SetOutcome("text", coord(t, "hello world"))
	elseRule := NewRule("else").
		SetOutcome("outcome", coord(t, "else")).
		SetOutcome("text", coord(t, "no rule satisfied"))
	return NewDecisionTable("basic", []*Rule{rule}, elseRule)
}

func basicState(shop string) map[string]map[string]string {
	return map[string]map[string]string{
		"data":          {"is-stored": "true"},
		"market":        {"shop": shop},
		"currentPlayer": {"name": "Eugene"},
	}
}
