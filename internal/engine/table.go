package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/dtable/internal/ir"
)

// DecisionTable is an ordered collection of rules plus a fallback rule.
//
// A DecisionTable is also a Locator whose fields are its outcome names, so
// tables can read each other's outcomes through ordinary coordinates.
//
// INVARIANTS:
//   - Every rule is checked on every selection, even after one is satisfied
//   - At most one rule may be satisfied; more is an error, never a priority
//   - With no satisfied rule the else rule's outcome is returned
//
// Coordinates memoize per episode, so a table is a prototype: use Clone to
// obtain an unresolved copy for each ComputationContext.
type DecisionTable struct {
	name     string
	title    string
	rules    []*Rule
	elseRule *Rule
}

// NewDecisionTable creates a table. elseRule may be nil, in which case a
// table with no satisfied rule has an empty outcome.
func NewDecisionTable(name string, rules []*Rule, elseRule *Rule) *DecisionTable {
	return &DecisionTable{name: name, rules: rules, elseRule: elseRule}
}

// Name returns the table name (the locator name it registers under).
func (t *DecisionTable) Name() string { return t.name }

// Title returns the display title from the header row.
func (t *DecisionTable) Title() string { return t.title }

// SetTitle sets the display title.
func (t *DecisionTable) SetTitle(title string) { t.title = title }

// Rules returns the rules in declaration order.
func (t *DecisionTable) Rules() []*Rule { return t.rules }

// ElseRule returns the fallback rule, or nil.
func (t *DecisionTable) ElseRule() *Rule { return t.elseRule }

// Select checks every rule and returns the single satisfied one, or nil when
// none is satisfied.
func (t *DecisionTable) Select(cc *ComputationContext) (*Rule, error) {
	if err := cc.enterTable(t.name); err != nil {
		return nil, err
	}
	defer cc.leaveTable(t.name)

	var satisfied []*Rule
	for _, r := range t.rules {
		ok, err := r.Check(cc)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.name, err)
		}
		if ok {
			satisfied = append(satisfied, r)
		}
	}

	switch len(satisfied) {
	case 0:
		cc.LogComputation(TraceTable, fmt.Sprintf("%s: no rule satisfied", t.name))
		slog.Debug("table fell back to else rule", "table", t.name)
		return nil, nil
	case 1:
		cc.LogComputation(TraceTable, fmt.Sprintf("%s: %s", t.name, satisfied[0].Name()))
		slog.Debug("table selected rule", "table", t.name, "rule", satisfied[0].Name())
		return satisfied[0], nil
	default:
		names := make([]string, len(satisfied))
		for i, r := range satisfied {
			names[i] = r.Name()
		}
		return nil, NewMultipleRulesError(t.name, names)
	}
}

// Outcome returns the satisfied rule's outcome, or the else rule's outcome
// when none is satisfied.
func (t *DecisionTable) Outcome(cc *ComputationContext) (map[string]string, error) {
	r, err := t.Select(cc)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = t.elseRule
	}
	if r == nil {
		return map[string]string{}, nil
	}
	return r.Outcome(cc)
}

// Perform selects a rule the same way Outcome does and performs its
// assignments. The else rule is never performed.
func (t *DecisionTable) Perform(cc *ComputationContext) error {
	r, err := t.Select(cc)
	if err != nil {
		return err
	}
	if r == nil {
		cc.LogComputation(TraceCommand, fmt.Sprintf("%s: nothing performed", t.name))
		return nil
	}
	cc.LogComputation(TraceCommand, fmt.Sprintf("%s: perform %s", t.name, r.Name()))
	return r.Perform(cc)
}

// Read computes the table outcome and returns the named field, or
// ir.Undefined when the selected rule does not define it.
func (t *DecisionTable) Read(field string, cc *ComputationContext) (string, error) {
	r, err := t.Select(cc)
	if err != nil {
		return "", err
	}
	if r == nil {
		r = t.elseRule
	}
	if r == nil {
		return ir.Undefined, nil
	}
	return r.OutcomeValue(field, cc)
}

// Write always fails: table outcomes are derived.
func (t *DecisionTable) Write(field, _ string) error {
	return NewReadOnlyError(t.name, field)
}

// OutcomeNames returns every outcome name any rule of the table defines, in
// first-seen order.
func (t *DecisionTable) OutcomeNames() []string {
	seen := make(map[string]bool)
	var names []string
	rules := t.rules
	if t.elseRule != nil {
		rules = append(append([]*Rule(nil), rules...), t.elseRule)
	}
	for _, r := range rules {
		for _, n := range r.OutcomeNames() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
