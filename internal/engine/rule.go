package engine

import (
	"fmt"

	"github.com/roach88/dtable/internal/ir"
)

// Rule is a named conjunction of conditions with assignments and named
// outcome coordinates.
//
// INVARIANTS:
//   - A rule is satisfied iff every condition is satisfied
//   - Check stops at the first unsatisfied condition; later conditions stay
//     unresolved and untraced for that check
//   - Outcome names keep their declaration order
type Rule struct {
	name         string
	conditions   []*Condition
	assignments  []*Assignment
	outcomeNames []string
	outcomes     map[string]*Coordinate
	status       Status
}

// NewRule creates a rule with no conditions, assignments or outcomes.
// A rule with no conditions is always satisfied.
func NewRule(name string) *Rule {
	return &Rule{name: name, outcomes: make(map[string]*Coordinate)}
}

// AddCondition appends a condition and returns the rule for chaining.
func (r *Rule) AddCondition(c *Condition) *Rule {
	r.conditions = append(r.conditions, c)
	return r
}

// AddAssignment appends an assignment and returns the rule for chaining.
func (r *Rule) AddAssignment(a *Assignment) *Rule {
	r.assignments = append(r.assignments, a)
	return r
}

// SetOutcome sets the coordinate of a named outcome and returns the rule for
// chaining. Setting a name twice replaces the coordinate.
func (r *Rule) SetOutcome(name string, c *Coordinate) *Rule {
	if _, exists := r.outcomes[name]; !exists {
		r.outcomeNames = append(r.outcomeNames, name)
	}
	r.outcomes[name] = c
	return r
}

// Name returns the rule name.
func (r *Rule) Name() string { return r.name }

// Conditions returns the conditions in declaration order.
func (r *Rule) Conditions() []*Condition { return r.conditions }

// Assignments returns the assignments in declaration order.
func (r *Rule) Assignments() []*Assignment { return r.assignments }

// OutcomeNames returns outcome names in declaration order.
func (r *Rule) OutcomeNames() []string { return r.outcomeNames }

// OutcomeCoordinate returns the coordinate of a named outcome.
func (r *Rule) OutcomeCoordinate(name string) (*Coordinate, bool) {
	c, ok := r.outcomes[name]
	return c, ok
}

// Status returns the result of the last Check without checking.
func (r *Rule) Status() Status { return r.status }

// IsCommand reports whether the rule exists to mutate state.
func (r *Rule) IsCommand() bool { return len(r.assignments) > 0 }

// Check evaluates conditions in declaration order and reports whether all
// of them hold.
func (r *Rule) Check(cc *ComputationContext) (bool, error) {
	ok := true
	for _, c := range r.conditions {
		satisfied, err := c.Evaluate(cc)
		if err != nil {
			return false, fmt.Errorf("rule %s: %w", r.name, err)
		}
		if !satisfied {
			ok = false
			break
		}
	}
	r.status = statusOf(ok)
	cc.LogComputation(TraceRule, fmt.Sprintf("%s: %s", r.name, r.status))
	return ok, nil
}

// Outcome resolves every outcome coordinate and returns name → value.
func (r *Rule) Outcome(cc *ComputationContext) (map[string]string, error) {
	out := make(map[string]string, len(r.outcomes))
	for _, name := range r.outcomeNames {
		c, err := r.outcomes[name].Resolve(cc)
		if err != nil {
			return nil, fmt.Errorf("rule %s outcome %s: %w", r.name, name, err)
		}
		out[name] = c.Field()
	}
	return out, nil
}

// OutcomeValue resolves a single outcome, or returns ir.Undefined when the
// rule does not define it.
func (r *Rule) OutcomeValue(name string, cc *ComputationContext) (string, error) {
	c, ok := r.outcomes[name]
	if !ok {
		return ir.Undefined, nil
	}
	resolved, err := c.Resolve(cc)
	if err != nil {
		return "", fmt.Errorf("rule %s outcome %s: %w", r.name, name, err)
	}
	return resolved.Field(), nil
}

// Perform executes every assignment in declaration order.
func (r *Rule) Perform(cc *ComputationContext) error {
	for _, a := range r.assignments {
		if err := a.Perform(cc); err != nil {
			return fmt.Errorf("rule %s: %w", r.name, err)
		}
	}
	return nil
}
