package engine

import "fmt"

// Command is a named rule whose purpose is state mutation. An unconditional
// command has no conditions; a guarded command applies its assignments only
// when its conditions hold.
//
// Assignments apply in order and each sees the effects of the previous ones.
// There is no batch atomicity: a failing assignment leaves earlier writes in
// place.
type Command struct {
	name string
	rule *Rule
}

// NewCommand creates an unconditional command.
func NewCommand(name string, assignments ...*Assignment) *Command {
	r := NewRule(name)
	for _, a := range assignments {
		r.AddAssignment(a)
	}
	return &Command{name: name, rule: r}
}

// NewGuardedCommand creates a command gated by rule's conditions.
func NewGuardedCommand(name string, rule *Rule) *Command {
	return &Command{name: name, rule: rule}
}

// Name returns the command name.
func (c *Command) Name() string { return c.name }

// Rule returns the underlying rule.
func (c *Command) Rule() *Rule { return c.rule }

// Perform checks the gate and applies the assignments. It reports whether
// the assignments were applied.
func (c *Command) Perform(cc *ComputationContext) (bool, error) {
	ok, err := c.rule.Check(cc)
	if err != nil {
		return false, fmt.Errorf("command %s: %w", c.name, err)
	}
	if !ok {
		cc.LogComputation(TraceCommand, fmt.Sprintf("%s: gate not satisfied", c.name))
		return false, nil
	}
	cc.LogComputation(TraceCommand, fmt.Sprintf("%s: perform", c.name))
	if err := c.rule.Perform(cc); err != nil {
		return false, fmt.Errorf("command %s: %w", c.name, err)
	}
	return true, nil
}
