package engine

// cloner deep-copies engine objects while keeping physical sharing: two
// references to one Coordinate in the template become two references to one
// Coordinate in the copy.
type cloner struct {
	coords     map[*Coordinate]*Coordinate
	conditions map[*Condition]*Condition
}

func newCloner() *cloner {
	return &cloner{
		coords:     make(map[*Coordinate]*Coordinate),
		conditions: make(map[*Condition]*Condition),
	}
}

func (cl *cloner) coordinate(c *Coordinate) *Coordinate {
	if c == nil {
		return nil
	}
	if dup, ok := cl.coords[c]; ok {
		return dup
	}
	dup := &Coordinate{source: c.source, field: c.field, constant: c.constant}
	cl.coords[c] = dup
	return dup
}

func (cl *cloner) condition(c *Condition) *Condition {
	if c == nil {
		return nil
	}
	if dup, ok := cl.conditions[c]; ok {
		return dup
	}
	dup := &Condition{
		kind:  c.kind,
		left:  cl.coordinate(c.left),
		right: cl.coordinate(c.right),
		inner: cl.condition(c.inner),
	}
	cl.conditions[c] = dup
	return dup
}

func (cl *cloner) rule(r *Rule) *Rule {
	if r == nil {
		return nil
	}
	dup := NewRule(r.name)
	for _, c := range r.conditions {
		dup.AddCondition(cl.condition(c))
	}
	for _, a := range r.assignments {
		dup.AddAssignment(NewAssignment(cl.coordinate(a.target), cl.coordinate(a.source)))
	}
	for _, name := range r.outcomeNames {
		dup.SetOutcome(name, cl.coordinate(r.outcomes[name]))
	}
	return dup
}

// Clone returns a deep copy of the table with every condition and rule
// status reset. Coordinates are copied as they are, resolved or not, so
// clone a template that has never been evaluated.
func (t *DecisionTable) Clone() *DecisionTable {
	cl := newCloner()
	rules := make([]*Rule, len(t.rules))
	for i, r := range t.rules {
		rules[i] = cl.rule(r)
	}
	dup := NewDecisionTable(t.name, rules, cl.rule(t.elseRule))
	dup.title = t.title
	return dup
}

// Clone returns an unevaluated deep copy of the command.
func (c *Command) Clone() *Command {
	return &Command{name: c.name, rule: newCloner().rule(c.rule)}
}
