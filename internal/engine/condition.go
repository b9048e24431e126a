package engine

import "fmt"

// ConditionKind is the closed set of condition variants.
type ConditionKind int

const (
	// Equals is satisfied when both resolved coordinates are equal.
	Equals ConditionKind = iota
	// GreaterThan is satisfied when left > right as decimal numbers.
	GreaterThan
	// LessThan is satisfied when left < right as decimal numbers.
	LessThan
	// Not is satisfied when the wrapped condition is not.
	Not
)

// String returns the operator symbol.
func (k ConditionKind) String() string {
	switch k {
	case Equals:
		return "="
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	case Not:
		return "!"
	default:
		return fmt.Sprintf("ConditionKind(%d)", int(k))
	}
}

// Status is the observable evaluation state of a condition or rule.
type Status int

const (
	// NotEvaluated means the condition has not been evaluated this episode.
	NotEvaluated Status = iota
	// Satisfied means it evaluated to true.
	Satisfied
	// NotSatisfied means it evaluated to false.
	NotSatisfied
)

// String returns a lower-case status name.
func (s Status) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case NotSatisfied:
		return "not satisfied"
	default:
		return "not evaluated"
	}
}

func statusOf(ok bool) Status {
	if ok {
		return Satisfied
	}
	return NotSatisfied
}

// Condition is a boolean expression over two coordinates, or the negation of
// another condition. The variant is fixed at construction.
//
// A condition is evaluated at most once per episode; later calls return the
// cached result without resolving or tracing again.
type Condition struct {
	kind   ConditionKind
	left   *Coordinate
	right  *Coordinate
	inner  *Condition
	status Status
}

// NewEquals creates left = right.
func NewEquals(left, right *Coordinate) *Condition {
	return &Condition{kind: Equals, left: left, right: right}
}

// NewGreaterThan creates left > right.
func NewGreaterThan(left, right *Coordinate) *Condition {
	return &Condition{kind: GreaterThan, left: left, right: right}
}

// NewLessThan creates left < right.
func NewLessThan(left, right *Coordinate) *Condition {
	return &Condition{kind: LessThan, left: left, right: right}
}

// NewNot creates the negation of inner.
func NewNot(inner *Condition) *Condition {
	return &Condition{kind: Not, inner: inner}
}

// Kind returns the variant.
func (c *Condition) Kind() ConditionKind { return c.kind }

// Left returns the left operand (nil for Not).
func (c *Condition) Left() *Coordinate { return c.left }

// Right returns the right operand (nil for Not).
func (c *Condition) Right() *Coordinate { return c.right }

// Inner returns the negated condition (nil unless Not).
func (c *Condition) Inner() *Condition { return c.inner }

// Status returns the evaluation state without evaluating.
func (c *Condition) Status() Status { return c.status }

// IsSatisfied reports whether the condition evaluated to true.
func (c *Condition) IsSatisfied() bool { return c.status == Satisfied }

// String renders the condition, e.g. "market::shop < 3" or "!(a::b = c)".
func (c *Condition) String() string {
	if c.kind == Not {
		return fmt.Sprintf("!(%s)", c.inner)
	}
	return fmt.Sprintf("%s %s %s", c.left, c.kind, c.right)
}

// Evaluate resolves the operands, applies the comparator, records the
// result and publishes a condition trace entry.
func (c *Condition) Evaluate(cc *ComputationContext) (bool, error) {
	if c.status != NotEvaluated {
		return c.IsSatisfied(), nil
	}

	text := c.String()

	var ok bool
	switch c.kind {
	case Not:
		if c.inner.Status() == NotEvaluated {
			if _, err := c.inner.Evaluate(cc); err != nil {
				return false, err
			}
		}
		ok = !c.inner.IsSatisfied()

	case Equals, GreaterThan, LessThan:
		left, err := c.left.Resolve(cc)
		if err != nil {
			return false, err
		}
		right, err := c.right.Resolve(cc)
		if err != nil {
			return false, err
		}
		ok, err = compare(c.kind, left, right)
		if err != nil {
			return false, err
		}

	default:
		return false, fmt.Errorf("unknown condition kind %d", int(c.kind))
	}

	c.status = statusOf(ok)
	cc.LogComputation(TraceCondition, fmt.Sprintf("%s: %t", text, ok))
	return ok, nil
}

func compare(kind ConditionKind, left, right *Coordinate) (bool, error) {
	if kind == Equals {
		return left.Equal(right), nil
	}
	cmp, err := left.CompareTo(right)
	if err != nil {
		return false, err
	}
	if kind == GreaterThan {
		return cmp > 0, nil
	}
	return cmp < 0, nil
}
