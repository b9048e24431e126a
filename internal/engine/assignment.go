package engine

import (
	"fmt"

	"github.com/roach88/dtable/internal/ir"
)

// Assignment writes the resolved value of Source into the address denoted by
// Target. Target's placeholders are substituted but its address is never
// read.
type Assignment struct {
	target *Coordinate
	source *Coordinate
}

// NewAssignment creates target := source.
func NewAssignment(target, source *Coordinate) *Assignment {
	return &Assignment{target: target, source: source}
}

// Target returns the written coordinate.
func (a *Assignment) Target() *Coordinate { return a.target }

// Source returns the value coordinate.
func (a *Assignment) Source() *Coordinate { return a.source }

// String renders the assignment as "target := source".
func (a *Assignment) String() string {
	return fmt.Sprintf("%s := %s", a.target, a.source)
}

// Perform resolves the source value and writes it to the target's address.
func (a *Assignment) Perform(cc *ComputationContext) error {
	text := a.String()

	value, err := a.source.Resolve(cc)
	if err != nil {
		return fmt.Errorf("assignment %s: %w", text, err)
	}

	source, field, err := a.target.Address(cc)
	if err != nil {
		return fmt.Errorf("assignment %s: %w", text, err)
	}
	if source == ir.ConstantSource {
		return fmt.Errorf("assignment %s: %w", text, NewReadOnlyError(source, field))
	}

	if err := cc.SetValueFor(source, field, value.Field()); err != nil {
		return fmt.Errorf("assignment %s: %w", text, err)
	}
	cc.LogComputation(TraceCommand, fmt.Sprintf("%s%s%s := %s", source, ir.Separator, field, value.Field()))
	return nil
}
