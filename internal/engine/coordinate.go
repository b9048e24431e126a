package engine

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/dtable/internal/ir"
)

// Coordinate is a two-part address (source, field) into a ComputationContext.
//
// A coordinate is in one of three states:
//   - unresolved: source or field still contains a ${...} placeholder
//   - resolved: no placeholders remain, but source addresses a locator
//   - constant: source is ir.ConstantSource and field is the literal value
//
// Resolve moves a coordinate to the constant state in place and returns the
// same pointer. Callers that share a *Coordinate share its cached value; the
// compiler decides explicitly which coordinates are shared. Once constant,
// the field is data: a cached value that looks like coordinate text
// ("a::b", "${x}") is never parsed again.
//
// A coordinate whose whole descriptor is a placeholder (for example
// "${request::cell}") has an empty source until it is resolved.
type Coordinate struct {
	source   string
	field    string
	constant bool
}

// NewCoordinate creates an addressed coordinate.
func NewCoordinate(source, field string) *Coordinate {
	return &Coordinate{source: source, field: field, constant: isLiteral(source, field)}
}

// Constant creates a constant coordinate holding value.
func Constant(value string) *Coordinate {
	return &Coordinate{source: ir.ConstantSource, field: value, constant: true}
}

// ParseCoordinate parses coordinate text:
//
//	literal            constant coordinate
//	source::field      addressed coordinate
//	${inner}           nested coordinate, anywhere in the text
//
// The source/field split happens at the first separator outside any
// placeholder. Text with an unterminated placeholder is rejected.
func ParseCoordinate(text string) (*Coordinate, error) {
	if err := checkPlaceholders(text); err != nil {
		return nil, err
	}

	if i := topLevelSeparator(text); i >= 0 {
		return NewCoordinate(text[:i], text[i+len(ir.Separator):]), nil
	}
	if hasPlaceholder(text) {
		return &Coordinate{field: text}, nil
	}
	return Constant(text), nil
}

// MustParseCoordinate is like ParseCoordinate but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseCoordinate(text string) *Coordinate {
	c, err := ParseCoordinate(text)
	if err != nil {
		panic(err)
	}
	return c
}

// Source returns the source half ("" for a whole-descriptor placeholder).
func (c *Coordinate) Source() string { return c.source }

// Field returns the field half, which is the value of a constant coordinate.
func (c *Coordinate) Field() string { return c.field }

// IsResolved reports whether no placeholder remains.
func (c *Coordinate) IsResolved() bool {
	if c.constant {
		return true
	}
	return c.source != "" && !hasPlaceholder(c.source) && !hasPlaceholder(c.field)
}

// IsConstant reports whether the coordinate has been reduced to a value.
func (c *Coordinate) IsConstant() bool {
	return c.constant
}

// Value returns the literal value of a constant coordinate.
func (c *Coordinate) Value() (string, bool) {
	if !c.IsConstant() {
		return "", false
	}
	return c.field, true
}

// String returns the coordinate text, e.g. "market::shop" or "constant::2".
func (c *Coordinate) String() string {
	if c.source == "" {
		return c.field
	}
	return c.source + ir.Separator + c.field
}

// Equal reports address+value equality: same source and same field.
func (c *Coordinate) Equal(other *Coordinate) bool {
	if other == nil {
		return false
	}
	return c.source == other.source && c.field == other.field
}

// CompareTo compares the fields of two coordinates as decimal numbers and
// returns -1, 0 or +1. String ordering is not supported: a non-numeric
// side yields a NumberFormatError.
func (c *Coordinate) CompareTo(other *Coordinate) (int, error) {
	a, err := parseDecimal(c.field)
	if err != nil {
		return 0, err
	}
	b, err := parseDecimal(other.field)
	if err != nil {
		return 0, err
	}
	return a.Cmp(b), nil
}

func parseDecimal(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, &NumberFormatError{Value: s, Err: err}
	}
	if d.Form != apd.Finite {
		return nil, &NumberFormatError{Value: s}
	}
	return d, nil
}

// Resolve reduces the coordinate to its constant form and returns it.
//
// Placeholders are substituted innermost first (the last opened marker),
// then the addressed locator is read once. A constant coordinate returns
// immediately, so resolving twice is a no-op.
func (c *Coordinate) Resolve(cc *ComputationContext) (*Coordinate, error) {
	if c.IsConstant() {
		return c, nil
	}

	source, field, err := c.Address(cc)
	if err != nil {
		return nil, err
	}

	if source == ir.ConstantSource {
		c.source, c.field, c.constant = source, field, true
		return c, nil
	}

	value, err := cc.ValueFor(source, field)
	if err != nil {
		return nil, err
	}
	cc.LogComputation(TraceStatic, fmt.Sprintf("%s%s%s = %s", source, ir.Separator, field, value))

	c.source, c.field, c.constant = ir.ConstantSource, value, true
	return c, nil
}

// Address substitutes every placeholder and returns the (source, field)
// pair the coordinate denotes, without reading it and without changing the
// coordinate. Assignment targets use this.
func (c *Coordinate) Address(cc *ComputationContext) (string, string, error) {
	if c.IsResolved() {
		return c.source, c.field, nil
	}

	text, err := substitute(c.String(), cc)
	if err != nil {
		return "", "", err
	}

	if i := strings.Index(text, ir.Separator); i >= 0 {
		return text[:i], text[i+len(ir.Separator):], nil
	}
	return ir.ConstantSource, text, nil
}

// substitute replaces placeholders in text, rightmost-opened first, until
// none remain.
func substitute(text string, cc *ComputationContext) (string, error) {
	for {
		open := strings.LastIndex(text, ir.PlaceholderOpen)
		if open < 0 {
			return text, nil
		}
		end := strings.Index(text[open:], ir.PlaceholderClose)
		if end < 0 {
			return "", NewInvalidCoordinateError(text, "unterminated placeholder")
		}
		end += open

		inner := text[open+len(ir.PlaceholderOpen) : end]
		nested, err := ParseCoordinate(inner)
		if err != nil {
			return "", err
		}
		resolved, err := nested.Resolve(cc)
		if err != nil {
			return "", err
		}
		cc.LogComputation(TraceDynamic, fmt.Sprintf("${%s} = %s", inner, resolved.field))

		text = text[:open] + resolved.field + text[end+len(ir.PlaceholderClose):]
	}
}

// isLiteral reports whether an unresolved (source, field) pair already
// denotes a value.
func isLiteral(source, field string) bool {
	return source == ir.ConstantSource && !hasPlaceholder(field)
}

func hasPlaceholder(s string) bool {
	return strings.Contains(s, ir.PlaceholderOpen)
}

// checkPlaceholders verifies every ${ has a matching }.
func checkPlaceholders(text string) error {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch {
		case strings.HasPrefix(text[i:], ir.PlaceholderOpen):
			depth++
			i += len(ir.PlaceholderOpen) - 1
		case text[i] == ir.PlaceholderClose[0] && depth > 0:
			depth--
		}
	}
	if depth != 0 {
		return NewInvalidCoordinateError(text, "unterminated placeholder")
	}
	return nil
}

// topLevelSeparator returns the index of the first separator outside any
// placeholder, or -1.
func topLevelSeparator(text string) int {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch {
		case strings.HasPrefix(text[i:], ir.PlaceholderOpen):
			depth++
			i += len(ir.PlaceholderOpen) - 1
		case text[i] == ir.PlaceholderClose[0] && depth > 0:
			depth--
		case depth == 0 && strings.HasPrefix(text[i:], ir.Separator):
			return i
		}
	}
	return -1
}
