package engine

import (
	"maps"

	"github.com/roach88/dtable/internal/ir"
)

// Locator is anything addressable by a coordinate's source name.
//
// Read receives the ComputationContext so that derived locators (a
// DecisionTable reading other tables) can recurse through it. Write returns
// an EvaluationError with ErrCodeReadOnlyLocator when the locator does not
// accept writes.
//
// The set of locator kinds is open; implement this interface to plug in new
// data sources.
type Locator interface {
	Read(field string, cc *ComputationContext) (string, error)
	Write(field, value string) error
}

// ConstantLocator echoes the field name back as the value. It is registered
// under ir.ConstantSource so that "constant::x" reads as "x".
type ConstantLocator struct{}

// NewConstantLocator returns the constant locator.
func NewConstantLocator() ConstantLocator {
	return ConstantLocator{}
}

// Read returns field.
func (ConstantLocator) Read(field string, _ *ComputationContext) (string, error) {
	return field, nil
}

// Write always fails.
func (ConstantLocator) Write(field, _ string) error {
	return NewReadOnlyError(ir.ConstantSource, field)
}

// MemoryLocator is mutable in-memory state: application data that commands
// write and tables read. Fields never written read as ir.Undefined.
//
// Not safe for concurrent use.
type MemoryLocator struct {
	fields map[string]string
}

// NewMemoryLocator creates a locator seeded with a copy of fields.
func NewMemoryLocator(fields map[string]string) *MemoryLocator {
	m := &MemoryLocator{fields: make(map[string]string, len(fields))}
	maps.Copy(m.fields, fields)
	return m
}

// Read returns the stored value or ir.Undefined.
func (m *MemoryLocator) Read(field string, _ *ComputationContext) (string, error) {
	if v, ok := m.fields[field]; ok {
		return v, nil
	}
	return ir.Undefined, nil
}

// Write stores value under field.
func (m *MemoryLocator) Write(field, value string) error {
	m.fields[field] = value
	return nil
}

// Fields returns a copy of the stored fields.
func (m *MemoryLocator) Fields() map[string]string {
	return maps.Clone(m.fields)
}

// Clear removes every field.
func (m *MemoryLocator) Clear() {
	clear(m.fields)
}

// ReadOnlyLocator wraps a locator and rejects writes. Per-request data is
// registered through it so that commands cannot mutate the request.
type ReadOnlyLocator struct {
	name  string
	inner Locator
}

// ReadOnly wraps inner; name is used in error messages.
func ReadOnly(name string, inner Locator) *ReadOnlyLocator {
	return &ReadOnlyLocator{name: name, inner: inner}
}

// NewRequestLocator creates a read-only locator over a copy of fields.
func NewRequestLocator(name string, fields map[string]string) *ReadOnlyLocator {
	return ReadOnly(name, NewMemoryLocator(fields))
}

// Read delegates to the wrapped locator.
func (r *ReadOnlyLocator) Read(field string, cc *ComputationContext) (string, error) {
	return r.inner.Read(field, cc)
}

// Write always fails.
func (r *ReadOnlyLocator) Write(field, _ string) error {
	return NewReadOnlyError(r.name, field)
}

// Locators is a named collection of locators. Registering a name twice
// replaces the earlier locator; names keep their first registration order.
type Locators struct {
	names   []string
	entries map[string]Locator
}

// NewLocators creates an empty collection.
func NewLocators() *Locators {
	return &Locators{entries: make(map[string]Locator)}
}

// Register adds or replaces the locator under name and returns the
// collection for chaining.
func (l *Locators) Register(name string, loc Locator) *Locators {
	if _, exists := l.entries[name]; !exists {
		l.names = append(l.names, name)
	}
	l.entries[name] = loc
	return l
}

// Lookup returns the locator registered under name.
func (l *Locators) Lookup(name string) (Locator, bool) {
	if l == nil {
		return nil, false
	}
	loc, ok := l.entries[name]
	return loc, ok
}

// Names returns registered names in registration order.
func (l *Locators) Names() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.names...)
}

// Len returns the number of registered locators.
func (l *Locators) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// MergedWith returns a new collection: l overlaid by each of others in
// order. On a name collision the later collection wins. Neither l nor
// others are modified.
func (l *Locators) MergedWith(others ...*Locators) *Locators {
	merged := NewLocators()
	for _, name := range l.Names() {
		merged.Register(name, l.entries[name])
	}
	for _, o := range others {
		if o == nil {
			continue
		}
		for _, name := range o.names {
			merged.Register(name, o.entries[name])
		}
	}
	return merged
}
