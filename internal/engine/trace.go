package engine

import "fmt"

// TraceKind categorizes one evaluation step.
type TraceKind string

const (
	// TraceStatic records a read through a locator.
	TraceStatic TraceKind = "static"

	// TraceDynamic records the substitution of one ${...} placeholder.
	TraceDynamic TraceKind = "dynamic"

	// TraceCondition records a condition and its boolean result.
	TraceCondition TraceKind = "condition"

	// TraceRule records a rule check.
	TraceRule TraceKind = "rule"

	// TraceTable records a table computation and the selected rule.
	TraceTable TraceKind = "table"

	// TraceCommand records a command, check or assignment execution.
	TraceCommand TraceKind = "command"
)

// TraceEntry is one recorded evaluation step. Seq is the logical position
// within the episode, starting at 1.
type TraceEntry struct {
	Seq     int64     `json:"seq"`
	Kind    TraceKind `json:"kind"`
	Message string    `json:"message"`
}

// String renders the entry as "[kind] message".
func (e TraceEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Tracker accumulates the trace entries published to it. Attach one with
// ComputationContext.StartTracking or WithTracker.
//
// Not safe for concurrent use.
type Tracker struct {
	entries []TraceEntry
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends an entry.
func (t *Tracker) Record(e TraceEntry) {
	t.entries = append(t.entries, e)
}

// Events returns a copy of the accumulated entries in publication order.
func (t *Tracker) Events() []TraceEntry {
	return append([]TraceEntry(nil), t.entries...)
}

// Len returns the number of accumulated entries.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Reset drops every accumulated entry.
func (t *Tracker) Reset() {
	t.entries = nil
}

// Filter returns the entries of the given kind.
func (t *Tracker) Filter(kind TraceKind) []TraceEntry {
	var out []TraceEntry
	for _, e := range t.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
