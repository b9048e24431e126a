package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/dtable/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s [%s] %s\n", i+1, event.Operation, event.Target, event.Kind, event.Message)
		}
	}

	return buf.String()
}

// matches reports whether the event satisfies the assertion's kind and
// message filters. Empty filters match anything.
func matches(event TraceEvent, kind, message string) bool {
	if kind != "" && event.Kind != kind {
		return false
	}
	return message == "" || event.Message == message
}

func describe(kind, message string) string {
	switch {
	case kind != "" && message != "":
		return fmt.Sprintf("[%s] %q", kind, message)
	case kind != "":
		return fmt.Sprintf("[%s] entries", kind)
	default:
		return fmt.Sprintf("%q", message)
	}
}

// assertTraceContains checks that some trace entry has the message.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion.Kind, assertion.Message) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(assertion.Kind, assertion.Message),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the messages appear in the given order.
// Entries in between are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for i, want := range assertion.Messages {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if matches(event, assertion.Kind, want) {
				found = true
				break
			}
		}
		if !found {
			actual := fmt.Sprintf("missing %q", want)
			if i > 0 {
				actual = fmt.Sprintf("%q not found after %q", want, assertion.Messages[i-1])
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("messages in order: %q", assertion.Messages),
				Actual:   actual,
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the matching entries appear exactly Count
// times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion.Kind, assertion.Message) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describe(assertion.Kind, assertion.Message)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the persisted fields of a locator using subset
// semantics.
func assertFinalState(state map[string]map[string]string, assertion Assertion) error {
	fields, ok := state[assertion.Locator]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("locator %s", assertion.Locator),
			Actual:   "locator not found",
		}
	}

	for _, field := range ir.SortedKeys(assertion.Expect) {
		want := assertion.Expect[field]
		got, ok := fields[field]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s%s%s = %q", assertion.Locator, ir.Separator, field, want),
				Actual:   "field not set",
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s%s%s = %q", assertion.Locator, ir.Separator, field, want),
				Actual:   fmt.Sprintf("%q", got),
			}
		}
	}
	return nil
}

// StateLoader reads persisted state locators.
type StateLoader interface {
	LoadState(ctx context.Context) (map[string]map[string]string, error)
}

// AssertionContext provides access to the persisted state for final_state
// assertions.
type AssertionContext struct {
	Store StateLoader
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// final_state assertions read the store when actx has one, and the
// result's State otherwise.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	state := result.State
	var stateErr error
	if actx != nil && actx.Store != nil {
		state, stateErr = actx.Store.LoadState(actx.Ctx)
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if stateErr != nil {
				err = fmt.Errorf("assertion[%d]: load state: %w", i, stateErr)
			} else {
				err = assertFinalState(state, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
