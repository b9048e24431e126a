// Package engine implements the decision-table evaluation core.
//
// A client merges locators (named data sources) into a ComputationContext,
// then asks a DecisionTable for its outcome or performs a command. The table
// checks its rules, each rule evaluates its conditions, and each condition
// resolves Coordinates against the context.
//
// EVALUATION MODEL:
//
// Single-threaded episode:
// Every operation (Resolve, Evaluate, Check, Outcome, Perform) runs to
// completion on the calling goroutine. There is no I/O in this package.
//
// Identity-sensitive memoization:
// A Coordinate resolves in place, exactly once per episode. The compiler
// shares one Coordinate instance across every rule built from the same table
// row, so a row's base value is looked up and traced once. Because of this,
// a DecisionTable is a prototype: Clone it for every new ComputationContext.
//
// Ordering:
//   - Conditions of one rule: declaration order, stop at the first false one
//   - Rules of one table: all of them, always, so that more than one satisfied
//     rule is detected and the trace is complete
//   - Assignments of one rule or command: declaration order, each observing
//     the effects of the previous ones
//
// Errors:
// EvaluationError is the single user-facing failure kind. NumberFormatError
// is separate: comparing non-numeric values with > or < is a table authoring
// mistake, not an evaluation outcome.
//
// Thread-safety: none. A ComputationContext, the tables it holds and the
// state locators it writes must not be shared between concurrent episodes.
package engine
