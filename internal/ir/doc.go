// Package ir provides the tabular intermediate representation consumed by
// the decision-table compiler.
//
// Table sources (CSV, CUE) and command sources (YAML, CUE) all produce the
// same categorized-row form defined here. The compiler turns it into engine
// objects; nothing in this package evaluates anything.
//
// This package imports nothing internal. All other internal packages may
// import ir.
//
// Key design constraints:
//   - Every value in the rule language is text; numbers are parsed only at
//     comparison time
//   - Row order and cell order are significant and always preserved
//   - Snapshots of state are hashed through RFC 8785 canonical JSON so that
//     an episode log can be checked for determinism on replay
package ir
