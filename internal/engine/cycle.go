package engine

import (
	"fmt"
	"strings"
)

// RecursionGuard tracks which tables are computing their outcome within one
// episode, to stop a table that depends on itself.
//
// Example cycle:
//
//	board reads winner::status → winner reads board::next → board again
//	← RECURSION DETECTED
//
// Tables reference other tables as ordinary coordinates, so a cycle is not
// visible until evaluation reaches it. Static analysis in the compiler
// reports candidate cycles as warnings; this guard is what actually stops
// them at run time.
type RecursionGuard struct {
	stack  []string
	active map[string]bool
}

// NewRecursionGuard creates an empty guard.
func NewRecursionGuard() *RecursionGuard {
	return &RecursionGuard{active: make(map[string]bool)}
}

// Enter marks table as computing. It fails if the table is already on the
// stack.
func (g *RecursionGuard) Enter(table string) error {
	if g.active[table] {
		path := append(append([]string(nil), g.stack...), table)
		return &EvaluationError{
			Code:    ErrCodeTableRecursion,
			Message: fmt.Sprintf("table depends on itself: %s", strings.Join(path, " -> ")),
			Table:   table,
			Details: map[string]string{"path": strings.Join(path, ",")},
		}
	}
	g.active[table] = true
	g.stack = append(g.stack, table)
	return nil
}

// Leave pops table. Calls must mirror successful Enter calls.
func (g *RecursionGuard) Leave(table string) {
	delete(g.active, table)
	if n := len(g.stack); n > 0 && g.stack[n-1] == table {
		g.stack = g.stack[:n-1]
	}
}

// Depth returns the number of tables currently computing.
func (g *RecursionGuard) Depth() int {
	return len(g.stack)
}
