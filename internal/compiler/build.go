package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/dtable/internal/engine"
	"github.com/roach88/dtable/internal/ir"
)

// ElseRuleName names the fallback rule built from the trailing else column.
const ElseRuleName = "else"

// Catalog holds the table and command templates built from one bundle.
// Templates are never evaluated directly; callers Clone them per episode.
type Catalog struct {
	tables       map[string]*engine.DecisionTable
	tableOrder   []string
	commands     map[string]*engine.Command
	commandOrder []string
}

// Build validates the bundle and builds every table and command.
// Validation failures are returned together as ValidationErrors.
func Build(b ir.Bundle) (*Catalog, error) {
	if errs := validateBundle(&b); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	cat := &Catalog{
		tables:   make(map[string]*engine.DecisionTable, len(b.Tables)),
		commands: make(map[string]*engine.Command, len(b.Commands)),
	}
	for _, def := range b.Tables {
		t, err := buildTable(def)
		if err != nil {
			return nil, err
		}
		cat.tables[def.Name] = t
		cat.tableOrder = append(cat.tableOrder, def.Name)
		slog.Debug("built table", "table", def.Name, "rules", len(t.Rules()), "else", t.ElseRule() != nil)
	}
	for _, def := range b.Commands {
		c, err := buildCommand(def)
		if err != nil {
			return nil, err
		}
		cat.commands[def.Name] = c
		cat.commandOrder = append(cat.commandOrder, def.Name)
		slog.Debug("built command", "command", def.Name, "assignments", len(def.Assignments))
	}
	return cat, nil
}

// Table returns the template of the named table.
func (c *Catalog) Table(name string) (*engine.DecisionTable, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Command returns the template of the named command.
func (c *Catalog) Command(name string) (*engine.Command, bool) {
	cmd, ok := c.commands[name]
	return cmd, ok
}

// TableNames returns table names in discovery order.
func (c *Catalog) TableNames() []string {
	return append([]string(nil), c.tableOrder...)
}

// CommandNames returns command names in discovery order.
func (c *Catalog) CommandNames() []string {
	return append([]string(nil), c.commandOrder...)
}

// Tables returns the templates in discovery order.
func (c *Catalog) Tables() []*engine.DecisionTable {
	out := make([]*engine.DecisionTable, len(c.tableOrder))
	for i, name := range c.tableOrder {
		out[i] = c.tables[name]
	}
	return out
}

// Commands returns the templates in discovery order.
func (c *Catalog) Commands() []*engine.Command {
	out := make([]*engine.Command, len(c.commandOrder))
	for i, name := range c.commandOrder {
		out[i] = c.commands[name]
	}
	return out
}

// BuildTable validates and builds a single table.
func BuildTable(def ir.TableDef) (*engine.DecisionTable, error) {
	if errs := validateTable(&def); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return buildTable(def)
}

// BuildCommand validates and builds a single command.
func BuildCommand(def ir.CommandDef) (*engine.Command, error) {
	if errs := validateCommand(&def); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return buildCommand(def)
}

// buildTable assembles rules column by column. The base coordinate of a
// condition row and the target of an assignment row are parsed once and
// shared by every rule of that row, so a row reads its base at most once per
// episode.
func buildTable(def ir.TableDef) (*engine.DecisionTable, error) {
	header, _ := def.Header()

	names := header.Values()
	rules := make([]*engine.Rule, len(names))
	for i, name := range names {
		rules[i] = engine.NewRule(strings.TrimSpace(name))
	}

	var elseRule *engine.Rule
	n := len(rules)

	for _, row := range def.Rows {
		switch row.Kind {
		case ir.RowCondition:
			base, err := parse(row.Key())
			if err != nil {
				return nil, rowError(def, row, err)
			}
			for i, cell := range row.Values() {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				cond, err := parseCondition(base, cell)
				if err != nil {
					return nil, rowError(def, row, err)
				}
				rules[i].AddCondition(cond)
			}

		case ir.RowOutcome:
			name := strings.TrimSpace(row.Key())
			for i, cell := range row.Values() {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				c, err := parse(cell)
				if err != nil {
					return nil, rowError(def, row, err)
				}
				if i < n {
					rules[i].SetOutcome(name, c)
					continue
				}
				if elseRule == nil {
					elseRule = engine.NewRule(ElseRuleName)
				}
				elseRule.SetOutcome(name, c)
			}

		case ir.RowAssignment:
			target, err := parse(row.Key())
			if err != nil {
				return nil, rowError(def, row, err)
			}
			for i, cell := range row.Values() {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				value, err := parse(cell)
				if err != nil {
					return nil, rowError(def, row, err)
				}
				rules[i].AddAssignment(engine.NewAssignment(target, value))
			}
		}
	}

	t := engine.NewDecisionTable(def.Name, rules, elseRule)
	t.SetTitle(strings.TrimSpace(header.Key()))
	return t, nil
}

func buildCommand(def ir.CommandDef) (*engine.Command, error) {
	assignments := make([]*engine.Assignment, 0, len(def.Assignments))
	for i, a := range def.Assignments {
		target, err := parse(a.Target)
		if err != nil {
			return nil, fmt.Errorf("command %s[%d]: %w", def.Name, i, err)
		}
		value, err := parse(a.Value)
		if err != nil {
			return nil, fmt.Errorf("command %s[%d]: %w", def.Name, i, err)
		}
		assignments = append(assignments, engine.NewAssignment(target, value))
	}
	return engine.NewCommand(def.Name, assignments...), nil
}

// parseCondition applies the condition cell grammar against base:
//
//	~     base equals itself (always true)
//	!X    negation of X parsed against base
//	>X    base greater than X
//	<X    base less than X
//	X     base equals X
func parseCondition(base *engine.Coordinate, cell string) (*engine.Condition, error) {
	switch {
	case cell == "~":
		return engine.NewEquals(base, base), nil
	case strings.HasPrefix(cell, "!"):
		inner, err := parseCondition(base, strings.TrimSpace(cell[1:]))
		if err != nil {
			return nil, err
		}
		return engine.NewNot(inner), nil
	case strings.HasPrefix(cell, ">"):
		arg, err := parse(cell[1:])
		if err != nil {
			return nil, err
		}
		return engine.NewGreaterThan(base, arg), nil
	case strings.HasPrefix(cell, "<"):
		arg, err := parse(cell[1:])
		if err != nil {
			return nil, err
		}
		return engine.NewLessThan(base, arg), nil
	default:
		arg, err := parse(cell)
		if err != nil {
			return nil, err
		}
		return engine.NewEquals(base, arg), nil
	}
}

// conditionArgument returns the coordinate text a condition cell compares
// against, or false for "~" and empty cells.
func conditionArgument(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	for strings.HasPrefix(cell, "!") {
		cell = strings.TrimSpace(cell[1:])
	}
	switch {
	case cell == "" || cell == "~":
		return "", false
	case strings.HasPrefix(cell, ">"), strings.HasPrefix(cell, "<"):
		return cell[1:], true
	default:
		return cell, true
	}
}

func parse(text string) (*engine.Coordinate, error) {
	return engine.ParseCoordinate(strings.TrimSpace(text))
}

func rowError(def ir.TableDef, row ir.Row, err error) error {
	if row.Line > 0 {
		return fmt.Errorf("table %s line %d: %w", def.Name, row.Line, err)
	}
	return fmt.Errorf("table %s %s %s: %w", def.Name, row.Kind, row.Key(), err)
}
