package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/dtable/internal/ir"
)

// CompileTable converts a CUE table value into a TableDef.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the table struct itself, e.g.:
//
//	table: basic: {
//		title: "Basic table"
//		rules: ["stored"]
//		conditions: [{on: "data::is-stored", cells: ["true"]}]
//		outcomes: [{name: "text", cells: ["hello world"], else: "no rule satisfied"}]
//		assignments: [{target: "log::last", cells: ["basic"]}]
//	}
//
// Each entry of conditions, outcomes and assignments becomes one row, in
// list order. The table name is the struct label.
func CompileTable(v cue.Value) (*ir.TableDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &ir.TableDef{Name: labelOf(v), Origin: v.Pos().Filename()}

	title := def.Name
	if tv := v.LookupPath(cue.ParsePath("title")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		title = s
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules is required",
			Pos:     v.Pos(),
		}
	}
	rules, err := stringList(rulesVal)
	if err != nil {
		return nil, err
	}
	def.Rows = append(def.Rows, ir.Row{
		Kind:  ir.RowHeader,
		Cells: append([]string{title}, rules...),
		Line:  rulesVal.Pos().Line(),
	})

	rows, err := compileRows(v, "conditions", "on", ir.RowCondition)
	if err != nil {
		return nil, err
	}
	def.Rows = append(def.Rows, rows...)

	rows, err = compileRows(v, "outcomes", "name", ir.RowOutcome)
	if err != nil {
		return nil, err
	}
	def.Rows = append(def.Rows, rows...)

	rows, err = compileRows(v, "assignments", "target", ir.RowAssignment)
	if err != nil {
		return nil, err
	}
	def.Rows = append(def.Rows, rows...)

	return def, nil
}

// compileRows reads a list of {<key>: string, cells: [...string], else?: string}
// entries into rows of the given kind. An else value is only accepted on
// outcome rows; validation reports it anywhere else.
func compileRows(v cue.Value, field, key string, kind ir.RowKind) ([]ir.Row, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rows []ir.Row
	for iter.Next() {
		entry := iter.Value()

		keyVal := entry.LookupPath(cue.ParsePath(key))
		if !keyVal.Exists() {
			return nil, &CompileError{
				Field:   field + "." + key,
				Message: fmt.Sprintf("%s entry requires %q", field, key),
				Pos:     entry.Pos(),
			}
		}
		k, err := keyVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		var cells []string
		if cellsVal := entry.LookupPath(cue.ParsePath("cells")); cellsVal.Exists() {
			cells, err = stringList(cellsVal)
			if err != nil {
				return nil, err
			}
		}

		if elseVal := entry.LookupPath(cue.ParsePath("else")); elseVal.Exists() {
			e, err := elseVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			cells = append(cells, e)
		}

		rows = append(rows, ir.Row{
			Kind:  kind,
			Cells: append([]string{k}, cells...),
			Line:  entry.Pos().Line(),
		})
	}
	return rows, nil
}

// CompileCommand converts a CUE command value into a CommandDef. The value
// is a list of {target, value} assignments applied in order:
//
//	command: play: [
//		{target: "cells::${request::move}", value: "${game::player}"},
//	]
func CompileCommand(v cue.Value) (*ir.CommandDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &ir.CommandDef{Name: labelOf(v), Origin: v.Pos().Filename()}

	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "command",
			Message: "command must be a list of {target, value} assignments",
			Pos:     v.Pos(),
		}
	}

	for iter.Next() {
		entry := iter.Value()
		var a ir.AssignmentDef
		for _, f := range []struct {
			name string
			dst  *string
		}{{"target", &a.Target}, {"value", &a.Value}} {
			fv := entry.LookupPath(cue.ParsePath(f.name))
			if !fv.Exists() {
				return nil, &CompileError{
					Field:   "command." + f.name,
					Message: fmt.Sprintf("assignment requires %q", f.name),
					Pos:     entry.Pos(),
				}
			}
			s, err := fv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			*f.dst = s
		}
		def.Assignments = append(def.Assignments, a)
	}
	return def, nil
}

// stringList reads a CUE list of strings.
func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// labelOf returns the last path selector of v, unquoted.
func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	label := sels[len(sels)-1].String()
	if unquoted, err := strconv.Unquote(label); err == nil {
		return unquoted
	}
	return label
}

// CompileError is a CUE compilation error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
