package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/ir"
)

func codesOf(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name  string
		rows  []ir.Row
		codes []string
	}{
		{
			name:  "valid",
			rows:  basicDef().Rows,
			codes: []string{},
		},
		{
			name:  "missing header",
			rows:  []ir.Row{row(ir.RowOutcome, "x", "1")},
			codes: []string{ErrRuleNames},
		},
		{
			name:  "empty rule name",
			rows:  []ir.Row{row(ir.RowHeader, "t", "a", " ")},
			codes: []string{ErrRuleNames},
		},
		{
			name:  "duplicate rule name",
			rows:  []ir.Row{row(ir.RowHeader, "t", "a", "a")},
			codes: []string{ErrRuleNames},
		},
		{
			name:  "reserved else rule name",
			rows:  []ir.Row{row(ir.RowHeader, "t", "else")},
			codes: []string{ErrRuleNames},
		},
		{
			name: "condition with else cell",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a"),
				row(ir.RowCondition, "x::y", "1", "2"),
			},
			codes: []string{ErrCellCount},
		},
		{
			name: "unknown tag",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a"),
				{Kind: "XYZ", Cells: []string{"q"}, Line: 4},
			},
			codes: []string{ErrUnknownRowKind},
		},
		{
			name: "malformed base",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a"),
				row(ir.RowCondition, "x::${y", "1"),
			},
			codes: []string{ErrMalformedCoord},
		},
		{
			name: "malformed argument under operators",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a", "b"),
				row(ir.RowCondition, "x::y", "!>${z", "~"),
			},
			codes: []string{ErrMalformedCoord},
		},
		{
			name: "duplicate outcome",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a"),
				row(ir.RowOutcome, "x", "1"),
				row(ir.RowOutcome, "x", "2"),
			},
			codes: []string{ErrDuplicateOutcome},
		},
		{
			name: "two else columns",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a"),
				row(ir.RowOutcome, "x", "1", "2", "3"),
			},
			codes: []string{ErrElseColumns},
		},
		{
			name: "assignment else",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a"),
				row(ir.RowAssignment, "x::y", "1", "2"),
			},
			codes: []string{ErrAssignmentElse},
		},
		{
			name: "short rows are padded",
			rows: []ir.Row{
				row(ir.RowHeader, "t", "a", "b", "c"),
				row(ir.RowCondition, "x::y", "1"),
				row(ir.RowOutcome, "o"),
			},
			codes: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(ir.TableDef{Name: "t", Rows: tt.rows})
			assert.Equal(t, tt.codes, codesOf(errs))
		})
	}
}

func TestValidate_LineNumbers(t *testing.T) {
	errs := Validate(&ir.TableDef{Name: "t", Rows: []ir.Row{
		{Kind: ir.RowHeader, Cells: []string{"t", "a"}, Line: 1},
		{Kind: ir.RowOutcome, Cells: []string{"x", "1", "2", "3"}, Line: 7},
	}})
	require.Len(t, errs, 1)
	assert.Equal(t, 7, errs[0].Line)
	assert.Contains(t, errs[0].Error(), "[E206] line 7: table.t.OUT.x")
}

func TestValidate_Command(t *testing.T) {
	errs := Validate(ir.CommandDef{Name: "c", Assignments: []ir.AssignmentDef{
		{Target: "a::${b", Value: "1"},
		{Target: "a::b", Value: "${oops"},
	}})
	assert.Equal(t, []string{ErrMalformedCoord, ErrMalformedCoord}, codesOf(errs))
	assert.Equal(t, "command.c[0].target", errs[0].Field)
	assert.Equal(t, "command.c[1].value", errs[1].Field)
}

func TestValidate_BundleNames(t *testing.T) {
	header := []ir.Row{row(ir.RowHeader, "", "r")}
	errs := Validate(&ir.Bundle{
		Tables: []ir.TableDef{
			{Name: ir.ConstantSource, Rows: header},
			{Name: "board", Rows: header},
		},
		Commands: []ir.CommandDef{
			{Name: "board", Assignments: []ir.AssignmentDef{{Target: "a::b", Value: "c"}}},
		},
	})
	assert.Equal(t, []string{ErrDuplicateName, ErrDuplicateName}, codesOf(errs))
	assert.Contains(t, errs[1].Message, `table "board"`)
}

func TestValidate_UnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}
