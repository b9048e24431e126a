package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/ir"
)

func TestCompileTableBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: basic: {
			title: "Basic table"
			rules: ["stored-and-cheap"]
			conditions: [
				{on: "data::is-stored", cells: ["true"]},
				{on: "market::shop", cells: ["<3"]},
			]
			outcomes: [
				{name: "outcome", cells: ["true"], else: "else"},
				{name: "text", cells: ["hello world"], else: "no rule satisfied"},
			]
		}
	`)
	require.NoError(t, v.Err())

	def, err := CompileTable(v.LookupPath(cue.ParsePath("table.basic")))
	require.NoError(t, err)

	assert.Equal(t, "basic", def.Name)
	require.Len(t, def.Rows, 5)
	assert.Equal(t, ir.RowHeader, def.Rows[0].Kind)
	assert.Equal(t, []string{"Basic table", "stored-and-cheap"}, def.Rows[0].Cells)
	assert.Equal(t, []string{"market::shop", "<3"}, def.Rows[2].Cells)
	assert.Equal(t, []string{"text", "hello world", "no rule satisfied"}, def.Rows[4].Cells)
	assert.Positive(t, def.Rows[1].Line)

	// The compiled rows build into the same table as the row form
	table, err := BuildTable(*def)
	require.NoError(t, err)
	out, err := table.Clone().Outcome(newContext("2"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"outcome": "true", "text": "hello world"}, out)
}

func TestCompileTableQuotedLabelAndDefaultTitle(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: "tic-tac-toe": {
			rules: ["a"]
			assignments: [{target: "board::x", cells: ["1"]}]
		}
	`)
	require.NoError(t, v.Err())

	def, err := CompileTable(v.LookupPath(cue.MakePath(cue.Str("table"), cue.Str("tic-tac-toe"))))
	require.NoError(t, err)
	assert.Equal(t, "tic-tac-toe", def.Name)
	assert.Equal(t, "tic-tac-toe", def.Rows[0].Cells[0])
	assert.Equal(t, ir.RowAssignment, def.Rows[1].Kind)
}

func TestCompileTableMissingRules(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: bad: {
			title: "no rules"
		}
	`)
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.bad")))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "rules", compileErr.Field)
}

func TestCompileTableEntryMissingKey(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		table: bad: {
			rules: ["a"]
			outcomes: [{cells: ["1"]}]
		}
	`)
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.bad")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "outcomes.name", compileErr.Field)
}

func TestCompileCommand(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		command: play: [
			{target: "cells::${request::move}", value: "${game::player}"},
			{target: "game::moves", value: "1"},
		]
	`)
	require.NoError(t, v.Err())

	def, err := CompileCommand(v.LookupPath(cue.ParsePath("command.play")))
	require.NoError(t, err)
	assert.Equal(t, "play", def.Name)
	assert.Equal(t, []ir.AssignmentDef{
		{Target: "cells::${request::move}", Value: "${game::player}"},
		{Target: "game::moves", Value: "1"},
	}, def.Assignments)
}

func TestCompileCommandNotAList(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`command: play: {target: "a::b"}`)
	require.NoError(t, v.Err())

	_, err := CompileCommand(v.LookupPath(cue.ParsePath("command.play")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "command", compileErr.Field)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "rules", Message: "rules is required"}
	assert.Equal(t, "rules: rules is required", err.Error())
}
