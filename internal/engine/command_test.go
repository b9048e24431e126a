package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignment_RoundTrip(t *testing.T) {
	for _, v := range []string{"X", "", "hello world", "42", "a::b"} {
		t.Run(v, func(t *testing.T) {
			cc := NewComputationContext(nil, stateOf(map[string]map[string]string{"board": {}}))
			a := NewAssignment(coord(t, "board::cell"), Constant(v))
			require.NoError(t, a.Perform(cc))

			got, err := cc.ValueFor("board", "cell")
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestAssignment_DynamicTarget(t *testing.T) {
	cc := NewComputationContext(nil, stateOf(map[string]map[string]string{
		"cells": {},
		"game":  {"player": "X"},
	}).Register("request", NewRequestLocator("request", map[string]string{"move": "B2"})))

	target := coord(t, "cells::${request::move}")
	require.NoError(t, NewAssignment(target, coord(t, "game::player")).Perform(cc))

	got, err := cc.ValueFor("cells", "B2")
	require.NoError(t, err)
	assert.Equal(t, "X", got)
	assert.False(t, target.IsConstant(), "targets are addressed, never resolved")
}

func TestAssignment_ReadOnlyTargets(t *testing.T) {
	cc := NewComputationContext(nil, stateOf(nil).
		Register("request", NewRequestLocator("request", map[string]string{"move": "A1"})))

	tests := []struct {
		name   string
		target string
	}{
		{"request", "request::move"},
		{"constant literal", "just-a-literal"},
		{"explicit constant", "constant::x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAssignment(coord(t, tt.target), Constant("v")).Perform(cc)
			require.Error(t, err)
			assert.True(t, HasCode(err, ErrCodeReadOnlyLocator))
		})
	}
}

func TestAssignment_TableTargetIsNotFound(t *testing.T) {
	table := basicTable(t)
	cc := NewComputationContext(tablesOf(table), stateOf(nil))

	err := NewAssignment(coord(t, "basic::outcome"), Constant("v")).Perform(cc)
	require.Error(t, err)
	assert.True(t, IsLocatorNotFound(err), "tables live outside the writable namespace")
}

func TestCommand_AssignmentsSeeEarlierEffects(t *testing.T) {
	state := stateOf(map[string]map[string]string{"game": {"player": "X"}, "board": {}})
	cmd := NewCommand("play",
		NewAssignment(coord(t, "board::last"), coord(t, "game::player")),
		NewAssignment(coord(t, "game::player"), coord(t, "O")),
		NewAssignment(coord(t, "board::next"), coord(t, "game::player")),
	)

	cc := NewComputationContext(nil, state)
	tracker := cc.StartTracking()
	applied, err := cmd.Perform(cc)
	require.NoError(t, err)
	assert.True(t, applied)

	last, _ := cc.ValueFor("board", "last")
	next, _ := cc.ValueFor("board", "next")
	assert.Equal(t, "X", last)
	assert.Equal(t, "O", next)

	var messages []string
	for _, e := range tracker.Filter(TraceCommand) {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{
		"play: perform",
		"board::last := X",
		"game::player := O",
		"board::next := O",
	}, messages)
}

func TestCommand_NoBatchAtomicity(t *testing.T) {
	state := stateOf(map[string]map[string]string{"board": {}})
	cmd := NewCommand("broken",
		NewAssignment(coord(t, "board::a"), coord(t, "1")),
		NewAssignment(coord(t, "ghost::b"), coord(t, "2")),
	)

	cc := NewComputationContext(nil, state)
	_, err := cmd.Perform(cc)
	require.Error(t, err)
	assert.True(t, IsLocatorNotFound(err))

	v, _ := cc.ValueFor("board", "a")
	assert.Equal(t, "1", v, "earlier writes stay in place")
}

func TestCommand_Guarded(t *testing.T) {
	state := stateOf(map[string]map[string]string{"game": {"over": "true"}, "board": {}})
	rule := NewRule("reset").
		AddCondition(NewEquals(coord(t, "game::over"), coord(t, "false"))).
		AddAssignment(NewAssignment(coord(t, "board::cleared"), coord(t, "yes")))
	cmd := NewGuardedCommand("reset", rule)

	applied, err := cmd.Clone().Perform(NewComputationContext(nil, state))
	require.NoError(t, err)
	assert.False(t, applied)

	cc := NewComputationContext(nil, state)
	require.NoError(t, cc.SetValueFor("game", "over", "false"))
	applied, err = cmd.Clone().Perform(cc)
	require.NoError(t, err)
	assert.True(t, applied)

	v, _ := cc.ValueFor("board", "cleared")
	assert.Equal(t, "yes", v)
}
