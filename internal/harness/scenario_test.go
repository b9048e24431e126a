package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/ir"
)

func TestLoadScenario_ShippingFlow(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "shipping_flow.yaml")
	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "shipping_flow", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "specs"), scenario.Specs)
	assert.Equal(t, "ep", scenario.EpisodePrefix)
	assert.Equal(t, path, scenario.Path)
	assert.Equal(t, map[string]map[string]string{"order": {"weight": "12"}}, scenario.Locators)
	require.Len(t, scenario.Steps, 6)
	require.Len(t, scenario.Assertions, 5)

	op, target := scenario.Steps[2].Operation()
	assert.Equal(t, ir.OpSet, op)
	assert.Equal(t, "order::weight", target)
	assert.Equal(t, "10.5", scenario.Steps[2].Value)
	assert.Equal(t, "MULTIPLE_RULES", scenario.Steps[3].ExpectError)
}

func TestParseScenario_DefaultsEpisodePrefixToName(t *testing.T) {
	doc := `
name: defaults
description: d
specs: specs
steps:
  - decide: shipping
`
	scenario, err := ParseScenario(strings.NewReader(doc), "testdata")
	require.NoError(t, err)
	assert.Equal(t, "defaults", scenario.EpisodePrefix)
	assert.Empty(t, scenario.Path)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	doc := `
name: typo
description: d
specs: specs
steps:
  - decide: shipping
assertion: []
`
	_, err := ParseScenario(strings.NewReader(doc), "testdata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing name",
			doc:  "description: d\nspecs: specs\nsteps: [{decide: shipping}]",
			want: "name is required",
		},
		{
			name: "missing description",
			doc:  "name: n\nspecs: specs\nsteps: [{decide: shipping}]",
			want: "description is required",
		},
		{
			name: "missing specs dir",
			doc:  "name: n\ndescription: d\nspecs: nowhere\nsteps: [{decide: shipping}]",
			want: "specs directory not found",
		},
		{
			name: "no steps",
			doc:  "name: n\ndescription: d\nspecs: specs",
			want: "steps list is required",
		},
		{
			name: "two operations in one step",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping, perform: ship}]",
			want: "exactly one of decide, perform, set, reset",
		},
		{
			name: "set without separator",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{set: weight, value: '1'}]",
			want: "must be locator::field",
		},
		{
			name: "value without set",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping, value: '1'}]",
			want: "value is only valid with set",
		},
		{
			name: "expect and expect_error",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping, expect: {carrier: van}, expect_error: X}]",
			want: "exclusive",
		},
		{
			name: "unknown assertion type",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping}]\nassertions: [{type: nope}]",
			want: `unknown assertion type "nope"`,
		},
		{
			name: "final_state without locator",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping}]\nassertions: [{type: final_state, expect: {a: b}}]",
			want: "locator is required",
		},
		{
			name: "trace_order without messages",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping}]\nassertions: [{type: trace_order}]",
			want: "messages list is required",
		},
		{
			name: "trace_count without filter",
			doc:  "name: n\ndescription: d\nspecs: specs\nsteps: [{decide: shipping}]\nassertions: [{type: trace_count, count: 1}]",
			want: "message or kind is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario(strings.NewReader(tt.doc), "testdata")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
