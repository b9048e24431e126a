package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/ir"
)

func TestRunWithGolden_ShippingFlow(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "shipping_flow.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestGoldenPath(t *testing.T) {
	scenario := &Scenario{Name: "flow", Path: filepath.Join("a", "b", "flow.yaml")}
	assert.Equal(t, filepath.Join("a", "b", "golden", "flow.golden"), GoldenPath(scenario))

	inline := &Scenario{Name: "inline"}
	assert.Equal(t, filepath.Join("testdata", "golden", "inline.golden"), GoldenPath(inline))
}

func TestSnapshotCanonical(t *testing.T) {
	result := NewResult()
	result.AddEpisode(ir.Episode{
		ID:        "x-0001",
		Seq:       1,
		Operation: ir.OpDecide,
		Target:    "shipping",
		Outcome:   map[string]string{"carrier": "van"},
		StateHash: "ignored",
		Trace:     []ir.TraceRecord{{Seq: 1, Kind: "table", Message: "shipping: light"}},
	})
	result.State = map[string]map[string]string{"order": {"weight": "3"}}

	snapshot := NewSnapshot("tiny", result)
	data, err := snapshot.MarshalCanonical()
	require.NoError(t, err)

	want := `{"episodes":[{"id":"x-0001","operation":"decide","outcome":{"carrier":"van"},"seq":1,"target":"shipping"}],` +
		`"final_state":{"order":{"weight":"3"}},"scenario_name":"tiny",` +
		`"trace":[{"episode":"x-0001","kind":"table","message":"shipping: light","step":1}]}`
	assert.Equal(t, want, string(data))
	assert.NotContains(t, string(data), "ignored")
}

func TestUpdateAndCompareGolden(t *testing.T) {
	dir := t.TempDir()
	scenario := &Scenario{Name: "tmp", Path: filepath.Join(dir, "tmp.yaml")}

	result := NewResult()
	result.AddEpisode(ir.Episode{ID: "tmp-0001", Seq: 1, Operation: ir.OpSet, Target: "order::weight"})

	_, err := CompareGolden(scenario, result)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, UpdateGolden(scenario, result))
	match, err := CompareGolden(scenario, result)
	require.NoError(t, err)
	assert.True(t, match)

	result.AddEpisode(ir.Episode{ID: "tmp-0002", Seq: 2, Operation: ir.OpReset, Target: "order"})
	match, err = CompareGolden(scenario, result)
	require.NoError(t, err)
	assert.False(t, match)
}
