package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/ir"
)

type episodeResponse struct {
	Status string        `json:"status"`
	Data   EpisodeResult `json:"data"`
	Error  *CLIError     `json:"error"`
}

func decodeEpisode(t *testing.T, out string) episodeResponse {
	t.Helper()
	var resp episodeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestDecideText(t *testing.T) {
	cfg := newProject(t, "12")

	out := mustExecute(t, "--config", cfg, "decide", specsPath(t), "shipping")
	assert.Contains(t, out, "decide shipping")
	assert.Contains(t, out, "seq 1")
	assert.Contains(t, out, "carrier = truck")
	assert.NotContains(t, out, "trace:")
}

func TestDecideJSONWithTrace(t *testing.T) {
	cfg := newProject(t, "12")

	out := mustExecute(t, "--config", cfg, "--format", "json", "decide", specsPath(t), "shipping", "--trace")
	resp := decodeEpisode(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ir.OpDecide, resp.Data.Operation)
	assert.Equal(t, "shipping", resp.Data.Target)
	assert.Equal(t, map[string]string{"carrier": "truck"}, resp.Data.Outcome)
	assert.NotEmpty(t, resp.Data.Episode)
	assert.NotEmpty(t, resp.Data.Trace)
}

func TestDecideWithoutDatabase(t *testing.T) {
	// No project file and no --db: the request supplies the order.
	out := mustExecute(t, "--format", "json", "decide", specsPath(t), "shipping", "-r", "order.weight=3")
	resp := decodeEpisode(t, out)
	assert.Equal(t, map[string]string{"carrier": "van"}, resp.Data.Outcome)
	assert.Equal(t, map[string]map[string]string{"order": {"weight": "3"}}, resp.Data.Request)
}

func TestDecideRequestShadowsState(t *testing.T) {
	cfg := newProject(t, "12")

	out := mustExecute(t, "--config", cfg, "decide", specsPath(t), "shipping", "--request", "order::weight=3")
	assert.Contains(t, out, "carrier = van")
}

func TestDecideMultipleRules(t *testing.T) {
	cfg := newProject(t, "10.5")

	out, _, err := execute(t, "--config", cfg, "decide", specsPath(t), "shipping")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MULTIPLE_RULES]")
	assert.Contains(t, out, "Multiple rules are satisfied")
}

func TestDecideFailurePrintsTrace(t *testing.T) {
	cfg := newProject(t, "10.5")

	_, errOut, err := execute(t, "--config", cfg, "decide", specsPath(t), "shipping", "--trace")
	require.Error(t, err)
	assert.Contains(t, errOut, "error: MULTIPLE_RULES")
	assert.Contains(t, errOut, "trace:")
}

func TestDecideUnknownTable(t *testing.T) {
	cfg := newProject(t, "12")

	out, _, err := execute(t, "--config", cfg, "--format", "json", "decide", specsPath(t), "pricing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeEpisode(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_TARGET", resp.Error.Code)
}

func TestDecideMissingSpecs(t *testing.T) {
	_, _, err := execute(t, "decide", "/nonexistent/specs", "shipping")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDecideInvalidRequest(t *testing.T) {
	_, _, err := execute(t, "decide", specsPath(t), "shipping", "-r", "weight")
	require.Error(t, err)
}

func TestPerformCommandPersists(t *testing.T) {
	cfg := newProject(t, "12")

	out := mustExecute(t, "--config", cfg, "--format", "json", "perform", specsPath(t), "ship")
	resp := decodeEpisode(t, out)
	assert.Equal(t, ir.OpPerform, resp.Data.Operation)
	assert.Equal(t, map[string]string{"applied": "true"}, resp.Data.Outcome)

	out = mustExecute(t, "--config", cfg, "state", "order")
	assert.Contains(t, out, "order::status = shipped")
	assert.Contains(t, out, "order::label = shipped")
	assert.Contains(t, out, "order::weight = 12")
}

func TestPerformTable(t *testing.T) {
	cfg := newProject(t, "3")

	mustExecute(t, "--config", cfg, "perform", specsPath(t), "shipping")

	out := mustExecute(t, "--config", cfg, "--format", "json", "state")
	var resp struct {
		Data StateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "van", resp.Data.Locators["order"]["carrier"])
	assert.Equal(t, ir.MustStateHash(resp.Data.Locators), resp.Data.Hash)
}

func TestSetThenDecide(t *testing.T) {
	cfg := newProject(t, "12")

	out := mustExecute(t, "--config", cfg, "set", specsPath(t), "order::weight", "3")
	assert.Contains(t, out, "set order::weight")
	assert.Contains(t, out, "seq 1")

	// The stored locator wins over the project file's seed.
	out = mustExecute(t, "--config", cfg, "decide", specsPath(t), "shipping")
	assert.Contains(t, out, "carrier = van")
	assert.Contains(t, out, "seq 2")
}

func TestSetInvalidTarget(t *testing.T) {
	cfg := newProject(t, "12")

	_, _, err := execute(t, "--config", cfg, "set", specsPath(t), "weight", "3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "expected locator::field")
}

func TestSetUnknownLocator(t *testing.T) {
	cfg := newProject(t, "12")

	out, _, err := execute(t, "--config", cfg, "set", specsPath(t), "invoice::total", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "LOCATOR_NOT_FOUND")
}

func TestResetClearsLocator(t *testing.T) {
	cfg := newProject(t, "12")

	mustExecute(t, "--config", cfg, "perform", specsPath(t), "ship")
	out := mustExecute(t, "--config", cfg, "reset", specsPath(t), "order")
	assert.Contains(t, out, "reset order")

	out = mustExecute(t, "--config", cfg, "state", "order")
	assert.Contains(t, out, "order:: (empty)")
}

func TestResetUnknownLocator(t *testing.T) {
	cfg := newProject(t, "12")

	out, _, err := execute(t, "--config", cfg, "reset", specsPath(t), "invoice")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Locator 'invoice' not found")
}

func TestStateRequiresDatabase(t *testing.T) {
	_, _, err := execute(t, "state")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no database")
}

func TestStateEmptyAndUnknown(t *testing.T) {
	cfg := newProject(t, "12")

	out := mustExecute(t, "--config", cfg, "state")
	assert.Contains(t, out, "No state.")

	_, _, err := execute(t, "--config", cfg, "state", "order")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestStateIncludesSeededLocators(t *testing.T) {
	cfg := newProject(t, "12")

	mustExecute(t, "--config", cfg, "decide", specsPath(t), "shipping")
	out := mustExecute(t, "--config", cfg, "state", "order")
	assert.Contains(t, out, "order::weight = 12")
}

func TestBoltBackend(t *testing.T) {
	cfg := newProject(t, "12")

	mustExecute(t, "--config", cfg, "--backend", "bolt", "perform", specsPath(t), "ship")
	out := mustExecute(t, "--config", cfg, "--backend", "bolt", "state", "order")
	assert.Contains(t, out, "order::status = shipped")
}
