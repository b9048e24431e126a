package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dtable/internal/ir"
)

// TraceSnapshot captures what a scenario run did, in a form stable across
// runs. State hashes are left out; the final state itself is compared.
type TraceSnapshot struct {
	ScenarioName string                       `json:"scenario_name"`
	Episodes     []ir.Episode                 `json:"episodes"`
	Trace        []TraceEvent                 `json:"trace"`
	FinalState   map[string]map[string]string `json:"final_state"`
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		Episodes:     result.Episodes,
		Trace:        result.Trace,
		FinalState:   result.State,
	}
}

// toCanonicalMap converts the snapshot to a map[string]any for canonical
// JSON serialization, which only handles plain values.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	episodes := make([]any, len(s.Episodes))
	for i, ep := range s.Episodes {
		m := map[string]any{
			"id":        ep.ID,
			"seq":       ep.Seq,
			"operation": string(ep.Operation),
			"target":    ep.Target,
		}
		if len(ep.Request) > 0 {
			m["request"] = ep.Request
		}
		if len(ep.Outcome) > 0 {
			m["outcome"] = ep.Outcome
		}
		if ep.Error != "" {
			m["error"] = ep.Error
		}
		episodes[i] = m
	}

	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		trace[i] = map[string]any{
			"episode": event.Episode,
			"step":    event.Step,
			"kind":    event.Kind,
			"message": event.Message,
		}
	}

	state := s.FinalState
	if state == nil {
		state = map[string]map[string]string{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"episodes":      episodes,
		"trace":         trace,
		"final_state":   state,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// GoldenDir is where a scenario's golden file lives: a golden directory
// next to the scenario file, or testdata/golden for scenarios built in
// code.
func GoldenDir(scenario *Scenario) string {
	if scenario.Path == "" {
		return filepath.Join("testdata", "golden")
	}
	return filepath.Join(filepath.Dir(scenario.Path), "golden")
}

// GoldenPath is the golden file of a scenario.
func GoldenPath(scenario *Scenario) string {
	return filepath.Join(GoldenDir(scenario), scenario.Name+".golden")
}

// UpdateGolden writes the result's snapshot as the scenario's golden file.
func UpdateGolden(scenario *Scenario, result *Result) error {
	snapshot := NewSnapshot(scenario.Name, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	path := GoldenPath(scenario)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the result matches the scenario's golden
// file. A missing golden file returns os.ErrNotExist.
func CompareGolden(scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(scenario))
	if err != nil {
		return false, err
	}
	snapshot := NewSnapshot(scenario.Name, result)
	got, err := snapshot.MarshalCanonical()
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// GoldenPath(scenario).
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, assertGolden(t, GoldenDir(scenario), scenario.Name, result)
}

// AssertGolden compares an existing result against
// testdata/golden/{name}.golden without re-running a scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()
	return assertGolden(t, filepath.Join("testdata", "golden"), name, result)
}

func assertGolden(t *testing.T, dir, name string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(name, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
