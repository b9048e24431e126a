package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/dtable/internal/ir"
)

// openTestStore opens a file-backed store in a per-test directory.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testEpisode(id string, seq int64) ir.Episode {
	return ir.Episode{
		ID:        id,
		Seq:       seq,
		Operation: ir.OpDecide,
		Target:    "shipping",
		Request: map[string]map[string]string{
			"request": {"weight": "12"},
		},
		Outcome:       map[string]string{"carrier": "truck"},
		StateHash:     ir.MustStateHash(nil),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		Trace: []ir.TraceRecord{
			{Seq: 1, Kind: "table", Message: "shipping"},
			{Seq: 2, Kind: "rule", Message: "heavy"},
		},
	}
}
