package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
specs: tables
database: state.bolt
backend: bolt
max_steps: 50
locators:
  market:
    shop: "2"
`))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Specs:    "tables",
		Database: "state.bolt",
		Backend:  BackendBolt,
		MaxSteps: 50,
		Locators: map[string]map[string]string{"market": {"shop": "2"}},
	}, cfg)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("spec: tables\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec")
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"backend":   "backend: postgres\n",
		"max_steps": "max_steps: -1\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dtable.yaml")
	require.NoError(t, os.WriteFile(path, []byte("specs: specs\ndatabase: state.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "specs"), cfg.Specs)
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.Database)
}

func TestLoad_MissingExplicit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MissingDefault(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
