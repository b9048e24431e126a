package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// specsPath returns the absolute path of the shared test specs.
func specsPath(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("testdata", "specs"))
	require.NoError(t, err)
	return dir
}

// newProject writes a project file seeding order::weight with weight and
// returns its path. The database lives next to it.
func newProject(t *testing.T, weight string) string {
	t.Helper()
	dir := t.TempDir()
	return writeProject(t, dir, weight)
}

func writeProject(t *testing.T, dir, weight string) string {
	t.Helper()
	path := filepath.Join(dir, "dtable.yaml")
	content := "specs: " + specsPath(t) + "\n" +
		"database: state.db\n" +
		"locators:\n" +
		"  order:\n" +
		"    weight: \"" + weight + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// mustExecute is execute for commands expected to succeed.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := execute(t, args...)
	require.NoError(t, err, "stdout: %s\nstderr: %s", out, errOut)
	return out
}
