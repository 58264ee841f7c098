package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenariosDir holds the shared scenario files at the project root.
var scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")

const passingScenario = `
name: passing
description: "Single fact"
run_id: cli-run
source: "p(a). ? p(X)."
assertions:
  - type: rows
    rows: [[a]]
`

const failingScenario = `
name: failing
description: "Wrong row count"
source: "p(a). ? p(X)."
assertions:
  - type: row_count
    count: 2
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeRoot(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentScenario(t *testing.T) {
	_, err := executeRoot(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeRoot(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := executeRoot(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, []byte(out), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
}

func TestTestCommandSharedScenarios(t *testing.T) {
	out, err := executeRoot(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ grandparents")
	assert.Contains(t, out, "✓ recursive-path")
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeRoot(t, "test", scenariosDir, "--filter", "gr*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ grandparents")
	assert.NotContains(t, out, "roots")
	assert.Contains(t, out, "1 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := executeRoot(t, "test", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing.yaml", passingScenario)
	writeScenario(t, dir, "failing.yaml", failingScenario)

	out, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ passing")
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "Assertion failed: row_count")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "failing.yaml", failingScenario)

	out, err := executeRoot(t, "--format", "json", "test", dir)
	require.Error(t, err)

	var result TestResult
	resp := decodeResponse(t, []byte(out), &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "failing", result.Scenarios[0].Name)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	out, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "Load error")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "passing.yaml", passingScenario)

	out, err := executeRoot(t, "test", path, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ passing (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "passing.golden"))
	require.NoError(t, err)
	assert.Equal(t, "scenario: passing\nrun: cli-run\norder: p\nanswer: 1 rows\n  (a)\n", string(golden))

	out, err = executeRoot(t, "test", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ passing\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "passing.golden"), []byte("stale\n"), 0o644))
	out, err = executeRoot(t, "test", path)
	require.Error(t, err)
	assert.Contains(t, out, "Golden file mismatch")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "roots.golden"),
		goldenFilePath(filepath.Join("scenarios", "roots.yaml")))
}

func TestFilterScenarioFiles(t *testing.T) {
	paths := []string{"a/cart-add.yaml", "a/cart-remove.yml", "a/roots.yaml"}
	assert.Equal(t, paths, filterScenarioFiles(paths, ""))
	assert.Equal(t, []string{"a/cart-add.yaml", "a/cart-remove.yml"}, filterScenarioFiles(paths, "cart-*"))
	assert.Empty(t, filterScenarioFiles(paths, "none"))
}
