package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func TestTestCommand_HarnessScenarios(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(jsonOpts()), harnessScenarios)
	require.NoError(t, err, stdout)

	var res TestResult
	decodeData(t, stdout, &res)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Passed)
	assert.Equal(t, 0, res.Failed)

	names := make([]string, len(res.Scenarios))
	for i, s := range res.Scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"archive", "dual_origin", "fibonacci_steps", "saturation"}, names)
}

func TestTestCommand_Filter(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(textOpts()), harnessScenarios, "--filter", "sat*", "-p", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ saturation")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	root := t.TempDir()
	scenarios := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0o755))

	src, err := os.ReadFile(filepath.Join(harnessScenarios, "fibonacci_steps.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "fibonacci_steps.yaml"), src, 0o644))

	_, _, err = execute(NewTestCommand(textOpts()), scenarios, "--update")
	require.NoError(t, err)

	golden := filepath.Join(root, "golden", "fibonacci_steps.golden")
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	want, err := os.ReadFile("../harness/testdata/golden/fibonacci_steps.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, _, err = execute(NewTestCommand(textOpts()), scenarios)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"fibonacci_steps","trace":[]}`), 0o644))
	stdout, _, err := execute(NewTestCommand(textOpts()), scenarios)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ fibonacci_steps")
	assert.Contains(t, stdout, "trace does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`
name: wrong
ops:
  - op: step
assertions:
  - type: total_nodes
    equals: 1
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: [\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	stdout, _, err := execute(NewTestCommand(jsonOpts()), dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var res TestResult
	decodeData(t, stdout, &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Scenarios, 2)
	assert.Equal(t, "broken", res.Scenarios[0].Name)
	assert.Contains(t, res.Scenarios[0].Errors[0], "failed to load scenario")
	assert.Equal(t, "wrong", res.Scenarios[1].Name)
	assert.Contains(t, res.Scenarios[1].Errors[0], "total_nodes")
}

func TestTestCommand_Errors(t *testing.T) {
	_, _, err := execute(NewTestCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")

	_, _, err = execute(NewTestCommand(textOpts()), "/nonexistent/scenarios")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(NewTestCommand(textOpts()), harnessScenarios, "--filter", "[")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_EmptyDir(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(textOpts()), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}
