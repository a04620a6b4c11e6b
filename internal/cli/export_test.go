package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/graph"
)

func TestExportCommand_MatchesHarnessGolden(t *testing.T) {
	stdout, _, err := execute(NewExportCommand(textOpts()), "--ticks", "1", "--max-shell", "1", "--dual=false")
	require.NoError(t, err)

	want, err := os.ReadFile("../harness/testdata/golden/export_single_shell.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), stdout)
}

func TestExportCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.json")
	stdout, _, err := execute(NewExportCommand(jsonOpts()), "--ticks", "2", "--dual=false", "-o", path)
	require.NoError(t, err)

	var msg string
	decodeData(t, stdout, &msg)
	assert.Contains(t, msg, "wrote 12 nodes and 12 edges")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var export graph.Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, int64(2), export.CurrentTime)
	assert.Len(t, export.Nodes, 12)
}

func TestExportCommand_Archived(t *testing.T) {
	db := archiveFixture(t, "run-a")

	stdout, _, err := execute(NewExportCommand(textOpts()), "--db", db, "--run", "run-a", "--tick", "1")
	require.NoError(t, err)
	var export graph.Export
	require.NoError(t, json.Unmarshal([]byte(stdout), &export))
	assert.Equal(t, int64(1), export.CurrentTime)
	assert.Len(t, export.Nodes, 4)
	assert.Len(t, export.Edges, 3)

	stdout, _, err = execute(NewExportCommand(textOpts()), "--db", db, "--run", "run-a")
	require.NoError(t, err)
	export = graph.Export{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &export))
	assert.Equal(t, int64(3), export.CurrentTime)
	assert.Len(t, export.Nodes, 33)
	assert.Len(t, export.Edges, 36)
	assert.Equal(t, 12, export.Statistics.CollisionEvents)
}

func TestExportCommand_Errors(t *testing.T) {
	db := archiveFixture(t, "run-a")

	stdout, _, err := execute(NewExportCommand(jsonOpts()), "--db", db, "--run", "run-a", "--tick", "9")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeError(t, stdout))

	stdout, _, err = execute(NewExportCommand(jsonOpts()), "--db", db, "--run", "nope")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeError(t, stdout))

	_, _, err = execute(NewExportCommand(jsonOpts()), "--db", filepath.Join(t.TempDir(), "none.db"), "--run", "run-a")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	stdout, _, err = execute(NewExportCommand(jsonOpts()), "--max-shell", "99")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeInvalidConfig, decodeError(t, stdout))
}
