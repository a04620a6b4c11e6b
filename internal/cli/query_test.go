package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/graph"
)

func TestQueryCommand(t *testing.T) {
	db := archiveFixture(t, "run-a")

	tests := []struct {
		name  string
		args  []string
		tick  int64
		count int
	}{
		{"latest snapshot", nil, 3, 33},
		{"snapshot zero", []string{"--tick", "0"}, 0, 1},
		{"tick one", []string{"--tick", "1"}, 1, 4},
		{"origin only", []string{"--max-depth", "0"}, 3, 1},
		{"active", []string{"--state", "Active"}, 3, 33},
		{"saturated", []string{"--state", "Saturated"}, 3, 0},
		{"first generation", []string{"--tick", "2", "--created-to", "1"}, 2, 4},
		{"empty range", []string{"--min-depth", "3", "--max-depth", "1"}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db, "run-a"}, tt.args...)
			stdout, _, err := execute(NewQueryCommand(jsonOpts()), args...)
			require.NoError(t, err)

			var res QueryResult
			decodeData(t, stdout, &res)
			assert.Equal(t, "run-a", res.RunID)
			assert.Equal(t, tt.tick, res.Tick)
			assert.Equal(t, tt.count, res.Count)
			assert.Len(t, res.Nodes, tt.count)
		})
	}
}

func TestQueryCommand_NodesInIDOrder(t *testing.T) {
	db := archiveFixture(t, "run-a")
	stdout, _, err := execute(NewQueryCommand(jsonOpts()), "--db", db, "run-a", "--tick", "1")
	require.NoError(t, err)

	var res QueryResult
	decodeData(t, stdout, &res)
	ids := make([]graph.NodeID, len(res.Nodes))
	for i, n := range res.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []graph.NodeID{0, 1, 2, 3}, ids)
}

func TestQueryCommand_Text(t *testing.T) {
	db := archiveFixture(t, "run-a")
	stdout, _, err := execute(NewQueryCommand(textOpts()), "--db", db, "run-a", "--tick", "1", "--min-depth", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 matching nodes in run run-a at tick 1")
	assert.Contains(t, stdout, "Active")
}

func TestQueryCommand_Errors(t *testing.T) {
	db := archiveFixture(t, "run-a")

	stdout, _, err := execute(NewQueryCommand(jsonOpts()), "--db", db, "run-a", "--state", "Dormant")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeInvalidFilter, decodeError(t, stdout))

	stdout, _, err = execute(NewQueryCommand(jsonOpts()), "--db", db, "run-a", "--min-depth=-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeInvalidFilter, decodeError(t, stdout))

	stdout, _, err = execute(NewQueryCommand(jsonOpts()), "--db", db, "nope")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeError(t, stdout))

	stdout, _, err = execute(NewQueryCommand(jsonOpts()), "--db", db, "run-a", "--tick", "7")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeError(t, stdout))

	_, _, err = execute(NewQueryCommand(jsonOpts()), "--db", filepath.Join(t.TempDir(), "x.db"), "run-a")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(NewQueryCommand(jsonOpts()), "run-a")
	assert.Error(t, err, "--db is required")
}
