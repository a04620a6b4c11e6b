package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/store"
	"github.com/roach88/wavegrid/internal/testutil"
)

func TestRunCommand_Text(t *testing.T) {
	stdout, stderr, err := execute(NewRunCommand(textOpts()), "--ticks", "3", "--dual=false")
	require.NoError(t, err)

	assert.Contains(t, stdout, "tick 3: 33 nodes (33 active, 0 saturated), 36 edges")
	assert.Contains(t, stdout, "coverage 33 of 178,138 cells")
	assert.Contains(t, stdout, "regime Quantum")
	assert.Contains(t, stdout, "nash points 32, constructive 11, destructive 1")
	assert.NotContains(t, stdout, "archived as")
	assert.Contains(t, stderr, "tick", "engine tick logs go to stderr")
}

func TestRunCommand_JSON(t *testing.T) {
	stdout, _, err := execute(NewRunCommand(jsonOpts()), "--ticks", "2")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, stdout, &summary)
	assert.Empty(t, summary.RunID)
	assert.Len(t, summary.Digest, 64)
	assert.Equal(t, int64(2), summary.Statistics.Tick)
	assert.Equal(t, 110, summary.Statistics.TotalNodes)
	assert.Equal(t, 160, summary.Statistics.TotalEdges)
	assert.Equal(t, graph.RegimeQuantum, summary.Statistics.Regime)
}

func TestRunCommand_Deterministic(t *testing.T) {
	var digests []string
	for range 2 {
		stdout, _, err := execute(NewRunCommand(jsonOpts()), "--ticks", "2", "--max-shell", "5")
		require.NoError(t, err)
		var summary RunSummary
		decodeData(t, stdout, &summary)
		digests = append(digests, summary.Digest)
	}
	assert.Equal(t, digests[0], digests[1])
}

func TestRunCommand_ConfigFile(t *testing.T) {
	stdout, _, err := execute(NewRunCommand(jsonOpts()), "--ticks", "2", "--config", "../config/testdata/small.yaml")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, stdout, &summary)
	assert.Equal(t, 27, summary.Statistics.TotalNodes)
	assert.Equal(t, int64(27), summary.Statistics.Addressable)
	assert.Equal(t, 0, summary.Statistics.ActiveNodes)
	assert.Equal(t, graph.RegimeSaturated, summary.Statistics.Regime)
}

func TestRunCommand_Archive(t *testing.T) {
	db := archiveFixture(t, "run-a")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	r, err := st.LoadRun(context.Background(), "run-a")
	require.NoError(t, err)
	assert.Equal(t, "fixture", r.Label)
	assert.Equal(t, int64(3), r.Ticks)
	assert.Equal(t, 33, r.TotalNodes)
	assert.False(t, r.Config.EnableDualPropagation)
	assert.Equal(t, testutil.Epoch.Unix(), r.CreatedAt)
}

func TestRunCommand_ArchiveReportsRunID(t *testing.T) {
	db := t.TempDir() + "/w.db"
	opts := &RunOptions{RootOptions: textOpts(), RunIDs: testutil.NewFixedRunID("run-z")}
	stdout, _, err := execute(newRunCommand(opts), "--ticks", "1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "archived as run-z")
}

func TestRunCommand_Metrics(t *testing.T) {
	stdout, _, err := execute(NewRunCommand(jsonOpts()), "--ticks", "1", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, stdout, &summary)
	assert.Equal(t, int64(1), summary.Statistics.Tick)
}

func TestRunCommand_Errors(t *testing.T) {
	stdout, _, err := execute(NewRunCommand(jsonOpts()), "--max-shell", "0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeInvalidConfig, decodeError(t, stdout))

	_, _, err = execute(NewRunCommand(textOpts()), "--ticks=-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(NewRunCommand(textOpts()), "extra")
	assert.Error(t, err)

	_, _, err = execute(NewRunCommand(textOpts()), "--metrics-addr", "256.0.0.1:bad")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunSummary_String(t *testing.T) {
	s := RunSummary{
		RunID:  "r1",
		Digest: "abc",
		Statistics: graph.Statistics{
			Tick: 4, TotalNodes: 12345, ActiveNodes: 12000, SaturatedNodes: 345, TotalEdges: 20000,
			Occupied: 12345, Addressable: 178138, Coverage: 0.5, Regime: graph.RegimeIntermediate,
		},
	}
	got := s.String()
	assert.Contains(t, got, "tick 4: 12,345 nodes (12,000 active, 345 saturated), 20,000 edges")
	assert.Contains(t, got, "coverage 12,345 of 178,138 cells (50%), regime Intermediate")
	assert.Contains(t, got, "digest abc\narchived as r1")
}
