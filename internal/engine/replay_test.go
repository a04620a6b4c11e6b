package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/graph"
)

func recordedRun(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t, DefaultConfig())
	stepN(t, e, 2)
	_, err := e.Propagate(graph.OriginID, graph.ModeLucas)
	require.NoError(t, err)
	// Failed calls must not reach the journal.
	_, err = e.Propagate(graph.NodeID(1<<20), graph.ModeDual)
	require.Error(t, err)
	stepN(t, e, 2)
	return e
}

func TestJournal_RecordsSuccessfulCalls(t *testing.T) {
	e := recordedRun(t)

	ops := e.Journal()
	require.Len(t, ops, 5)
	kinds := make([]graph.OpKind, len(ops))
	for i, op := range ops {
		assert.Equal(t, int64(i+1), op.Seq)
		kinds[i] = op.Kind
	}
	assert.Equal(t, []graph.OpKind{graph.OpStep, graph.OpStep, graph.OpPropagate, graph.OpStep, graph.OpStep}, kinds)
	assert.Equal(t, graph.OriginID, ops[2].Node)
	assert.Equal(t, graph.ModeLucas, ops[2].Mode)
}

func TestReplay_ReproducesHistory(t *testing.T) {
	e := recordedRun(t)

	replayed, err := Replay(e.Config(), e.Journal())
	require.NoError(t, err)
	assert.Equal(t, e.Tick(), replayed.Tick())
	assert.Equal(t, e.Nodes(), replayed.Nodes())
	assert.Equal(t, e.Edges(), replayed.Edges())

	want, err := graph.JournalDigest(e.Journal())
	require.NoError(t, err)
	got, err := graph.JournalDigest(replayed.Journal())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.NoError(t, VerifyReplay(e.Config(), e.Journal(), e.Snapshots()))
}

func TestVerifyReplay_DetectsTruncation(t *testing.T) {
	e := recordedRun(t)
	ops := e.Journal()

	err := VerifyReplay(e.Config(), ops[:len(ops)-1], e.Snapshots())
	require.Error(t, err)
	assert.True(t, IsReplayMismatch(err))

	var rm *ReplayMismatchError
	require.ErrorAs(t, err, &rm)
	assert.Equal(t, int64(4), rm.Tick)
	assert.Empty(t, rm.Got)
}

func TestVerifyReplay_DetectsTampering(t *testing.T) {
	e := recordedRun(t)
	snaps := e.Snapshots()
	snaps[2].Digest = "0000"

	err := VerifyReplay(e.Config(), e.Journal(), snaps)
	var rm *ReplayMismatchError
	require.ErrorAs(t, err, &rm)
	assert.Equal(t, int64(2), rm.Tick)
}

func TestVerifyReplay_RecomputesMissingDigests(t *testing.T) {
	e := recordedRun(t)
	snaps := e.Snapshots()
	for i := range snaps {
		snaps[i].Digest = ""
	}
	assert.NoError(t, VerifyReplay(e.Config(), e.Journal(), snaps))
}

func TestVerifyReplay_DifferentConfigDiverges(t *testing.T) {
	e := recordedRun(t)
	cfg := e.Config()
	cfg.EnableDualPropagation = false

	err := VerifyReplay(cfg, e.Journal(), e.Snapshots())
	assert.True(t, IsReplayMismatch(err))
}

func TestApply_UnknownKind(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	err := e.Apply(graph.Operation{Kind: "rewind"})
	assert.Error(t, err)
}
