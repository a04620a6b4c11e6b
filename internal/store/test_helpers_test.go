package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// recordedEngine runs a small mixed session: two steps, an explicit
// propagation, one more step.
func recordedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, e.Step())
	require.NoError(t, e.Step())
	_, err = e.Propagate(graph.OriginID, graph.ModeLucas)
	require.NoError(t, err)
	require.NoError(t, e.Step())
	return e
}

// saveTestRun archives recordedEngine under id.
func saveTestRun(t *testing.T, s *Store, id string) (Archive, *engine.Engine) {
	t.Helper()
	e := recordedEngine(t)
	a, err := NewArchive(id, "test "+id, e, testTime)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(t.Context(), a))
	return a, e
}
