package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
)

var _ engine.Observer = (*Recorder)(nil)

func observedEngine(t *testing.T, steps int) (*engine.Engine, *Recorder) {
	t.Helper()
	rec := NewRecorder()
	e, err := engine.New(engine.DefaultConfig(), engine.WithObserver(rec))
	require.NoError(t, err)
	for i := 0; i < steps; i++ {
		require.NoError(t, e.Step())
	}
	return e, rec
}

func TestRecorder_TracksLatestSnapshot(t *testing.T) {
	e, rec := observedEngine(t, 3)
	st := e.Statistics()

	assert.Equal(t, 3.0, testutil.ToFloat64(rec.tick))
	assert.Equal(t, float64(st.ActiveNodes), testutil.ToFloat64(rec.nodes.WithLabelValues("Active")))
	assert.Equal(t, float64(st.SaturatedNodes), testutil.ToFloat64(rec.nodes.WithLabelValues("Saturated")))
	assert.Equal(t, float64(st.TotalEdges), testutil.ToFloat64(rec.edges))
	assert.Equal(t, st.Coverage, testutil.ToFloat64(rec.coverage))
	assert.Equal(t, float64(e.Addressable()), testutil.ToFloat64(rec.addressable))
	assert.Equal(t, float64(st.NashPoints), testutil.ToFloat64(rec.nashPoints))
	assert.Equal(t, float64(st.Destructive), testutil.ToFloat64(rec.interference.WithLabelValues("Destructive")))
	assert.Equal(t, float64(st.MaxDepth), testutil.ToFloat64(rec.maxDepth))

	for _, rg := range regimes {
		want := 0.0
		if rg == st.Regime {
			want = 1
		}
		assert.Equal(t, want, testutil.ToFloat64(rec.regime.WithLabelValues(string(rg))), rg)
	}
}

func TestRecorder_Counters(t *testing.T) {
	e, rec := observedEngine(t, 3)

	var collisions int
	for _, s := range e.Snapshots() {
		collisions += s.Statistics.CollisionEvents
	}
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.snapshots), "snapshot 0 plus three ticks")
	assert.Equal(t, float64(collisions), testutil.ToFloat64(rec.collisions))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.tickCollisions))

	e.Reset()
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.resets))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.snapshots))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.tick))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.nodes.WithLabelValues(string(graph.StateActive))))
}

func TestRecorder_Handler(t *testing.T) {
	_, rec := observedEngine(t, 2)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "wavegrid_tick 2")
	assert.Contains(t, string(body), `wavegrid_nodes{state="Active"}`)
	assert.Contains(t, string(body), "wavegrid_snapshots_total 3")
}

func TestRecorders_AreIsolated(t *testing.T) {
	_, a := observedEngine(t, 2)
	b := NewRecorder()

	assert.Equal(t, 3.0, testutil.ToFloat64(a.snapshots))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.snapshots))
}

func TestServer_ServesAndShutsDown(t *testing.T) {
	_, rec := observedEngine(t, 1)

	s, err := Listen("127.0.0.1:0", rec, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
