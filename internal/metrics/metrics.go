// Package metrics exports engine progress as Prometheus metrics.
//
// A Recorder is an engine.Observer: it is fed every captured snapshot and
// every reset, and updates its collectors from the snapshot's statistics.
// Each Recorder owns a registry, so tests and concurrent runs never share
// series.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/wavegrid/internal/graph"
)

var regimes = []graph.Regime{
	graph.RegimeQuantum,
	graph.RegimeIntermediate,
	graph.RegimeClassical,
	graph.RegimeSaturated,
}

// Recorder tracks the latest snapshot of one engine.
type Recorder struct {
	reg *prometheus.Registry

	tick           prometheus.Gauge
	nodes          *prometheus.GaugeVec
	edges          prometheus.Gauge
	coverage       prometheus.Gauge
	addressable    prometheus.Gauge
	regime         *prometheus.GaugeVec
	nashPoints     prometheus.Gauge
	interference   *prometheus.GaugeVec
	maxDepth       prometheus.Gauge
	snapshots      prometheus.Counter
	collisions     prometheus.Counter
	tickCollisions prometheus.Histogram
	resets         prometheus.Counter
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		tick: f.NewGauge(prometheus.GaugeOpts{
			Name: "wavegrid_tick",
			Help: "Tick of the latest snapshot",
		}),
		nodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wavegrid_nodes",
			Help: "Stored nodes by lifecycle state",
		}, []string{"state"}),
		edges: f.NewGauge(prometheus.GaugeOpts{
			Name: "wavegrid_edges",
			Help: "Stored edges",
		}),
		coverage: f.NewGauge(prometheus.GaugeOpts{
			Name: "wavegrid_coverage_ratio",
			Help: "Occupied share of the addressable space",
		}),
		addressable: f.NewGauge(prometheus.GaugeOpts{
			Name: "wavegrid_addressable_cells",
			Help: "Size of the address space coverage is measured against",
		}),
		regime: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wavegrid_regime",
			Help: "1 for the current phase regime, 0 otherwise",
		}, []string{"regime"}),
		nashPoints: f.NewGauge(prometheus.GaugeOpts{
			Name: "wavegrid_nash_points",
			Help: "Nodes marked as Nash points",
		}),
		interference: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wavegrid_interference_nodes",
			Help: "Nodes by last interference classification",
		}, []string{"kind"}),
		maxDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "wavegrid_max_depth",
			Help: "Deepest generation stored",
		}),
		snapshots: f.NewCounter(prometheus.CounterOpts{
			Name: "wavegrid_snapshots_total",
			Help: "Snapshots captured",
		}),
		collisions: f.NewCounter(prometheus.CounterOpts{
			Name: "wavegrid_collisions_total",
			Help: "Collision events across all ticks",
		}),
		tickCollisions: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wavegrid_tick_collisions",
			Help:    "Collision events per captured snapshot",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		resets: f.NewCounter(prometheus.CounterOpts{
			Name: "wavegrid_resets_total",
			Help: "Engine resets",
		}),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// OnSnapshot updates every collector from s.
func (r *Recorder) OnSnapshot(s graph.Snapshot) {
	st := s.Statistics

	r.tick.Set(float64(s.Tick))
	r.nodes.WithLabelValues(string(graph.StateActive)).Set(float64(st.ActiveNodes))
	r.nodes.WithLabelValues(string(graph.StateSaturated)).Set(float64(st.SaturatedNodes))
	r.edges.Set(float64(st.TotalEdges))
	r.coverage.Set(s.Coverage)
	r.addressable.Set(float64(st.Addressable))
	for _, rg := range regimes {
		v := 0.0
		if rg == s.Regime {
			v = 1
		}
		r.regime.WithLabelValues(string(rg)).Set(v)
	}
	r.nashPoints.Set(float64(st.NashPoints))
	r.interference.WithLabelValues(string(graph.InterferenceConstructive)).Set(float64(st.Constructive))
	r.interference.WithLabelValues(string(graph.InterferenceDestructive)).Set(float64(st.Destructive))
	r.maxDepth.Set(float64(st.MaxDepth))

	r.snapshots.Inc()
	r.collisions.Add(float64(st.CollisionEvents))
	r.tickCollisions.Observe(float64(st.CollisionEvents))
}

// OnReset counts the reset. Gauges are refreshed by the snapshot 0 that
// follows.
func (r *Recorder) OnReset() {
	r.resets.Inc()
}

// Handler serves the recorder's registry in the Prometheus exposition
// format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Server exposes a Recorder on /metrics.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// Listen binds addr and prepares a metrics server. Use ":0" for an
// ephemeral port; Addr reports the bound address.
func Listen(addr string, r *Recorder, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("metrics listening", "addr", s.Addr())
		errc <- s.srv.Serve(s.ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	}
}
