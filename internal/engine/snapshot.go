package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/wavegrid/internal/graph"
)

// Statistics aggregates the live store. CollisionEvents counts collisions
// since the last snapshot was captured.
func (e *Engine) Statistics() graph.Statistics {
	st := graph.Statistics{
		Tick:            e.Tick(),
		TotalNodes:      len(e.nodes),
		TotalEdges:      len(e.edges),
		CollisionEvents: e.tickCollisions,
		Occupied:        len(e.nodes),
		Addressable:     e.addressable,
	}
	for _, n := range e.nodes {
		switch n.State {
		case graph.StateActive:
			st.ActiveNodes++
		case graph.StateSaturated:
			st.SaturatedNodes++
		}
		if n.NashPoint {
			st.NashPoints++
		}
		switch n.Interference {
		case graph.InterferenceConstructive:
			st.Constructive++
		case graph.InterferenceDestructive:
			st.Destructive++
		}
		st.TotalCollisions += n.Collisions
		if n.Depth > st.MaxDepth {
			st.MaxDepth = n.Depth
		}
	}
	st.Coverage = e.coverage()
	st.Regime = ClassifyRegime(st.Coverage, e.cfg.SaturationThreshold)
	return st
}

// capture appends the end-of-tick snapshot and notifies observers.
//
// Nodes are copied by value. Edges share the live list's prefix: the slice is
// capped at its length, so later appends never write into the snapshot's
// view.
func (e *Engine) capture() error {
	st := e.Statistics()
	snap := graph.Snapshot{
		Tick:       st.Tick,
		Nodes:      slices.Clone(e.nodes),
		Edges:      e.edges[:len(e.edges):len(e.edges)],
		Statistics: st,
		Coverage:   st.Coverage,
		Regime:     st.Regime,
	}
	digest, err := graph.SnapshotDigest(snap, e.quant)
	if err != nil {
		return fmt.Errorf("capture tick %d: %w", st.Tick, err)
	}
	snap.Digest = digest

	e.history = append(e.history, snap)
	e.tickCollisions = 0

	for _, o := range e.watches {
		o.OnSnapshot(snap)
	}
	return nil
}

// CurrentSnapshot returns the most recent snapshot.
func (e *Engine) CurrentSnapshot() graph.Snapshot {
	return e.history[len(e.history)-1]
}

// Snapshots returns the full history, oldest first. Its length is Tick()+1.
// Snapshots are immutable; callers must not modify the returned slices.
func (e *Engine) Snapshots() []graph.Snapshot {
	return slices.Clone(e.history)
}

// Snapshot returns the snapshot captured at tick.
func (e *Engine) Snapshot(tick int64) (graph.Snapshot, bool) {
	if tick < 0 || tick >= int64(len(e.history)) {
		return graph.Snapshot{}, false
	}
	return e.history[tick], true
}
