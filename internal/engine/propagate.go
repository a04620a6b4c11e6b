package engine

import (
	"fmt"

	"github.com/roach88/wavegrid/internal/graph"
)

// propagate is Propagate without the journal entry; Step journals itself.
//
// The call is staged then committed. Everything up to commit only reads the
// store, so any error leaves it untouched.
func (e *Engine) propagate(id graph.NodeID, mode graph.Mode) (graph.WaveEvent, error) {
	if !mode.Valid() {
		return graph.WaveEvent{}, fmt.Errorf("propagate %s: unknown propagation mode %q", id, mode)
	}
	if int(id) >= len(e.nodes) {
		return graph.WaveEvent{}, &NodeNotFoundError{ID: id}
	}
	parent := e.nodes[id]
	if parent.State != graph.StateActive {
		return graph.WaveEvent{}, &InvalidNodeStateError{ID: id, State: parent.State}
	}

	tick := e.tick.Current()
	ev := graph.WaveEvent{
		Source:  id,
		Mode:    mode,
		Spawned: []graph.NodeID{},
		Tick:    tick,
	}
	if parent.Depth >= e.cfg.MaxShell {
		e.logger.Debug("shell bound reached", "node_id", id, "depth", parent.Depth)
		return ev, nil
	}

	offs, err := e.gen.offsets(parent.Depth+1, mode)
	if err != nil {
		return graph.WaveEvent{}, fmt.Errorf("propagate %s: %w", id, err)
	}
	cands := make([]candidate, len(offs))
	for i, o := range offs {
		cands[i] = candidate{Coord: o.apply(parent.Coord), Offset: o}
	}

	kept, rejected := e.filter.Accept(cands)
	st := e.resolve(parent, mode, kept)
	e.commit(st)

	ev.Spawned = st.spawned
	ev.Created = len(st.inserts)
	ev.Rejected = rejected
	ev.Collisions = st.collisions

	e.logger.Debug("propagate",
		"node_id", id,
		"mode", mode,
		"tick", tick,
		"spawned", len(ev.Spawned),
		"created", ev.Created,
		"rejected", rejected,
		"collisions", ev.Collisions)
	return ev, nil
}
