package engine

import (
	"math"

	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/graph"
)

// edgeKey identifies a parent-child link. Each link is recorded once, with
// the mode and tick of the call that first made it.
type edgeKey struct {
	from, to graph.NodeID
}

// stage holds every mutation one propagation call will make. Nothing in it
// is visible to the store until commit.
type stage struct {
	inserts    []graph.Node
	updates    map[graph.NodeID]graph.Node
	keys       map[coord.Key]graph.NodeID
	edges      []graph.Edge
	spawned    []graph.NodeID
	seen       map[graph.NodeID]bool
	collisions int
}

// resolve deduplicates candidates against the store and against each other.
//
// A candidate landing on an occupied cell is a collision when the occupant
// was created in the current or the previous tick, or earlier in this same
// call. Collisions bump the occupant's counter and overwrite its
// interference. Older occupants absorb the candidate silently. Either way the
// occupant's id is reported and linked to the parent; no duplicate is
// inserted.
func (e *Engine) resolve(parent graph.Node, mode graph.Mode, cands []candidate) *stage {
	tick := e.tick.Current()
	next := graph.NodeID(len(e.nodes))
	st := &stage{
		updates: make(map[graph.NodeID]graph.Node),
		keys:    make(map[coord.Key]graph.NodeID),
		seen:    make(map[graph.NodeID]bool),
	}

	for _, c := range cands {
		key := e.quant.Key(c.Coord)

		var id graph.NodeID
		if staged, ok := st.keys[key]; ok {
			id = staged
			e.collide(&st.inserts[id-next], c.Coord.Theta)
			st.collisions++
		} else if existing, ok := e.index[key]; ok {
			id = existing
			n, ok := st.updates[id]
			if !ok {
				n = e.nodes[id]
			}
			if n.CreatedAt >= tick-1 {
				e.collide(&n, c.Coord.Theta)
				st.collisions++
				st.updates[id] = n
			}
		} else {
			id = next + graph.NodeID(len(st.inserts))
			st.inserts = append(st.inserts, e.newNode(id, parent, c, tick))
			st.keys[key] = id
		}

		if !st.seen[id] {
			st.seen[id] = true
			st.spawned = append(st.spawned, id)
			if !e.linked[edgeKey{parent.ID, id}] {
				st.edges = append(st.edges, graph.Edge{From: parent.ID, To: id, Mode: mode, Tick: tick})
			}
		}
	}
	return st
}

func (e *Engine) newNode(id graph.NodeID, parent graph.Node, c candidate, tick int64) graph.Node {
	state := graph.StateActive
	if e.saturated {
		state = graph.StateSaturated
	}
	return graph.Node{
		ID:             id,
		Coord:          c.Coord,
		State:          state,
		Depth:          parent.Depth + 1,
		CreatedAt:      tick,
		NashPoint:      true,
		InvariantValid: c.Valid,
		Interference:   graph.InterferenceNone,
	}
}

// collide applies one collision with an incoming wave of phase theta.
// The Nash flag is recomputed here and nowhere else.
func (e *Engine) collide(n *graph.Node, theta float64) {
	n.Collisions++
	n.Interference = Classify(n.Coord.Theta, theta, e.cfg.PhaseTolerance)
	n.NashPoint = n.Interference != graph.InterferenceDestructive
	if e.cfg.CollisionLimit > 0 && n.Collisions >= e.cfg.CollisionLimit {
		n.State = graph.StateSaturated
	}
}

// commit applies a stage to the store.
func (e *Engine) commit(st *stage) {
	for id, n := range st.updates {
		e.nodes[id] = n
	}
	for _, n := range st.inserts {
		e.nodes = append(e.nodes, n)
		e.index[e.quant.Key(n.Coord)] = n.ID
	}
	for _, ed := range st.edges {
		e.linked[edgeKey{ed.From, ed.To}] = true
	}
	e.edges = append(e.edges, st.edges...)
	e.tickCollisions += st.collisions
	e.track()
}

// Classify buckets the phase difference of two meeting waves. A difference
// within tolerance of 0 is constructive, within tolerance of π destructive,
// anything else none.
func Classify(a, b, tolerance float64) graph.Interference {
	d := coord.PhaseDistance(a, b)
	switch {
	case d <= tolerance:
		return graph.InterferenceConstructive
	case math.Abs(d-math.Pi) <= tolerance:
		return graph.InterferenceDestructive
	default:
		return graph.InterferenceNone
	}
}
