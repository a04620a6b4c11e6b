package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/wavegrid/internal/coord"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future encoding change.
const (
	DomainSnapshot = "wavegrid/snapshot/v1"
	DomainJournal  = "wavegrid/journal/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotDigest computes the content-addressed digest of a snapshot.
//
// Real-valued fields are quantized first: coordinates and phases become grid
// cells of q, coverage is carried as the exact occupied/addressable ratio.
// Two snapshots with the same digest are indistinguishable at the grid
// resolution. The Digest field of s itself is ignored.
func SnapshotDigest(s Snapshot, q coord.Quantizer) (string, error) {
	canonical, err := MarshalCanonical(snapshotCanonicalMap(s, q))
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustSnapshotDigest is like SnapshotDigest but panics on error.
// Use only in tests.
func MustSnapshotDigest(s Snapshot, q coord.Quantizer) string {
	d, err := SnapshotDigest(s, q)
	if err != nil {
		panic(err)
	}
	return d
}

func snapshotCanonicalMap(s Snapshot, q coord.Quantizer) map[string]any {
	nodes := make([]any, len(s.Nodes))
	for i, n := range s.Nodes {
		k := q.Key(n.Coord)
		phase := q.Key(coord.Coordinate{Phi: n.Coord.Theta})
		nodes[i] = map[string]any{
			"id":              n.ID,
			"cell":            []any{k.Phi, k.Psi, k.T},
			"phase":           phase.Phi,
			"state":           string(n.State),
			"depth":           n.Depth,
			"created_at":      n.CreatedAt,
			"nash_point":      n.NashPoint,
			"invariant_valid": n.InvariantValid,
			"collisions":      n.Collisions,
			"interference":    string(n.Interference),
		}
	}

	edges := make([]any, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = map[string]any{
			"from": e.From,
			"to":   e.To,
			"mode": string(e.Mode),
			"tick": e.Tick,
		}
	}

	st := s.Statistics
	return map[string]any{
		"tick":  s.Tick,
		"nodes": nodes,
		"edges": edges,
		"statistics": map[string]any{
			"total_nodes":      st.TotalNodes,
			"active_nodes":     st.ActiveNodes,
			"saturated_nodes":  st.SaturatedNodes,
			"total_edges":      st.TotalEdges,
			"collision_events": st.CollisionEvents,
			"total_collisions": st.TotalCollisions,
			"nash_points":      st.NashPoints,
			"constructive":     st.Constructive,
			"destructive":      st.Destructive,
			"max_depth":        st.MaxDepth,
		},
		"coverage": fmt.Sprintf("%d/%d", st.Occupied, st.Addressable),
		"regime":   string(s.Regime),
	}
}

// JournalDigest computes the content-addressed digest of an operation journal.
func JournalDigest(ops []Operation) (string, error) {
	list := make([]any, len(ops))
	for i, op := range ops {
		entry := map[string]any{
			"seq":  op.Seq,
			"kind": string(op.Kind),
		}
		if op.Kind == OpPropagate {
			entry["node"] = op.Node
			entry["mode"] = string(op.Mode)
		}
		list[i] = entry
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("JournalDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainJournal, canonical), nil
}
