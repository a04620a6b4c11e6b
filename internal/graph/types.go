// Package graph holds the value types shared by the engine, the query layer
// and the archive: nodes, edges, wave events, statistics and snapshots.
//
// Every type here is a plain value. A Node copied out of the engine is a
// detached record; mutating it never reaches the engine's store.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/wavegrid/internal/coord"
)

// NodeID is a dense arena index. The origin is always 0.
type NodeID uint32

// OriginID is the id of the origin node.
const OriginID NodeID = 0

func (id NodeID) String() string {
	return "n" + strconv.FormatUint(uint64(id), 10)
}

// ParseNodeID accepts "n42" or "42".
func ParseNodeID(s string) (NodeID, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "n")
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", s)
	}
	return NodeID(v), nil
}

// State is a node's lifecycle state.
type State string

const (
	StateActive    State = "Active"
	StateSaturated State = "Saturated"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s == StateActive || s == StateSaturated
}

// Mode is the propagation mode that produced an edge.
type Mode string

const (
	ModeFibonacci Mode = "Fibonacci"
	ModeLucas     Mode = "Lucas"
	ModeDual      Mode = "Dual"
)

// ParseMode accepts mode names case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fibonacci", "forward":
		return ModeFibonacci, nil
	case "lucas", "backward":
		return ModeLucas, nil
	case "dual":
		return ModeDual, nil
	default:
		return "", fmt.Errorf("unknown propagation mode %q", s)
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeFibonacci || m == ModeLucas || m == ModeDual
}

// Interference is the classification of two waves meeting in one cell.
type Interference string

const (
	InterferenceNone         Interference = "None"
	InterferenceConstructive Interference = "Constructive"
	InterferenceDestructive  Interference = "Destructive"
)

// Regime is the phase regime derived from coverage.
type Regime string

const (
	RegimeQuantum      Regime = "Quantum"
	RegimeIntermediate Regime = "Intermediate"
	RegimeClassical    Regime = "Classical"
	RegimeSaturated    Regime = "Saturated"
)

// Node is one event node.
type Node struct {
	ID             NodeID           `json:"id"`
	Coord          coord.Coordinate `json:"coord"`
	State          State            `json:"state"`
	Depth          int              `json:"depth"`
	CreatedAt      int64            `json:"created_at"`
	NashPoint      bool             `json:"nash_point"`
	InvariantValid bool             `json:"invariant_valid"`
	Collisions     int              `json:"collisions"`
	Interference   Interference     `json:"interference"`
}

// IsOrigin reports whether n is the origin node.
func (n Node) IsOrigin() bool {
	return n.ID == OriginID
}

// Edge links a parent to a child it spawned (or merged into).
type Edge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
	Mode Mode   `json:"mode"`
	Tick int64  `json:"tick"`
}

// WaveEvent is the outcome of one propagation call.
type WaveEvent struct {
	Source  NodeID   `json:"source"`
	Mode    Mode     `json:"mode"`
	Spawned []NodeID `json:"spawned"`
	// Created counts the ids in Spawned that were inserted by this call; the
	// rest were merged into nodes that already existed.
	Created    int   `json:"created"`
	Rejected   int   `json:"rejected"`
	Collisions int   `json:"collisions"`
	Tick       int64 `json:"tick"`
}

// Statistics aggregates the live store.
type Statistics struct {
	Tick            int64   `json:"tick"`
	TotalNodes      int     `json:"total_nodes"`
	ActiveNodes     int     `json:"active_nodes"`
	SaturatedNodes  int     `json:"saturated_nodes"`
	TotalEdges      int     `json:"total_edges"`
	CollisionEvents int     `json:"collision_events"`
	TotalCollisions int     `json:"total_collisions"`
	NashPoints      int     `json:"nash_points"`
	Constructive    int     `json:"constructive"`
	Destructive     int     `json:"destructive"`
	MaxDepth        int     `json:"max_depth"`
	Occupied        int     `json:"occupied"`
	Addressable     int64   `json:"addressable"`
	Coverage        float64 `json:"coverage"`
	Regime          Regime  `json:"regime"`
}

// Snapshot is the immutable record captured at the end of a tick.
type Snapshot struct {
	Tick       int64      `json:"tick"`
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
	Coverage   float64    `json:"coverage"`
	Regime     Regime     `json:"regime"`
	Digest     string     `json:"digest"`
}

// Export is the visualization payload.
type Export struct {
	Nodes       []Node     `json:"nodes"`
	Edges       []Edge     `json:"edges"`
	CurrentTime int64      `json:"current_time"`
	Statistics  Statistics `json:"statistics"`
}

// OpKind names a journaled engine operation.
type OpKind string

const (
	OpPropagate OpKind = "propagate"
	OpStep      OpKind = "step"
)

// Operation is one successful mutating call, in call order. Replaying the
// journal against a fresh engine with the same configuration reproduces the
// snapshot history exactly.
type Operation struct {
	Seq  int64  `json:"seq" yaml:"seq"`
	Kind OpKind `json:"kind" yaml:"kind"`
	Node NodeID `json:"node,omitempty" yaml:"node,omitempty"`
	Mode Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`
}
