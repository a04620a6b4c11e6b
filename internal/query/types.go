// Package query defines node predicates for the live store and the archive.
//
// A NodeFilter is the caller-facing shape: every field optional, fields
// combined with AND. It compiles to a Predicate tree, which the engine
// evaluates in memory and the querysql package compiles to SQL. Both
// backends must agree on every predicate.
package query

import "github.com/roach88/wavegrid/internal/graph"

// Predicate is a condition over a single node.
//
// This is a sealed interface: only types in this package implement it, so
// backends can switch over it exhaustively.
//
// Predicate types:
//   - StateIn: node state is one of a set
//   - Stable: node Nash-point flag equals a value
//   - DepthRange: min <= depth <= max (either bound optional)
//   - CreatedRange: from <= created_at <= to (either bound optional)
//   - And: all predicates must hold (empty = always true)
type Predicate interface {
	predicateNode()
}

// StateIn matches nodes whose state is one of States.
// An empty set matches nothing.
type StateIn struct {
	States []graph.State
}

func (StateIn) predicateNode() {}

// Stable matches nodes whose Nash-point flag equals Value.
type Stable struct {
	Value bool
}

func (Stable) predicateNode() {}

// DepthRange matches nodes with Min <= depth <= Max. Nil bounds are open.
type DepthRange struct {
	Min *int
	Max *int
}

func (DepthRange) predicateNode() {}

// CreatedRange matches nodes with From <= created_at <= To. Nil bounds are open.
type CreatedRange struct {
	From *int64
	To   *int64
}

func (CreatedRange) predicateNode() {}

// And is a conjunction. Empty Predicates is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
