package engine

// Replay
//
// Engine state is a pure function of (configuration, ordered call sequence).
// The journal records that sequence: one entry per successful Propagate or
// Step, numbered by a logical clock. Failed calls never reach the journal
// because they never mutate anything.
//
// Replaying a journal against a fresh engine with the same configuration
// walks the same code path as the original run and reproduces every snapshot.
// VerifyReplay checks this by comparing snapshot digests tick by tick.
// Digests hash the quantized snapshot, so sub-grid float noise cannot cause a
// false mismatch.

import (
	"fmt"

	"github.com/roach88/wavegrid/internal/graph"
)

// Apply executes one journaled operation.
func (e *Engine) Apply(op graph.Operation) error {
	switch op.Kind {
	case graph.OpPropagate:
		_, err := e.Propagate(op.Node, op.Mode)
		return err
	case graph.OpStep:
		return e.Step()
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// Replay builds a fresh engine from cfg and applies ops in order.
func Replay(cfg Config, ops []graph.Operation, opts ...EngineOption) (*Engine, error) {
	e, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if err := e.Apply(op); err != nil {
			return nil, fmt.Errorf("replay op %d (%s): %w", op.Seq, op.Kind, err)
		}
	}
	return e, nil
}

// VerifyReplay replays ops and compares the resulting history against want.
// It returns a *ReplayMismatchError for the first tick that differs.
func VerifyReplay(cfg Config, ops []graph.Operation, want []graph.Snapshot, opts ...EngineOption) error {
	e, err := Replay(cfg, ops, opts...)
	if err != nil {
		return err
	}
	got := e.history

	n := max(len(got), len(want))
	for i := 0; i < n; i++ {
		var g, w string
		if i < len(got) {
			g = got[i].Digest
		}
		if i < len(want) {
			w = want[i].Digest
			if w == "" {
				w, err = graph.SnapshotDigest(want[i], e.quant)
				if err != nil {
					return fmt.Errorf("verify tick %d: %w", i, err)
				}
			}
		}
		if g != w {
			return &ReplayMismatchError{Tick: int64(i), Want: w, Got: g}
		}
	}
	return nil
}
