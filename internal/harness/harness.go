package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/store"
	"github.com/roach88/wavegrid/internal/testutil"
)

// Harness executes one scenario against a fresh engine.
type Harness struct {
	scenario *Scenario
	engine   *engine.Engine
	store    *store.Store
	clock    *testutil.StepClock
	runIDs   store.RunIDGenerator
	logger   *slog.Logger
	seq      int
}

// Option configures a Run.
type Option func(*Harness)

// WithLogger routes engine logs. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Resolve the configuration through the config schema
//  2. Build a fresh engine
//  3. Execute ops, checking each propagation's expectations
//  4. Archive the run to an in-memory store, if requested
//  5. Evaluate assertions
//
// A returned error means the scenario could not be executed at all;
// failed expectations are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		clock:    testutil.NewStepClock(testutil.Epoch, 0),
		runIDs:   testutil.NewFixedRunID(scenario.RunID),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}

	cfg, err := scenario.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	h.engine, err = engine.New(cfg, engine.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	for i, op := range scenario.Ops {
		if err := h.execute(i, op, result); err != nil {
			return nil, fmt.Errorf("scenario %s: ops[%d]: %w", scenario.Name, i, err)
		}
	}

	if scenario.Archive {
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		h.store = st

		a, err := store.NewArchive(h.runIDs.Generate(), scenario.Name, h.engine, h.clock.Now())
		if err != nil {
			return nil, err
		}
		if err := st.SaveRun(ctx, a); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.RunID = a.Run.ID
	}

	actx := &AssertionContext{
		Ctx:    ctx,
		Engine: h.engine,
		Store:  h.store,
		RunID:  result.RunID,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	result.Final = h.engine.Statistics()
	result.Export = h.engine.Export()
	return result, nil
}

// RunFile loads and runs the scenario at path.
func RunFile(ctx context.Context, path string, opts ...Option) (*Scenario, *Result, error) {
	s, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := Run(ctx, s, opts...)
	return s, r, err
}

func (h *Harness) execute(i int, op Op, result *Result) error {
	switch op.Op {
	case OpStep:
		for n := max(op.Count, 1); n > 0; n-- {
			if err := h.engine.Step(); err != nil {
				return err
			}
			ev := h.event(OpStep)
			ev.CollisionEvents = h.engine.CurrentSnapshot().Statistics.CollisionEvents
			result.Trace = append(result.Trace, ev)
		}
	case OpReset:
		h.engine.Reset()
		result.Trace = append(result.Trace, h.event(OpReset))
	case OpPropagate:
		mode := h.engine.Config().DefaultMode()
		if op.Mode != "" {
			var err error
			if mode, err = graph.ParseMode(op.Mode); err != nil {
				return err
			}
		}
		wave, err := h.engine.Propagate(op.Node, mode)

		ev := h.event(OpPropagate)
		ev.Node = op.Node
		ev.Mode = mode
		if err != nil {
			ev.Error = errorCode(err)
		} else {
			ev.Spawned = len(wave.Spawned)
			ev.Created = wave.Created
			ev.Rejected = wave.Rejected
			ev.Collisions = wave.Collisions
		}
		result.Trace = append(result.Trace, ev)

		for _, msg := range checkExpect(op.Expect, ev, err) {
			result.AddError(fmt.Sprintf("ops[%d]: %s", i, msg))
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

// event captures the engine's state after an op.
func (h *Harness) event(op string) TraceEvent {
	h.seq++
	st := h.engine.Statistics()
	return TraceEvent{
		Seq:        h.seq,
		Op:         op,
		Tick:       st.Tick,
		TotalNodes: st.TotalNodes,
		Coverage:   fmt.Sprintf("%d/%d", st.Occupied, st.Addressable),
		Regime:     st.Regime,
	}
}

func errorCode(err error) string {
	switch {
	case engine.IsNodeNotFound(err):
		return ErrCodeNodeNotFound
	case engine.IsInvalidNodeState(err):
		return ErrCodeInvalidNodeState
	default:
		return ErrCodeOther
	}
}

func checkExpect(want *OpExpect, got TraceEvent, err error) []string {
	if want == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if want.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, call succeeded", want.Error)}
		}
		if got.Error != want.Error {
			return []string{fmt.Sprintf("expected error %s, got %s (%v)", want.Error, got.Error, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			msgs = append(msgs, fmt.Sprintf("%s: expected %d, got %d", name, *want, got))
		}
	}
	check("spawned", want.Spawned, got.Spawned)
	check("created", want.Created, got.Created)
	check("rejected", want.Rejected, got.Rejected)
	check("collisions", want.Collisions, got.Collisions)
	return msgs
}

var errNoArchive = errors.New("scenario did not archive its run")
