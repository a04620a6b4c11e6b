package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/sequence"
)

// Observer is notified of history changes. Callbacks run synchronously on
// the writer goroutine and must not call back into the engine's mutators.
type Observer interface {
	// OnSnapshot is called after a snapshot is appended to history,
	// including snapshot 0 at construction and after Reset.
	OnSnapshot(s graph.Snapshot)

	// OnReset is called after the store is cleared and before the new
	// snapshot 0 is captured.
	OnReset()
}

// Engine is the single-writer wave propagation engine.
//
// Nodes live in an arena indexed by NodeID; ids are allocated densely and
// never reused until Reset. The quantized-key index maps every occupied cell
// to exactly one node. Edges are an append-only flat list, so a snapshot can
// share the current prefix instead of copying it.
//
// Thread-safety model:
//   - Propagate, Step, Reset: single writer, never concurrently
//   - Tick: safe from any goroutine
//   - everything else: call from the writer goroutine or after it is done
//
// INVARIANTS:
//   - nodes[0] is the origin at (0,0,0,0) and is always a Nash point
//   - with filtering enabled every stored node has InvariantValid
//   - NashPoint ⇒ Interference != Destructive
//   - depth(child) = depth(parent)+1, createdAt = tick of the spawning call
//   - len(history) == Tick()+1
type Engine struct {
	cfg     Config
	oracle  *sequence.Oracle
	quant   coord.Quantizer
	gen     generator
	filter  Filter
	logger  *slog.Logger
	watches []Observer

	tick *Clock
	seq  *Clock

	nodes   []graph.Node
	index   map[coord.Key]graph.NodeID
	edges   []graph.Edge
	linked  map[edgeKey]bool
	history []graph.Snapshot
	journal []graph.Operation

	// collision events since the last snapshot
	tickCollisions int

	addressable int64
	saturated   bool
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. The default discards.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.watches = append(e.watches, o)
		}
	}
}

// WithOracle replaces the shared sequence oracle.
func WithOracle(o *sequence.Oracle) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.oracle = o
		}
	}
}

// New validates cfg and returns an engine holding only the origin, at tick 0,
// with snapshot 0 captured.
//
// Errors are *ConfigError and are reported before any node exists.
func New(cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	q, err := coord.NewQuantizer(cfg.Tolerance)
	if err != nil {
		return nil, &ConfigError{Field: "tolerance", Value: cfg.Tolerance, Reason: err.Error()}
	}

	e := &Engine{
		cfg:    cfg,
		oracle: sequence.Default(),
		quant:  q,
		logger: slog.New(slog.DiscardHandler),
		tick:   NewClock(),
		seq:    NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gen = generator{oracle: e.oracle}
	e.filter = NewFilter(cfg.EnableCassiniFiltering, e.oracle)

	e.addressable, err = addressable(cfg, e.gen, e.filter, e.quant)
	if err != nil {
		return nil, fmt.Errorf("engine: address space: %w", err)
	}

	e.clear()
	if err := e.capture(); err != nil {
		return nil, err
	}

	e.logger.Debug("engine ready",
		"max_shell", cfg.MaxShell,
		"dual", cfg.EnableDualPropagation,
		"cassini", cfg.EnableCassiniFiltering,
		"addressable", e.addressable)
	return e, nil
}

// clear reinstates the origin-only store at tick 0 without capturing.
func (e *Engine) clear() {
	e.tick.Reset()
	e.seq.Reset()
	e.nodes = []graph.Node{originNode()}
	e.index = map[coord.Key]graph.NodeID{e.quant.Key(coord.Origin()): graph.OriginID}
	e.edges = nil
	e.linked = make(map[edgeKey]bool)
	e.history = nil
	e.journal = nil
	e.tickCollisions = 0
	e.track()
}

func originNode() graph.Node {
	return graph.Node{
		ID:             graph.OriginID,
		Coord:          coord.Origin(),
		State:          graph.StateActive,
		NashPoint:      true,
		InvariantValid: true,
		Interference:   graph.InterferenceNone,
	}
}

// Propagate spawns children of node id using mode.
//
// Fails with *NodeNotFoundError or *InvalidNodeStateError (or an unknown-mode
// error) without touching the store. A node at depth MaxShell yields an event
// with no spawned ids. Propagate does not advance the tick.
func (e *Engine) Propagate(id graph.NodeID, mode graph.Mode) (graph.WaveEvent, error) {
	ev, err := e.propagate(id, mode)
	if err != nil {
		return graph.WaveEvent{}, err
	}
	e.record(graph.Operation{Kind: graph.OpPropagate, Node: id, Mode: mode})
	return ev, nil
}

// Step advances the tick, propagates every node that was Active when the
// tick began with the default mode, runs the saturation pass and appends a
// snapshot.
func (e *Engine) Step() error {
	tick := e.tick.Next()
	mode := e.cfg.DefaultMode()

	frontier := e.activeIDs()
	created, collisions := 0, 0
	for _, id := range frontier {
		// An earlier propagation in this tick may have saturated it.
		if e.nodes[id].State != graph.StateActive {
			continue
		}
		ev, err := e.propagate(id, mode)
		if err != nil {
			return fmt.Errorf("step %d: %w", tick, err)
		}
		created += ev.Created
		collisions += ev.Collisions
	}

	saturated := e.saturateActive()
	if err := e.capture(); err != nil {
		return fmt.Errorf("step %d: %w", tick, err)
	}
	e.record(graph.Operation{Kind: graph.OpStep})

	snap := e.history[len(e.history)-1]
	e.logger.Info("tick",
		"tick", tick,
		"propagated", len(frontier),
		"created", created,
		"collisions", collisions,
		"saturated", saturated,
		"total_nodes", snap.Statistics.TotalNodes,
		"coverage", snap.Coverage,
		"regime", snap.Regime)
	return nil
}

// Reset discards every node, edge, snapshot and journal entry and returns
// the engine to its freshly constructed state.
func (e *Engine) Reset() {
	e.clear()
	for _, o := range e.watches {
		o.OnReset()
	}
	if err := e.capture(); err != nil {
		// unreachable: an origin-only snapshot always encodes
		panic(fmt.Sprintf("engine: reset capture: %v", err))
	}
	e.logger.Info("reset")
}

func (e *Engine) activeIDs() []graph.NodeID {
	var ids []graph.NodeID
	for _, n := range e.nodes {
		if n.State == graph.StateActive {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (e *Engine) record(op graph.Operation) {
	op.Seq = e.seq.Next()
	e.journal = append(e.journal, op)
}

// Tick returns the current tick.
func (e *Engine) Tick() int64 {
	return e.tick.Current()
}

// Config returns the effective configuration, defaults filled in.
func (e *Engine) Config() Config {
	return e.cfg
}

// Addressable returns the size of the address space coverage is measured
// against.
func (e *Engine) Addressable() int64 {
	return e.addressable
}

// Node returns a copy of node id.
func (e *Engine) Node(id graph.NodeID) (graph.Node, bool) {
	if int(id) >= len(e.nodes) {
		return graph.Node{}, false
	}
	return e.nodes[id], true
}

// Nodes returns a copy of every node in id order.
func (e *Engine) Nodes() []graph.Node {
	return slices.Clone(e.nodes)
}

// Edges returns a copy of the edge list in creation order.
func (e *Engine) Edges() []graph.Edge {
	return slices.Clone(e.edges)
}

// Journal returns the successful mutating calls since construction or the
// last Reset.
func (e *Engine) Journal() []graph.Operation {
	return slices.Clone(e.journal)
}

// Export returns the visualization payload.
func (e *Engine) Export() graph.Export {
	return graph.Export{
		Nodes:       e.Nodes(),
		Edges:       e.Edges(),
		CurrentTime: e.Tick(),
		Statistics:  e.Statistics(),
	}
}
