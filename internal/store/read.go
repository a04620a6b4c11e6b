package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/query"
	"github.com/roach88/wavegrid/internal/querysql"
)

const runColumns = "id, label, config, ticks, total_nodes, coverage, regime, journal_digest, created_at"

// ListRuns returns every archived run, oldest first.
// Returns an empty slice (not nil) if nothing is archived.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LoadRun returns the run record for id, or ErrRunNotFound.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("load run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// LoadArchive returns the run with its full history and journal.
func (s *Store) LoadArchive(ctx context.Context, id string) (Archive, error) {
	r, err := s.LoadRun(ctx, id)
	if err != nil {
		return Archive{}, err
	}
	snaps, err := s.LoadSnapshots(ctx, id)
	if err != nil {
		return Archive{}, err
	}
	ops, err := s.LoadJournal(ctx, id)
	if err != nil {
		return Archive{}, err
	}
	return Archive{Run: r, Snapshots: snaps, Journal: ops}, nil
}

// LoadSnapshots rebuilds every snapshot of a run, oldest first.
//
// Snapshot edge lists share one backing array, each capped at its own
// length, the same way the engine shares them.
func (s *Store) LoadSnapshots(ctx context.Context, runID string) ([]graph.Snapshot, error) {
	if _, err := s.LoadRun(ctx, runID); err != nil {
		return nil, err
	}

	edges, err := s.loadEdges(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, digest, coverage, regime, edge_count, statistics
		FROM snapshots
		WHERE run_id = ?
		ORDER BY tick ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	snaps := []graph.Snapshot{}
	for rows.Next() {
		var (
			snap      graph.Snapshot
			regime    string
			edgeCount int
			statsJSON string
		)
		if err := rows.Scan(&snap.Tick, &snap.Digest, &snap.Coverage, &regime, &edgeCount, &statsJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Regime = graph.Regime(regime)
		if snap.Statistics, err = unmarshalStatistics(statsJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("snapshot %d: %w", snap.Tick, err)
		}
		if edgeCount > len(edges) {
			rows.Close()
			return nil, fmt.Errorf("snapshot %d: edge_count %d exceeds %d stored edges", snap.Tick, edgeCount, len(edges))
		}
		if edgeCount > 0 {
			snap.Edges = edges[:edgeCount:edgeCount]
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	rows.Close()

	// Node reads reuse the single connection, so they run after the
	// snapshot cursor is closed.
	for i := range snaps {
		nodes, err := s.queryNodes(ctx, runID, snaps[i].Tick, nil)
		if err != nil {
			return nil, err
		}
		snaps[i].Nodes = nodes
	}
	return snaps, nil
}

// LoadJournal returns a run's operations in seq order.
func (s *Store) LoadJournal(ctx context.Context, runID string) ([]graph.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, node_id, mode
		FROM journal
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	ops := []graph.Operation{}
	for rows.Next() {
		var (
			op         graph.Operation
			kind, mode string
			node       int64
		)
		if err := rows.Scan(&op.Seq, &kind, &node, &mode); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		op.Kind = graph.OpKind(kind)
		op.Node = graph.NodeID(node)
		op.Mode = graph.Mode(mode)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return ops, nil
}

// QueryNodes returns the nodes of one archived snapshot matching p, ordered
// by id. A negative tick selects the run's latest snapshot.
func (s *Store) QueryNodes(ctx context.Context, runID string, tick int64, p query.Predicate) ([]graph.Node, error) {
	if tick < 0 {
		var latest sql.NullInt64
		err := s.db.QueryRowContext(ctx, `SELECT MAX(tick) FROM snapshots WHERE run_id = ?`, runID).Scan(&latest)
		if err != nil {
			return nil, fmt.Errorf("query latest tick: %w", err)
		}
		if !latest.Valid {
			return nil, fmt.Errorf("query nodes %s: %w", runID, ErrRunNotFound)
		}
		tick = latest.Int64
	} else {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM snapshots WHERE run_id = ? AND tick = ?`, runID, tick).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("query nodes %s@%d: %w", runID, tick, ErrSnapshotNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("query snapshot: %w", err)
		}
	}
	return s.queryNodes(ctx, runID, tick, p)
}

func (s *Store) queryNodes(ctx context.Context, runID string, tick int64, p query.Predicate) ([]graph.Node, error) {
	sqlText, params, err := querysql.NewSQLCompiler().CompileNodeQuery(runID, tick, p)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []graph.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

func (s *Store) loadEdges(ctx context.Context, runID string) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, mode, tick
		FROM edges
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var (
			e        graph.Edge
			from, to int64
			mode     string
		)
		if err := rows.Scan(&from, &to, &mode, &e.Tick); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.From = graph.NodeID(from)
		e.To = graph.NodeID(to)
		e.Mode = graph.Mode(mode)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// DeleteRun removes a run and everything archived under it.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		cfgJSON string
		regime  string
	)
	err := sc.Scan(&r.ID, &r.Label, &cfgJSON, &r.Ticks, &r.TotalNodes, &r.Coverage, &regime, &r.JournalDigest, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if r.Config, err = unmarshalConfig(cfgJSON); err != nil {
		return Run{}, fmt.Errorf("run %s: %w", r.ID, err)
	}
	r.Regime = graph.Regime(regime)
	return r, nil
}

// scanNode reads one row in querysql.Columns() order.
func scanNode(sc scanner) (graph.Node, error) {
	var (
		n                    graph.Node
		id                   int64
		c                    coord.Coordinate
		state, interference  string
		nash, invariantValid int64
	)
	err := sc.Scan(&id, &c.Phi, &c.Psi, &c.T, &c.Theta, &state, &n.Depth, &n.CreatedAt,
		&nash, &invariantValid, &n.Collisions, &interference)
	if err != nil {
		return graph.Node{}, fmt.Errorf("scan node: %w", err)
	}
	n.ID = graph.NodeID(id)
	n.Coord = c
	n.State = graph.State(state)
	n.NashPoint = nash != 0
	n.InvariantValid = invariantValid != 0
	n.Interference = graph.Interference(interference)
	return n, nil
}
