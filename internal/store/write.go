package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
)

var (
	// ErrRunExists is returned by SaveRun when the run id is already archived.
	ErrRunExists = errors.New("run already archived")

	// ErrRunNotFound is returned when no run has the requested id.
	ErrRunNotFound = errors.New("run not found")

	// ErrSnapshotNotFound is returned when a run has no snapshot at the
	// requested tick.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Run is one archived engine session.
type Run struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	Config        engine.Config `json:"config"`
	Ticks         int64         `json:"ticks"`
	TotalNodes    int           `json:"total_nodes"`
	Coverage      float64       `json:"coverage"`
	Regime        graph.Regime  `json:"regime"`
	JournalDigest string        `json:"journal_digest"`
	CreatedAt     int64         `json:"created_at"` // unix seconds
}

// Archive is a run together with its history and journal.
type Archive struct {
	Run       Run
	Snapshots []graph.Snapshot
	Journal   []graph.Operation
}

// NewArchive captures e's history and journal under id.
func NewArchive(id, label string, e *engine.Engine, createdAt time.Time) (Archive, error) {
	journal := e.Journal()
	digest, err := graph.JournalDigest(journal)
	if err != nil {
		return Archive{}, fmt.Errorf("archive %s: %w", id, err)
	}

	cur := e.CurrentSnapshot()
	return Archive{
		Run: Run{
			ID:            id,
			Label:         label,
			Config:        e.Config(),
			Ticks:         e.Tick(),
			TotalNodes:    len(cur.Nodes),
			Coverage:      cur.Coverage,
			Regime:        cur.Regime,
			JournalDigest: digest,
			CreatedAt:     createdAt.Unix(),
		},
		Snapshots: e.Snapshots(),
		Journal:   journal,
	}, nil
}

// SaveRun writes a whole archive in a single transaction.
//
// Returns ErrRunExists if the id is taken. Nothing is written on error.
func (s *Store) SaveRun(ctx context.Context, a Archive) error {
	if a.Run.ID == "" {
		return fmt.Errorf("write run: empty run id")
	}
	if len(a.Snapshots) == 0 {
		return fmt.Errorf("write run %s: no snapshots", a.Run.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run %s: begin: %w", a.Run.ID, err)
	}
	defer tx.Rollback()

	if err := writeRun(ctx, tx, a.Run); err != nil {
		return err
	}
	for _, snap := range a.Snapshots {
		if err := writeSnapshot(ctx, tx, a.Run.ID, snap); err != nil {
			return err
		}
	}
	if err := writeEdges(ctx, tx, a.Run.ID, a.Snapshots[len(a.Snapshots)-1].Edges); err != nil {
		return err
	}
	if err := writeJournal(ctx, tx, a.Run.ID, a.Journal); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", a.Run.ID, err)
	}
	return nil
}

func writeRun(ctx context.Context, tx *sql.Tx, r Run) error {
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, r.ID).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("write run %s: %w", r.ID, ErrRunExists)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write run %s: %w", r.ID, err)
	}

	cfgJSON, err := marshalConfig(r.Config)
	if err != nil {
		return fmt.Errorf("write run %s: %w", r.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, label, config, ticks, total_nodes, coverage, regime, journal_digest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Label,
		cfgJSON,
		r.Ticks,
		r.TotalNodes,
		r.Coverage,
		string(r.Regime),
		r.JournalDigest,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", r.ID, err)
	}
	return nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, runID string, snap graph.Snapshot) error {
	statsJSON, err := marshalStatistics(snap.Statistics)
	if err != nil {
		return fmt.Errorf("write snapshot %d: %w", snap.Tick, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, tick, digest, coverage, regime, edge_count, statistics)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, snap.Tick, snap.Digest, snap.Coverage, string(snap.Regime), len(snap.Edges), statsJSON)
	if err != nil {
		return fmt.Errorf("write snapshot %d: %w", snap.Tick, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes
		(run_id, tick, id, phi, psi, t, theta, state, depth, created_at, nash_point, invariant_valid, collisions, interference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write nodes %d: %w", snap.Tick, err)
	}
	defer stmt.Close()

	for _, n := range snap.Nodes {
		_, err := stmt.ExecContext(ctx,
			runID,
			snap.Tick,
			int64(n.ID),
			n.Coord.Phi,
			n.Coord.Psi,
			n.Coord.T,
			n.Coord.Theta,
			string(n.State),
			n.Depth,
			n.CreatedAt,
			boolToInt(n.NashPoint),
			boolToInt(n.InvariantValid),
			n.Collisions,
			string(n.Interference),
		)
		if err != nil {
			return fmt.Errorf("write node %s at tick %d: %w", n.ID, snap.Tick, err)
		}
	}
	return nil
}

func writeEdges(ctx context.Context, tx *sql.Tx, runID string, edges []graph.Edge) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (run_id, seq, from_id, to_id, mode, tick)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write edges: %w", err)
	}
	defer stmt.Close()

	for i, e := range edges {
		if _, err := stmt.ExecContext(ctx, runID, i+1, int64(e.From), int64(e.To), string(e.Mode), e.Tick); err != nil {
			return fmt.Errorf("write edge %d: %w", i+1, err)
		}
	}
	return nil
}

func writeJournal(ctx context.Context, tx *sql.Tx, runID string, ops []graph.Operation) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO journal (run_id, seq, kind, node_id, mode)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	defer stmt.Close()

	for _, op := range ops {
		if _, err := stmt.ExecContext(ctx, runID, op.Seq, string(op.Kind), int64(op.Node), string(op.Mode)); err != nil {
			return fmt.Errorf("write journal op %d: %w", op.Seq, err)
		}
	}
	return nil
}
