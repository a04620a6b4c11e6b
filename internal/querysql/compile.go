// Package querysql compiles node predicates to parameterized SQLite SQL for
// the snapshot archive.
//
// CRITICAL: every query ends in ORDER BY id, so archived results come back in
// the same order the engine returns live ones.
// CRITICAL: values are always bound as ? parameters, never interpolated.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/wavegrid/internal/query"
)

// nodeColumns is the column list scanned by store.scanNode.
const nodeColumns = "id, phi, psi, t, theta, state, depth, created_at, nash_point, invariant_valid, collisions, interference"

// SQLCompiler compiles query predicates against the nodes table.
type SQLCompiler struct {
	// Table is the node table name. Defaults to "nodes".
	Table string
}

// NewSQLCompiler creates a compiler for the archive's nodes table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "nodes"}
}

// Columns returns the selected column list, in scan order.
func Columns() string {
	return nodeColumns
}

// CompileNodeQuery returns the SELECT for nodes of one archived snapshot
// matching p.
func (c *SQLCompiler) CompileNodeQuery(runID string, tick int64, p query.Predicate) (string, []any, error) {
	where, params, err := c.CompilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE run_id = ? AND tick = ? AND %s ORDER BY id ASC",
		nodeColumns, c.Table, where)
	return sql, append([]any{runID, tick}, params...), nil
}

// CompilePredicate compiles p to a WHERE fragment.
// A nil predicate is always true.
func (c *SQLCompiler) CompilePredicate(p query.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case query.StateIn:
		return c.compileStateIn(pred)
	case *query.StateIn:
		return c.compileStateIn(*pred)
	case query.Stable:
		return "nash_point = ?", []any{boolParam(pred.Value)}, nil
	case *query.Stable:
		return "nash_point = ?", []any{boolParam(pred.Value)}, nil
	case query.DepthRange:
		return compileRange("depth", intPtr(pred.Min), intPtr(pred.Max))
	case *query.DepthRange:
		return compileRange("depth", intPtr(pred.Min), intPtr(pred.Max))
	case query.CreatedRange:
		return compileRange("created_at", pred.From, pred.To)
	case *query.CreatedRange:
		return compileRange("created_at", pred.From, pred.To)
	case query.And:
		return c.compileAnd(pred)
	case *query.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileStateIn compiles to "state IN (?, ...)". An empty set matches
// nothing, like the in-memory evaluator.
func (c *SQLCompiler) compileStateIn(s query.StateIn) (string, []any, error) {
	if len(s.States) == 0 {
		return "0 = 1", nil, nil
	}
	marks := make([]string, len(s.States))
	params := make([]any, len(s.States))
	for i, st := range s.States {
		marks[i] = "?"
		params[i] = string(st)
	}
	return "state IN (" + strings.Join(marks, ", ") + ")", params, nil
}

func (c *SQLCompiler) compileAnd(and query.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	var parts []string
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.CompilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func compileRange(column string, lo, hi *int64) (string, []any, error) {
	switch {
	case lo != nil && hi != nil:
		return column + " BETWEEN ? AND ?", []any{*lo, *hi}, nil
	case lo != nil:
		return column + " >= ?", []any{*lo}, nil
	case hi != nil:
		return column + " <= ?", []any{*hi}, nil
	default:
		return "1 = 1", nil, nil
	}
}

func intPtr(p *int) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

// SQLite has no boolean type; flags are stored as 0/1.
func boolParam(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
