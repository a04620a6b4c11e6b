package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/query"
	"github.com/roach88/wavegrid/internal/store"
)

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	Ctx    context.Context
	Engine *engine.Engine

	// Store and RunID are set when the scenario archived its run.
	Store *store.Store
	RunID string
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func assertCount(typ string, want *int, got int) error {
	if *want != got {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%d", *want),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertCoverage(e *engine.Engine, a Assertion) error {
	cov := e.Statistics().Coverage
	if (a.Min != nil && cov < *a.Min) || (a.Max != nil && cov > *a.Max) {
		return &AssertionError{
			Type:     AssertCoverage,
			Expected: fmt.Sprintf("coverage in [%s, %s]", bound(a.Min, "-inf"), bound(a.Max, "+inf")),
			Actual:   fmt.Sprintf("%g", cov),
		}
	}
	return nil
}

func bound(v *float64, open string) string {
	if v == nil {
		return open
	}
	return fmt.Sprintf("%g", *v)
}

func assertAllInvariantValid(e *engine.Engine) error {
	for _, n := range e.Nodes() {
		if !n.InvariantValid {
			return &AssertionError{
				Type:     AssertAllInvariantValid,
				Expected: "every node invariant-valid",
				Actual:   fmt.Sprintf("node %s at %s is not", n.ID, n.Coord),
			}
		}
	}
	return nil
}

func filterPredicate(f *query.NodeFilter) query.Predicate {
	if f == nil {
		return nil
	}
	return f.Predicate()
}

func assertArchivedQueryCount(actx *AssertionContext, a Assertion) error {
	if actx.Store == nil {
		return fmt.Errorf("%s: %w", AssertArchivedQueryCount, errNoArchive)
	}
	tick := int64(-1)
	if a.Tick != nil {
		tick = *a.Tick
	}
	nodes, err := actx.Store.QueryNodes(actx.Ctx, actx.RunID, tick, filterPredicate(a.Filter))
	if err != nil {
		return fmt.Errorf("%s: %w", AssertArchivedQueryCount, err)
	}
	return assertCount(AssertArchivedQueryCount, a.Equals, len(nodes))
}

// assertReplayVerified replays the journal into a fresh engine and compares
// digests with the recorded history. An archived run is replayed from the
// archive instead, which also checks the round trip through SQLite.
func assertReplayVerified(actx *AssertionContext) error {
	e := actx.Engine
	cfg, ops, snaps := e.Config(), e.Journal(), e.Snapshots()

	if actx.Store != nil {
		a, err := actx.Store.LoadArchive(actx.Ctx, actx.RunID)
		if err != nil {
			return fmt.Errorf("%s: %w", AssertReplayVerified, err)
		}
		cfg, ops, snaps = a.Run.Config, a.Journal, a.Snapshots
	}

	if err := engine.VerifyReplay(cfg, ops, snaps); err != nil {
		return &AssertionError{
			Type:     AssertReplayVerified,
			Expected: "replay reproduces every snapshot digest",
			Actual:   err.Error(),
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	e := actx.Engine

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTotalNodes:
			err = assertCount(a.Type, a.Equals, e.Statistics().TotalNodes)
		case AssertTotalEdges:
			err = assertCount(a.Type, a.Equals, e.Statistics().TotalEdges)
		case AssertNashPoints:
			err = assertCount(a.Type, a.Equals, e.Statistics().NashPoints)
		case AssertDestructive:
			err = assertCount(a.Type, a.Equals, e.Statistics().Destructive)
		case AssertTick:
			err = assertCount(a.Type, a.Equals, int(e.Tick()))
		case AssertHistoryLength:
			err = assertCount(a.Type, a.Equals, len(e.Snapshots()))
		case AssertCoverage:
			err = assertCoverage(e, a)
		case AssertRegime:
			if got := e.Statistics().Regime; got != a.Regime {
				err = &AssertionError{Type: a.Type, Expected: string(a.Regime), Actual: string(got)}
			}
		case AssertAllInvariantValid:
			err = assertAllInvariantValid(e)
		case AssertQueryCount:
			err = assertCount(a.Type, a.Equals, len(e.Query(filterPredicate(a.Filter))))
		case AssertArchivedQueryCount:
			err = assertArchivedQueryCount(actx, a)
		case AssertReplayVerified:
			err = assertReplayVerified(actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
