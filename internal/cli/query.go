package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/query"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database    string
	Tick        int64
	States      []string
	Stable      bool
	MinDepth    int
	MaxDepth    int
	CreatedFrom int64
	CreatedTo   int64
}

// QueryResult is the query command's output.
type QueryResult struct {
	RunID string       `json:"run_id"`
	Tick  int64        `json:"tick"`
	Count int          `json:"count"`
	Nodes []graph.Node `json:"nodes"`
}

func (r QueryResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s matching nodes in run %s", humanize.Comma(int64(r.Count)), r.RunID)
	if r.Tick >= 0 {
		fmt.Fprintf(&b, " at tick %d", r.Tick)
	}
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "\n%6d  %-9s depth=%-3d created=%-3d nash=%-5t %-12s %s",
			n.ID, n.State, n.Depth, n.CreatedAt, n.NashPoint, n.Interference, n.Coord)
	}
	return b.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <run-id>",
		Short: "Filter nodes of an archived snapshot",
		Long: `Select nodes from one archived snapshot. Filters combine with AND;
omitted filters are unconstrained. Ranges are inclusive.

Examples:
  wavegrid query --db ./wavegrid.db 0190...
  wavegrid query --db ./wavegrid.db 0190... --tick 2 --state Active --stable
  wavegrid query --db ./wavegrid.db 0190... --min-depth 2 --created-from 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.Tick, "tick", -1, "snapshot tick (-1 = last)")
	cmd.Flags().StringSliceVar(&opts.States, "state", nil, "node states to include (Active, Saturated)")
	cmd.Flags().BoolVar(&opts.Stable, "stable", false, "only Nash points (--stable=false for non-Nash)")
	cmd.Flags().IntVar(&opts.MinDepth, "min-depth", 0, "minimum depth")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum depth")
	cmd.Flags().Int64Var(&opts.CreatedFrom, "created-from", 0, "earliest creation tick")
	cmd.Flags().Int64Var(&opts.CreatedTo, "created-to", 0, "latest creation tick")

	return cmd
}

// filter builds a NodeFilter from the flags that were set explicitly.
func (opts *QueryOptions) filter(cmd *cobra.Command) query.NodeFilter {
	fs := cmd.Flags()
	var f query.NodeFilter
	if fs.Changed("state") {
		f.States = make([]graph.State, len(opts.States))
		for i, s := range opts.States {
			f.States[i] = graph.State(s)
		}
	}
	if fs.Changed("stable") {
		f.Stable = query.Ptr(opts.Stable)
	}
	if fs.Changed("min-depth") {
		f.MinDepth = query.Ptr(opts.MinDepth)
	}
	if fs.Changed("max-depth") {
		f.MaxDepth = query.Ptr(opts.MaxDepth)
	}
	if fs.Changed("created-from") {
		f.CreatedFrom = query.Ptr(opts.CreatedFrom)
	}
	if fs.Changed("created-to") {
		f.CreatedTo = query.Ptr(opts.CreatedTo)
	}
	return f
}

func runQuery(opts *QueryOptions, runID string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	f := opts.filter(cmd)
	if err := f.Validate(); err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidFilter, "invalid filter", err)
	}

	st, err := openArchive(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer st.Close()

	nodes, err := st.QueryNodes(cmd.Context(), runID, opts.Tick, f.Predicate())
	if err != nil {
		return archiveFailure(out, "query failed", err)
	}

	tick := opts.Tick
	if tick < 0 {
		r, err := st.LoadRun(cmd.Context(), runID)
		if err != nil {
			return archiveFailure(out, "query failed", err)
		}
		tick = r.Ticks
	}

	return out.Success(QueryResult{RunID: runID, Tick: tick, Count: len(nodes), Nodes: nodes})
}
