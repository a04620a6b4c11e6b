package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single archived run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Operations    int    `json:"operations"`
	Snapshots     int    `json:"snapshots"`
	JournalDigest string `json:"journal_digest"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

func (r ReplayResult) String() string {
	if r.TotalRuns == 0 {
		return "No runs to replay."
	}
	var b strings.Builder
	for _, run := range r.Runs {
		mark := "✓"
		if !run.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s  %d ops, %d snapshots\n", mark, run.RunID, run.Operations, run.Snapshots)
		if run.Error != "" {
			fmt.Fprintf(&b, "  %s\n", run.Error)
		}
	}
	if r.AllDeterministic {
		fmt.Fprintf(&b, "All %d runs replay deterministically.", r.TotalRuns)
	} else {
		fmt.Fprint(&b, "Replay diverged from recorded history.")
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay archived journals and verify determinism",
		Long: `Replay each archived run's journal against a fresh engine built from the
archived configuration, and compare every snapshot digest with the one
recorded at archive time.

Exit codes:
  0 - All runs replay deterministically
  1 - A replay diverged from its recorded history
  2 - Command error (database not found, unknown run, etc.)

Examples:
  wavegrid replay --db ./wavegrid.db
  wavegrid replay --db ./wavegrid.db --run 0190...
  wavegrid replay --db ./wavegrid.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openArchive(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer st.Close()

	var ids []string
	if opts.RunID != "" {
		ids = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
	}

	result := ReplayResult{Runs: []ReplayRunResult{}, AllDeterministic: true}
	for _, id := range ids {
		a, err := st.LoadArchive(ctx, id)
		if err != nil {
			return archiveFailure(out, fmt.Sprintf("failed to load run %s", id), err)
		}
		rr := replayArchive(a)
		out.VerboseLog("replayed %s: %d ops, deterministic=%t", id, rr.Operations, rr.Deterministic)

		result.Runs = append(result.Runs, rr)
		result.AllDeterministic = result.AllDeterministic && rr.Deterministic
	}
	result.TotalRuns = len(result.Runs)

	if err := out.Success(result); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay diverged from recorded history")
	}
	return nil
}

func replayArchive(a store.Archive) ReplayRunResult {
	rr := ReplayRunResult{
		RunID:      a.Run.ID,
		Operations: len(a.Journal),
		Snapshots:  len(a.Snapshots),
	}

	digest, err := graph.JournalDigest(a.Journal)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.JournalDigest = digest
	if a.Run.JournalDigest != "" && digest != a.Run.JournalDigest {
		rr.Error = fmt.Sprintf("journal digest %s does not match recorded %s", digest, a.Run.JournalDigest)
		return rr
	}

	if err := engine.VerifyReplay(a.Run.Config, a.Journal, a.Snapshots); err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.Deterministic = true
	return rr
}
