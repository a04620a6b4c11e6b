package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/wavegrid/internal/store"
)

// RunsOptions holds flags for the runs command and its subcommands.
type RunsOptions struct {
	*RootOptions
	Database string

	// Now anchors relative times in text output (for testing).
	Now func() time.Time
}

// RunList is the runs command's output.
type RunList struct {
	Runs []store.Run `json:"runs"`
	now  time.Time
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No archived runs."
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := r.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(&b, "%s  %-12s  tick %-3d %8s nodes  %-12s  %s",
			r.ID, label, r.Ticks, humanize.Comma(int64(r.TotalNodes)), r.Regime,
			humanize.RelTime(time.Unix(r.CreatedAt, 0), l.now, "ago", "from now"))
	}
	return b.String()
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunsCommand(&RunsOptions{RootOptions: rootOpts})
}

func newRunsCommand(opts *RunsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		Long: `List archived runs, oldest first.

Examples:
  wavegrid runs --db ./wavegrid.db
  wavegrid runs --db ./wavegrid.db --format json
  wavegrid runs delete --db ./wavegrid.db 0190...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <run-id>",
		Short:         "Delete an archived run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteRun(opts, args[0], cmd)
		},
	})

	return cmd
}

func listRuns(opts *RunsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := openArchive(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	return out.Success(RunList{Runs: runs, now: now()})
}

func deleteRun(opts *RunsOptions, id string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := openArchive(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer st.Close()

	if err := st.DeleteRun(cmd.Context(), id); err != nil {
		return archiveFailure(out, "failed to delete run", err)
	}
	return out.Success(fmt.Sprintf("deleted run %s", id))
}
