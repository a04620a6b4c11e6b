package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Engine   EngineFlags
	Ticks    int
	Database string
	RunID    string
	Tick     int64
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the visualization payload",
		Long: `Write the node/edge/statistics payload used by visualizers.

Without --run the payload comes from a fresh simulation of --ticks ticks.
With --db and --run it comes from an archived snapshot (--tick, default
the last one).

The payload is always JSON; --format only changes the envelope used for
the confirmation when --output is set.

Examples:
  wavegrid export --ticks 3 > wave.json
  wavegrid export --dual=false --ticks 5 -o wave.json
  wavegrid export --db ./wavegrid.db --run 0190... --tick 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	addEngineFlags(cmd, &opts.Engine)
	cmd.Flags().IntVarP(&opts.Ticks, "ticks", "n", 3, "ticks to simulate")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive database (with --run)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "archived run id")
	cmd.Flags().Int64Var(&opts.Tick, "tick", -1, "archived snapshot tick (-1 = last)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	var export graph.Export
	if opts.RunID != "" {
		var err error
		if export, err = exportArchived(opts, cmd); err != nil {
			return err
		}
	} else {
		if opts.Ticks < 0 {
			return out.Fail(ExitCommandError, ErrCodeGeneric, "--ticks must be non-negative", nil)
		}
		cfg, err := opts.Engine.Resolve(cmd)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeInvalidConfig, "invalid config", err)
		}
		e, err := engine.New(cfg, engine.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeInvalidConfig, "invalid config", err)
		}
		if err := stepTicks(cmd.Context(), e, opts.Ticks); err != nil {
			return out.Fail(ExitFailure, ErrCodeGeneric, "simulation failed", err)
		}
		export = e.Export()
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeGeneric, "failed to encode export", err)
	}
	data = append(data, '\n')

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "failed to write export", err)
	}
	return out.Success(fmt.Sprintf("wrote %d nodes and %d edges to %s",
		len(export.Nodes), len(export.Edges), opts.Output))
}

func exportArchived(opts *ExportOptions, cmd *cobra.Command) (graph.Export, error) {
	out := opts.formatter(cmd)

	st, err := openArchive(opts.Database)
	if err != nil {
		return graph.Export{}, out.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer st.Close()

	snaps, err := st.LoadSnapshots(cmd.Context(), opts.RunID)
	if err != nil {
		return graph.Export{}, archiveFailure(out, "failed to load run", err)
	}
	if len(snaps) == 0 {
		return graph.Export{}, out.Fail(ExitCommandError, ErrCodeNotFound, "failed to load run",
			fmt.Errorf("run %s has no snapshots", opts.RunID))
	}

	snap := snaps[len(snaps)-1]
	if opts.Tick >= 0 {
		if opts.Tick >= int64(len(snaps)) {
			return graph.Export{}, out.Fail(ExitCommandError, ErrCodeNotFound, "failed to load snapshot",
				fmt.Errorf("run %s has no tick %d", opts.RunID, opts.Tick))
		}
		snap = snaps[opts.Tick]
	}

	return graph.Export{
		Nodes:       snap.Nodes,
		Edges:       snap.Edges,
		CurrentTime: snap.Tick,
		Statistics:  snap.Statistics,
	}, nil
}
