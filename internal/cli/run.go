package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/wavegrid/internal/engine"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/metrics"
	"github.com/roach88/wavegrid/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Engine      EngineFlags
	Ticks       int
	Database    string
	Label       string
	MetricsAddr string
	Hold        bool

	// RunIDs overrides the archive run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator

	// Now overrides the archive timestamp source (for testing).
	Now func() time.Time
}

// RunSummary is the run command's output.
type RunSummary struct {
	RunID      string           `json:"run_id,omitempty"`
	Digest     string           `json:"digest"`
	Statistics graph.Statistics `json:"statistics"`
}

func (s RunSummary) String() string {
	st := s.Statistics
	var b strings.Builder
	fmt.Fprintf(&b, "tick %d: %s nodes (%s active, %s saturated), %s edges\n",
		st.Tick, humanize.Comma(int64(st.TotalNodes)), humanize.Comma(int64(st.ActiveNodes)),
		humanize.Comma(int64(st.SaturatedNodes)), humanize.Comma(int64(st.TotalEdges)))
	fmt.Fprintf(&b, "coverage %s of %s cells (%s%%), regime %s\n",
		humanize.Comma(int64(st.Occupied)), humanize.Comma(st.Addressable),
		humanize.FtoaWithDigits(st.Coverage*100, 3), st.Regime)
	fmt.Fprintf(&b, "nash points %s, constructive %s, destructive %s, collisions %s, max depth %d\n",
		humanize.Comma(int64(st.NashPoints)), humanize.Comma(int64(st.Constructive)),
		humanize.Comma(int64(st.Destructive)), humanize.Comma(int64(st.TotalCollisions)), st.MaxDepth)
	fmt.Fprintf(&b, "digest %s", s.Digest)
	if s.RunID != "" {
		fmt.Fprintf(&b, "\narchived as %s", s.RunID)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate ticks and print statistics",
		Long: `Build an engine, advance it the given number of ticks, and print the
final statistics. With --db the whole snapshot history and the journal are
archived to SQLite under a fresh run id. With --metrics-addr the per-tick
gauges are served on /metrics while the run is in progress.

Examples:
  wavegrid run --ticks 4
  wavegrid run --ticks 6 --config grid.cue --db ./wavegrid.db --label nightly
  wavegrid run --ticks 20 --max-shell 8 --metrics-addr :9464 --hold`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, cmd)
		},
	}

	addEngineFlags(cmd, &opts.Engine)
	cmd.Flags().IntVarP(&opts.Ticks, "ticks", "n", 3, "ticks to simulate")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run to this SQLite database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label stored with the archived run")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.Hold, "hold", false, "keep serving metrics after the run until interrupted")

	return cmd
}

func runSimulation(opts *RunOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if opts.Ticks < 0 {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "--ticks must be non-negative", nil)
	}

	cfg, err := opts.Engine.Resolve(cmd)
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeInvalidConfig, "invalid config", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithObserver(progressObserver{logger: logger}),
	}

	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()
	g, gctx := errgroup.WithContext(serveCtx)

	if opts.MetricsAddr != "" {
		rec := metrics.NewRecorder()
		engineOpts = append(engineOpts, engine.WithObserver(rec))

		srv, err := metrics.Listen(opts.MetricsAddr, rec, logger)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeGeneric, "failed to start metrics server", err)
		}
		g.Go(func() error { return srv.Serve(gctx) })
	}

	e, err := engine.New(cfg, engineOpts...)
	if err != nil {
		stopServing()
		_ = g.Wait()
		return out.Fail(ExitFailure, ErrCodeInvalidConfig, "invalid config", err)
	}

	stepErr := stepTicks(ctx, e, opts.Ticks)

	if opts.Hold && opts.MetricsAddr != "" && stepErr == nil {
		logger.Info("run finished; serving metrics until interrupted")
		<-ctx.Done()
	}
	stopServing()
	if err := g.Wait(); err != nil {
		logger.Error("metrics server", "error", err)
	}

	if stepErr != nil {
		return out.Fail(ExitFailure, ErrCodeGeneric, "simulation failed", stepErr)
	}

	summary := RunSummary{
		Digest:     e.CurrentSnapshot().Digest,
		Statistics: e.Statistics(),
	}

	if opts.Database != "" {
		id, err := archiveRun(ctx, opts, e)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeStore, "failed to archive run", err)
		}
		summary.RunID = id
		logger.Info("run archived", "run_id", id, "db", opts.Database)
	}

	return out.Success(summary)
}

// stepTicks advances e n ticks, stopping early when ctx is cancelled.
func stepTicks(ctx context.Context, e *engine.Engine, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted at tick %d: %w", e.Tick(), err)
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

func archiveRun(ctx context.Context, opts *RunOptions, e *engine.Engine) (string, error) {
	ids := opts.RunIDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer st.Close()

	a, err := store.NewArchive(ids.Generate(), opts.Label, e, now())
	if err != nil {
		return "", err
	}
	if err := st.SaveRun(ctx, a); err != nil {
		return "", err
	}
	return a.Run.ID, nil
}

// progressObserver logs each captured snapshot at debug level.
type progressObserver struct {
	logger *slog.Logger
}

func (p progressObserver) OnSnapshot(s graph.Snapshot) {
	p.logger.Debug("snapshot",
		"tick", s.Tick,
		"total_nodes", len(s.Nodes),
		"edges", len(s.Edges),
		"digest", s.Digest)
}

func (p progressObserver) OnReset() {
	p.logger.Debug("reset")
}
