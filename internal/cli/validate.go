package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wavegrid/internal/config"
	"github.com/roach88/wavegrid/internal/engine"
)

// ValidationResult holds the outcome for one config file.
type ValidationResult struct {
	File   string         `json:"file"`
	Valid  bool           `json:"valid"`
	Error  string         `json:"error,omitempty"`
	Config *engine.Config `json:"config,omitempty"`
}

// ValidationReport holds validation results for every file.
type ValidationReport struct {
	Files []ValidationResult `json:"files"`
	Valid bool               `json:"valid"`
}

func (r ValidationReport) String() string {
	var b strings.Builder
	for i, f := range r.Files {
		if i > 0 {
			b.WriteByte('\n')
		}
		if f.Valid {
			c := f.Config
			fmt.Fprintf(&b, "✓ %s (max_shell=%d dual=%t cassini=%t threshold=%g)",
				f.File, c.MaxShell, c.EnableDualPropagation, c.EnableCassiniFiltering, c.SaturationThreshold)
		} else {
			fmt.Fprintf(&b, "✗ %s\n  %s", f.File, f.Error)
		}
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var printSchema bool

	cmd := &cobra.Command{
		Use:   "validate <config-file>...",
		Short: "Validate engine config files",
		Long: `Check engine configuration files against the config schema and the
engine's own constraints, printing the effective configuration with
defaults filled in. CUE, YAML and JSON files are accepted.

Examples:
  wavegrid validate grid.cue
  wavegrid validate small.yaml coarse.json --format json
  wavegrid validate --schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.Schema())
				return err
			}
			if len(args) == 0 {
				return NewExitError(ExitCommandError, "requires at least 1 config file")
			}
			return runValidate(rootOpts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&printSchema, "schema", false, "print the config schema and exit")

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	report := ValidationReport{Valid: true}
	for _, path := range files {
		out.VerboseLog("validating %s", path)

		cfg, err := config.Load(path)
		if err != nil {
			report.Files = append(report.Files, ValidationResult{File: path, Error: err.Error()})
			report.Valid = false
			continue
		}
		// Config reports the effective values the engine will run with.
		cfg = cfg.WithDefaults()
		report.Files = append(report.Files, ValidationResult{File: path, Valid: true, Config: &cfg})
	}

	if err := out.Success(report); err != nil {
		return err
	}
	if !report.Valid {
		return NewExitError(ExitFailure, "invalid config")
	}
	return nil
}
