package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/wavegrid/internal/config"
	"github.com/roach88/wavegrid/internal/engine"
)

// EngineFlags selects an engine configuration: a config file, overridden
// by whichever of the individual flags were set explicitly.
type EngineFlags struct {
	ConfigFile    string
	MaxShell      int
	Dual          bool
	Cassini       bool
	Threshold     float64
	AddressBudget int
}

func addEngineFlags(cmd *cobra.Command, f *EngineFlags) {
	def := engine.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVarP(&f.ConfigFile, "config", "c", "", "engine config file (.cue, .yaml, .json)")
	fs.IntVar(&f.MaxShell, "max-shell", def.MaxShell, "generation bound")
	fs.BoolVar(&f.Dual, "dual", def.EnableDualPropagation, "propagate Fibonacci and Lucas together")
	fs.BoolVar(&f.Cassini, "cassini", def.EnableCassiniFiltering, "reject candidates failing the Cassini identity")
	fs.Float64Var(&f.Threshold, "saturation-threshold", def.SaturationThreshold, "coverage at which backpressure starts")
	fs.IntVar(&f.AddressBudget, "address-budget", 0, "cells the saturation tracker may enumerate (0 = default)")
}

// Resolve loads the configuration and applies explicitly set flags on top.
func (f *EngineFlags) Resolve(cmd *cobra.Command) (engine.Config, error) {
	var cfg engine.Config
	var err error
	if f.ConfigFile != "" {
		cfg, err = config.Load(f.ConfigFile)
	} else {
		cfg, err = config.Parse(nil, config.FormatYAML)
	}
	if err != nil {
		return engine.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("max-shell") {
		cfg.MaxShell = f.MaxShell
	}
	if fs.Changed("dual") {
		cfg.EnableDualPropagation = f.Dual
	}
	if fs.Changed("cassini") {
		cfg.EnableCassiniFiltering = f.Cassini
	}
	if fs.Changed("saturation-threshold") {
		cfg.SaturationThreshold = f.Threshold
	}
	if fs.Changed("address-budget") {
		cfg.AddressBudget = f.AddressBudget
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}
