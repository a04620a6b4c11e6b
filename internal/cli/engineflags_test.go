package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/engine"
)

func resolveWith(t *testing.T, args ...string) (engine.Config, error) {
	t.Helper()
	var f EngineFlags
	cmd := &cobra.Command{Use: "x"}
	addEngineFlags(cmd, &f)
	require.NoError(t, cmd.ParseFlags(args))
	return f.Resolve(cmd)
}

func TestEngineFlags_Defaults(t *testing.T) {
	cfg, err := resolveWith(t)
	require.NoError(t, err)
	def := engine.DefaultConfig()
	assert.Equal(t, def.MaxShell, cfg.MaxShell)
	assert.Equal(t, def.EnableDualPropagation, cfg.EnableDualPropagation)
	assert.Equal(t, def.SaturationThreshold, cfg.SaturationThreshold)
}

func TestEngineFlags_FileThenOverrides(t *testing.T) {
	cfg, err := resolveWith(t, "--config", "../config/testdata/fibonacci.cue")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.MaxShell)
	assert.False(t, cfg.EnableDualPropagation)
	assert.Equal(t, 0.75, cfg.SaturationThreshold)
	assert.Equal(t, 3, cfg.CollisionLimit)

	cfg, err = resolveWith(t, "--config", "../config/testdata/fibonacci.cue", "--max-shell", "4", "--dual")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxShell)
	assert.True(t, cfg.EnableDualPropagation)
	assert.Equal(t, 0.75, cfg.SaturationThreshold, "unset flags keep file values")
	assert.Equal(t, 3, cfg.CollisionLimit)
}

func TestEngineFlags_Invalid(t *testing.T) {
	_, err := resolveWith(t, "--max-shell", "0")
	assert.True(t, engine.IsConfigError(err))

	_, err = resolveWith(t, "--saturation-threshold", "1.5")
	assert.True(t, engine.IsConfigError(err))

	_, err = resolveWith(t, "--config", "../config/testdata/unknown_key.yaml")
	assert.Error(t, err)

	_, err = resolveWith(t, "--config", "missing.yaml")
	assert.Error(t, err)
}
