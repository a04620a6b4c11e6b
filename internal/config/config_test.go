package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavegrid/internal/engine"
)

func TestParse_EmptyDocumentYieldsDefaults(t *testing.T) {
	for _, format := range []Format{FormatCUE, FormatYAML} {
		cfg, err := Parse(nil, format)
		require.NoError(t, err, format)
		assert.Equal(t, engine.DefaultConfig(), cfg, format)
	}

	cfg, err := Parse([]byte("{}"), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), cfg)
}

func TestLoad_Fixtures(t *testing.T) {
	tests := []struct {
		file string
		want engine.Config
	}{
		{"small.yaml", engine.Config{
			MaxShell:               2,
			EnableDualPropagation:  true,
			EnableCassiniFiltering: true,
			SaturationThreshold:    1,
		}},
		{"fibonacci.cue", engine.Config{
			MaxShell:               6,
			EnableDualPropagation:  false,
			EnableCassiniFiltering: true,
			SaturationThreshold:    0.75,
			CollisionLimit:         3,
		}},
		{"coarse.json", engine.Config{
			MaxShell:               8,
			EnableDualPropagation:  true,
			EnableCassiniFiltering: true,
			SaturationThreshold:    0.9,
			Tolerance:              0.001,
			PhaseTolerance:         0.2,
			AddressBudget:          4096,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg, err := Load(filepath.Join("testdata", tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_key.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_depth")
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero shells", "max_shell: 0"},
		{"too many shells", "max_shell: 65"},
		{"fractional shells", "max_shell: 2.5"},
		{"threshold above one", "saturation_threshold: 1.5"},
		{"negative tolerance", "tolerance: -0.1"},
		{"wide phase tolerance", "phase_tolerance: 2"},
		{"negative budget", "address_budget: -1"},
		{"string flag", `enable_dual_propagation: "yes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			assert.Error(t, err)
		})
	}
}

func TestParse_EngineChecksStillApply(t *testing.T) {
	// Inside the schema's range but too wide for the default grid.
	_, err := Parse([]byte("max_shell: 50"), FormatYAML)
	require.Error(t, err)
	assert.True(t, engine.IsConfigError(err))

	cfg, err := Parse([]byte("max_shell: 50\ntolerance: 1"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxShell)
}

func TestParse_CUEConstraintsInFile(t *testing.T) {
	cfg, err := Parse([]byte("max_shell: 2 + 2\nsaturation_threshold: 3 / 4"), FormatCUE)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxShell)
	assert.Equal(t, 0.75, cfg.SaturationThreshold)

	_, err = Parse([]byte("max_shell: 8 * 8 + 1"), FormatCUE)
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]Format{
		"a.cue":  FormatCUE,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a.json": FormatJSON,
	} {
		got, err := FormatFor(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFor("a.toml")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSchema_Embedded(t *testing.T) {
	assert.Contains(t, Schema(), "#Config")
}
