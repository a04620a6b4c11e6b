// Package config loads engine configuration files.
//
// Every file is unified with the embedded CUE schema (#Config) before it is
// decoded, so unknown keys, out-of-range values and type errors are reported
// with CUE positions. Supported formats:
//   - .cue: compiled directly
//   - .yaml, .yml, .json: decoded with yaml.v3 and encoded into CUE
//
// The decoded engine.Config is then checked by engine.Config.Validate, which
// covers cross-field limits the schema does not express.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wavegrid/internal/engine"
)

//go:embed schema.cue
var schemaCUE string

// Format is a configuration file format.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config format %q (want .cue, .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// Schema returns the embedded CUE schema source.
func Schema() string {
	return schemaCUE
}

// Load reads and validates the configuration file at path.
func Load(path string) (engine.Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return engine.Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := parse(data, format, path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates data in the given format. An empty document yields the
// schema defaults.
func Parse(data []byte, format Format) (engine.Config, error) {
	return parse(data, format, "config."+string(format))
}

func parse(data []byte, format Format, filename string) (engine.Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return engine.Config{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var doc cue.Value
	switch format {
	case FormatCUE:
		doc = ctx.CompileBytes(data, cue.Filename(filename))
	case FormatYAML, FormatJSON:
		// JSON is a YAML subset; one decoder serves both.
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return engine.Config{}, fmt.Errorf("decode %s: %w", format, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		doc = ctx.Encode(raw)
	default:
		return engine.Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	if err := doc.Err(); err != nil {
		return engine.Config{}, fmt.Errorf("compile %s: %w", filename, err)
	}

	v := def.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return engine.Config{}, fmt.Errorf("schema: %w", err)
	}

	var cfg engine.Config
	if err := v.Decode(&cfg); err != nil {
		return engine.Config{}, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}
