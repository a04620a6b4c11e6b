package engine

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/wavegrid/internal/coord"
	"github.com/roach88/wavegrid/internal/graph"
	"github.com/roach88/wavegrid/internal/sequence"
)

const (
	// DefaultMaxShell is the generation bound used by DefaultConfig.
	DefaultMaxShell = 10

	// DefaultSaturationThreshold is the coverage at which backpressure starts.
	DefaultSaturationThreshold = 0.9

	// DefaultPhaseTolerance is the half-width of the constructive and
	// destructive phase buckets (π/12, 15°).
	DefaultPhaseTolerance = math.Pi / 12

	// DefaultAddressBudget is how many cells the saturation tracker enumerates
	// exactly before falling back to an upper bound.
	DefaultAddressBudget = 1 << 20

	// maxGridSpan keeps every quantized component exactly representable.
	maxGridSpan = 1 << 53
)

// Config is the engine configuration.
//
// Zero values for Tolerance, PhaseTolerance and AddressBudget select the
// defaults. CollisionLimit 0 disables the collision cap.
type Config struct {
	MaxShell               int     `json:"max_shell" yaml:"max_shell" validate:"gt=0,lte=64"`
	EnableDualPropagation  bool    `json:"enable_dual_propagation" yaml:"enable_dual_propagation"`
	EnableCassiniFiltering bool    `json:"enable_cassini_filtering" yaml:"enable_cassini_filtering"`
	SaturationThreshold    float64 `json:"saturation_threshold" yaml:"saturation_threshold" validate:"gt=0,lte=1"`
	Tolerance              float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" validate:"gte=0,finite"`
	PhaseTolerance         float64 `json:"phase_tolerance,omitempty" yaml:"phase_tolerance,omitempty" validate:"gte=0,lt=1.5707963267948966"`
	CollisionLimit         int     `json:"collision_limit,omitempty" yaml:"collision_limit,omitempty" validate:"gte=0"`
	AddressBudget          int     `json:"address_budget,omitempty" yaml:"address_budget,omitempty" validate:"gte=0"`
}

// DefaultConfig returns the reference configuration: ten shells, dual
// propagation, Cassini filtering, saturation at 90% coverage.
func DefaultConfig() Config {
	return Config{
		MaxShell:               DefaultMaxShell,
		EnableDualPropagation:  true,
		EnableCassiniFiltering: true,
		SaturationThreshold:    DefaultSaturationThreshold,
	}
}

// DefaultMode is the mode Step propagates with.
func (c Config) DefaultMode() graph.Mode {
	if c.EnableDualPropagation {
		return graph.ModeDual
	}
	return graph.ModeFibonacci
}

// WithDefaults returns c with zero-valued optional fields filled in.
func (c Config) WithDefaults() Config {
	if c.Tolerance == 0 {
		c.Tolerance = coord.DefaultTolerance
	}
	if c.PhaseTolerance == 0 {
		c.PhaseTolerance = DefaultPhaseTolerance
	}
	if c.AddressBudget == 0 {
		c.AddressBudget = DefaultAddressBudget
	}
	return c
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = configValidate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
}

// Validate checks c and returns a *ConfigError describing the first
// violation.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigError{Field: fe.Field(), Value: fe.Value(), Reason: reason(fe)}
		}
		return &ConfigError{Field: "config", Value: c, Reason: err.Error()}
	}

	// The farthest reachable coordinate is Σ L(n) for n ≤ MaxShell, which is
	// L(MaxShell+2) − 3. It must stay on an exactly representable grid.
	full := c.WithDefaults()
	span, err := sequence.Default().BackwardInt64(full.MaxShell + 2)
	if err != nil || float64(span-3)/full.Tolerance >= maxGridSpan {
		return &ConfigError{
			Field:  "max_shell",
			Value:  c.MaxShell,
			Reason: fmt.Sprintf("address span exceeds grid precision at tolerance %g", full.Tolerance),
		}
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be > " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lt":
		return "must be < " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "finite":
		return "must be finite"
	default:
		return "failed " + fe.Tag()
	}
}
