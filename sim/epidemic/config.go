package epidemic

import (
	"fmt"
	"math"
	"time"

	"github.com/flockwork-sim/flockwork-sim/sim"
	"github.com/flockwork-sim/flockwork-sim/sim/metrics"
)

// Model selects the compartmental dynamics.
type Model string

const (
	// ModelSIS returns recovered nodes to the susceptible pool.
	ModelSIS Model = "sis"
	// ModelSIR makes recovered nodes permanently immune.
	ModelSIR Model = "sir"
)

// validModels maps accepted model names.
var validModels = map[Model]bool{
	ModelSIS: true,
	ModelSIR: true,
}

// IsValidModel returns true if the given string names a supported model.
func IsValidModel(name string) bool {
	return validModels[Model(name)]
}

// Config holds every parameter of one epidemic run.
type Config struct {
	Model             Model   `yaml:"model"`
	N                 int     `yaml:"n"`
	Q                 float64 `yaml:"q"`
	TRunTotal         float64 `yaml:"t_run_total"` // SIR: 0 runs until extinction
	InfectionRate     float64 `yaml:"infection_rate"`
	RecoveryRate      float64 `yaml:"recovery_rate"`
	RewiringRate      float64 `yaml:"rewiring_rate"`
	NumberVaccinated  int     `yaml:"number_vaccinated"`
	NumberInfected    int     `yaml:"number_infected"`
	UseRandomRewiring bool    `yaml:"use_random_rewiring"`
	Seed              int64   `yaml:"seed"`                  // 0 derives a seed from the clock
	SamplingDT        float64 `yaml:"sampling_dt,omitempty"` // 0 records every event
	MaxEvents         int     `yaml:"max_events,omitempty"`  // 0 = unlimited
}

// DefaultConfig returns the defaults of the original SIS/SIR entry points.
func DefaultConfig(model Model) Config {
	return Config{
		Model:          model,
		RewiringRate:   1.0,
		NumberInfected: 1,
	}
}

// Validate checks that the configuration describes a runnable simulation.
func (c *Config) Validate() error {
	if !validModels[c.Model] {
		return fmt.Errorf("unknown model %q; valid: sis, sir: %w", c.Model, sim.ErrInvalidArgument)
	}
	if c.N < 2 {
		return fmt.Errorf("n must be >= 2, got %d: %w", c.N, sim.ErrInvalidArgument)
	}
	if math.IsNaN(c.Q) || c.Q < 0 || c.Q > 1 {
		return fmt.Errorf("q must be in [0,1], got %f: %w", c.Q, sim.ErrInvalidArgument)
	}
	for _, r := range []struct {
		name string
		val  float64
	}{
		{"infection_rate", c.InfectionRate},
		{"recovery_rate", c.RecoveryRate},
		{"rewiring_rate", c.RewiringRate},
		{"t_run_total", c.TRunTotal},
		{"sampling_dt", c.SamplingDT},
	} {
		if err := validateFiniteNonNegative(r.name, r.val); err != nil {
			return err
		}
	}
	if c.NumberVaccinated < 0 || c.NumberInfected < 0 {
		return fmt.Errorf("number_vaccinated and number_infected must be non-negative, got %d and %d: %w",
			c.NumberVaccinated, c.NumberInfected, sim.ErrInvalidArgument)
	}
	if c.NumberVaccinated+c.NumberInfected > c.N {
		return fmt.Errorf("number_vaccinated + number_infected = %d exceeds n = %d: %w",
			c.NumberVaccinated+c.NumberInfected, c.N, sim.ErrInvalidArgument)
	}
	if c.MaxEvents < 0 {
		return fmt.Errorf("max_events must be non-negative, got %d: %w", c.MaxEvents, sim.ErrInvalidArgument)
	}
	// an endemic SIS run never absorbs, so it needs a horizon
	if c.Model == ModelSIS && c.TRunTotal == 0 && c.MaxEvents == 0 {
		return fmt.Errorf("sis needs t_run_total > 0 or max_events > 0: %w", sim.ErrInvalidArgument)
	}
	// without recovery, rewiring keeps the total rate positive after the outbreak stalls
	if c.Model == ModelSIR && c.RecoveryRate == 0 && c.RewiringRate > 0 && c.TRunTotal == 0 && c.MaxEvents == 0 {
		return fmt.Errorf("sir with recovery_rate 0 and rewiring never absorbs; set t_run_total or max_events: %w",
			sim.ErrInvalidArgument)
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f: %w", name, val, sim.ErrInvalidArgument)
	}
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %f: %w", name, val, sim.ErrInvalidArgument)
	}
	return nil
}

// === Options ===

type runOptions struct {
	cfg     Config
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option adjusts a run beyond its required parameters.
type Option func(*runOptions)

// WithRewiringRate sets the per-node rewiring rate (default 1).
func WithRewiringRate(rate float64) Option {
	return func(o *runOptions) { o.cfg.RewiringRate = rate }
}

// WithVaccinated sets the number of initially vaccinated (immune) nodes (default 0).
func WithVaccinated(n int) Option {
	return func(o *runOptions) { o.cfg.NumberVaccinated = n }
}

// WithInfected sets the number of initially infected nodes (default 1).
func WithInfected(n int) Option {
	return func(o *runOptions) { o.cfg.NumberInfected = n }
}

// WithRandomRewiring switches from flockwork group joining to random rewiring.
func WithRandomRewiring(random bool) Option {
	return func(o *runOptions) { o.cfg.UseRandomRewiring = random }
}

// WithSeed sets the seed. 0 (default) derives one from the clock.
func WithSeed(seed int64) Option {
	return func(o *runOptions) { o.cfg.Seed = seed }
}

// WithTimeLimit sets t_run_total. Only useful for SIR, whose default is no limit.
func WithTimeLimit(t float64) Option {
	return func(o *runOptions) { o.cfg.TRunTotal = t }
}

// WithSamplingDT records the observables on a fixed time grid instead of at every event.
func WithSamplingDT(dt float64) Option {
	return func(o *runOptions) { o.cfg.SamplingDT = dt }
}

// WithMaxEvents stops the run after n applied events.
func WithMaxEvents(n int) Option {
	return func(o *runOptions) { o.cfg.MaxEvents = n }
}

// WithMetrics reports events and run completion to r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *runOptions) { o.metrics = r }
}

// WithClock replaces time.Now for seed derivation.
func WithClock(now func() time.Time) Option {
	return func(o *runOptions) { o.now = now }
}
