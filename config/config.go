// Package config provides configuration loading and validation for a simulation run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid config")
	// ErrInfeasible means the population cannot fit on the grid.
	ErrInfeasible = fmt.Errorf("%w: population does not fit on grid", ErrInvalid)
)

// Config holds all run configuration.
type Config struct {
	Simulation Simulation      `yaml:"simulation"`
	Engine     EngineConfig    `yaml:"engine"`
	Policy     PolicyConfig    `yaml:"policy"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
}

// Simulation holds the immutable parameters every core operation is driven by.
// It is passed by value.
type Simulation struct {
	PopulationSize     int     `yaml:"population_size" json:"population_size"`
	GenomeLength       int     `yaml:"genome_length" json:"genome_length"`
	GridWidth          int     `yaml:"grid_width" json:"grid_width"`
	GridHeight         int     `yaml:"grid_height" json:"grid_height"`
	MutationRate       float64 `yaml:"mutation_rate" json:"mutation_rate"` // percent chance per gene, 0-100
	StepsPerGeneration int     `yaml:"steps_per_generation" json:"steps_per_generation"`
}

// EngineConfig holds step engine parameters.
type EngineConfig struct {
	Workers int    `yaml:"workers"`  // 0 = GOMAXPROCS-1 (caller thread takes one chunk)
	Seed    uint64 `yaml:"seed"`     // 0 = time-based
	RNGMode string `yaml:"rng_mode"` // per_worker or per_agent
}

// PolicyConfig selects the death and reproducer policies by name.
type PolicyConfig struct {
	Death       string `yaml:"death"`       // bands, none
	Reproducers string `yaml:"reproducers"` // bands, alive
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogStats    bool `yaml:"log_stats"`
	PerfWindow  int  `yaml:"perf_window"`  // steps averaged by the perf collector
	StreamEvery int  `yaml:"stream_every"` // steps between websocket frames
}

// RNG modes.
const (
	RNGPerWorker = "per_worker"
	RNGPerAgent  = "per_agent"
)

// Cells returns the number of grid cells.
func (s Simulation) Cells() int {
	return s.GridWidth * s.GridHeight
}

// Validate checks the run parameters. Sizing that cannot be satisfied wraps ErrInfeasible.
func (s Simulation) Validate() error {
	switch {
	case s.PopulationSize <= 0:
		return fmt.Errorf("%w: population_size must be > 0, got %d", ErrInvalid, s.PopulationSize)
	case s.GenomeLength <= 0:
		return fmt.Errorf("%w: genome_length must be > 0, got %d", ErrInvalid, s.GenomeLength)
	case s.GridWidth <= 0 || s.GridHeight <= 0:
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalid, s.GridWidth, s.GridHeight)
	case s.StepsPerGeneration <= 0:
		return fmt.Errorf("%w: steps_per_generation must be > 0, got %d", ErrInvalid, s.StepsPerGeneration)
	case s.MutationRate < 0 || s.MutationRate > 100:
		return fmt.Errorf("%w: mutation_rate must be in [0,100], got %g", ErrInvalid, s.MutationRate)
	case s.PopulationSize > s.Cells():
		return fmt.Errorf("%w: %d agents on %dx%d", ErrInfeasible, s.PopulationSize, s.GridWidth, s.GridHeight)
	}
	return nil
}

// Validate checks the whole run configuration.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must be >= 0, got %d", ErrInvalid, c.Engine.Workers)
	}
	switch c.Engine.RNGMode {
	case RNGPerWorker, RNGPerAgent:
	default:
		return fmt.Errorf("%w: unknown engine.rng_mode %q", ErrInvalid, c.Engine.RNGMode)
	}
	return nil
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
