package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// legacySimulation mirrors the [Config] section written by the original desktop program.
type legacySimulation struct {
	GridWidth      int     `ini:"GridWidth"`
	GridHeight     int     `ini:"GridHeight"`
	PopulationSize int     `ini:"PopulationSize"`
	GenomeLength   int     `ini:"GenomeLength"`
	StepsPerGen    int     `ini:"StepsPerGen"`
	MutationRate   float64 `ini:"MutationRate"`
}

// LoadINI imports simulation parameters from a legacy INI file's [Config] section,
// overlaying the embedded defaults. Other sections (such as saved genomes) are ignored.
func LoadINI(path string) (*Config, error) {
	cfg, err := defaults()
	if err != nil {
		return nil, err
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
		UnparseableSections:     []string{"Save"},
	}, path)
	if err != nil {
		return nil, fmt.Errorf("loading ini file %q: %w", path, err)
	}

	legacy := legacySimulation{
		GridWidth:      cfg.Simulation.GridWidth,
		GridHeight:     cfg.Simulation.GridHeight,
		PopulationSize: cfg.Simulation.PopulationSize,
		GenomeLength:   cfg.Simulation.GenomeLength,
		StepsPerGen:    cfg.Simulation.StepsPerGeneration,
		MutationRate:   cfg.Simulation.MutationRate,
	}
	if err := file.Section("Config").MapTo(&legacy); err != nil {
		return nil, fmt.Errorf("mapping [Config] section: %w", err)
	}

	cfg.Simulation = Simulation{
		PopulationSize:     legacy.PopulationSize,
		GenomeLength:       legacy.GenomeLength,
		GridWidth:          legacy.GridWidth,
		GridHeight:         legacy.GridHeight,
		MutationRate:       legacy.MutationRate,
		StepsPerGeneration: legacy.StepsPerGen,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
