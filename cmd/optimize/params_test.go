package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/telemetry"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{-1, 7.6, 1000})
	want := []float64{0, 8, 600}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestApplyExtract(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	pv.ApplyToConfig(cfg, []float64{2.5, 33.4, 120})
	if cfg.Simulation.MutationRate != 2.5 || cfg.Simulation.GenomeLength != 33 || cfg.Simulation.StepsPerGeneration != 120 {
		t.Fatalf("applied simulation = %+v", cfg.Simulation)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}

	got := pv.ExtractFromConfig(cfg)
	want := []float64{2.5, 33, 120}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("extract %s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestComputeQuality(t *testing.T) {
	tests := []struct {
		name  string
		stats []telemetry.GenerationStats
		want  float64
	}{
		{"none", nil, 0},
		{"single", []telemetry.GenerationStats{{Alive: 1, Dead: 3}}, 0.25},
		{"last third", []telemetry.GenerationStats{
			{Alive: 0, Dead: 4}, {Alive: 0, Dead: 4}, {Alive: 0, Dead: 4},
			{Alive: 0, Dead: 4}, {Alive: 2, Dead: 2}, {Alive: 4, Dead: 0},
		}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeQuality(tt.stats); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("computeQuality() = %v, want %v", got, tt.want)
			}
		})
	}
}
