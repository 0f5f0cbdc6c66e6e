package main

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/population"
	"github.com/pthm-cable/evogrid/sim"
	"github.com/pthm-cable/evogrid/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []uint64
	baseConfig  *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	generations int // generations completed before exhaustion, or the cap
	stats       []telemetry.GenerationStats
	err         error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated completed-generation fraction, boosted by the
// late survival rate.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, seed uint64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, seed)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		if r.err != nil {
			continue // scores 0, the worst fitness
		}
		quality := computeQuality(r.stats)
		totalQuality += quality
		totalFitness += fe.computeFitness(r, quality)
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

func (fe *FitnessEvaluator) runSimulation(base *config.Config, seed uint64) runResult {
	cfg := base.Clone()
	cfg.Engine.Seed = seed
	cfg.Engine.Workers = 1
	cfg.Telemetry.LogStats = false

	var res runResult
	s, err := sim.New(sim.Options{
		Config:        cfg,
		StatsCallback: func(st telemetry.GenerationStats) { res.stats = append(res.stats, st) },
	})
	if err != nil {
		res.err = err
		return res
	}
	defer s.Close()

	err = s.Run(context.Background(), fe.generations)
	if err != nil && !errors.Is(err, population.ErrNoReproducers) {
		res.err = err
	}
	res.generations = s.Clock().Generation
	return res
}

// computeQuality returns the mean survival rate over the last third of
// the recorded generations.
func computeQuality(stats []telemetry.GenerationStats) float64 {
	if len(stats) == 0 {
		return 0
	}
	tail := stats[len(stats)-max(1, len(stats)/3):]
	var sum float64
	for _, st := range tail {
		sum += st.SurvivalRate()
	}
	return sum / float64(len(tail))
}

func (fe *FitnessEvaluator) computeFitness(r runResult, quality float64) float64 {
	completed := float64(r.generations) / float64(max(1, fe.generations))
	return -math.Min(completed, 1) * (1 + quality)
}
