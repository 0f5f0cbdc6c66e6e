// Package sim is the host loop. A Simulation owns the clock, grid,
// population, scratch arena, engine, policies and telemetry, and drives
// them one step or one generation at a time.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/engine"
	"github.com/pthm-cable/evogrid/grid"
	"github.com/pthm-cable/evogrid/population"
	"github.com/pthm-cable/evogrid/stream"
	"github.com/pthm-cable/evogrid/telemetry"
)

const hostStreamTag = 0xbb67ae8584caa73b

// ErrPaused is returned by Step while the simulation is paused after an
// exhausted generation.
var ErrPaused = errors.New("sim: paused")

// Options configures a Simulation. Only Config is required.
type Options struct {
	Config *config.Config

	// Snapshot restores heritable state and the generation counter.
	// Its simulation parameters replace Config.Simulation.
	Snapshot *telemetry.Snapshot

	// Policies override Config.Policy when set.
	DeathPolicy      population.DeathPolicy
	ReproducerPolicy population.ReproducerPolicy

	OutputDir   string
	SnapshotDir string
	Hub         *stream.Hub

	StatsCallback func(telemetry.GenerationStats)
}

// StepResult describes one completed step.
type StepResult struct {
	Clock           engine.Clock // the step that ran
	Moves           population.MoveStats
	Killed          int
	Alive           int
	EndOfGeneration bool
}

// GenerationResult describes one completed generation.
type GenerationResult struct {
	Stats     telemetry.GenerationStats
	Bookmarks []telemetry.Bookmark
}

// Simulation runs generations of a population on a grid.
type Simulation struct {
	cfg  *config.Config
	seed uint64

	rng     *rand.Rand
	grid    *grid.Grid
	pop     *population.Population
	scratch *population.HeritableArena
	eng     *engine.Engine
	clock   engine.Clock

	deaths      population.DeathPolicy
	reproducers population.ReproducerPolicy

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	lineage   *telemetry.LineageTracker
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager

	hub         *stream.Hub
	frame       []stream.Agent
	snapshotDir string
	callback    func(telemetry.GenerationStats)

	paused bool
}

// New builds a simulation. Invalid configuration is rejected here.
func New(opts Options) (*Simulation, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	cfg := opts.Config.Clone()
	if opts.Snapshot != nil {
		cfg.Simulation = opts.Snapshot.Simulation
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim := cfg.Simulation

	mode, err := engine.ParseRNGMode(cfg.Engine.RNGMode)
	if err != nil {
		return nil, err
	}

	deaths := opts.DeathPolicy
	if deaths == nil {
		if deaths, err = population.DeathPolicyByName(cfg.Policy.Death); err != nil {
			return nil, err
		}
	}
	reproducers := opts.ReproducerPolicy
	if reproducers == nil {
		if reproducers, err = population.ReproducerPolicyByName(cfg.Policy.Reproducers); err != nil {
			return nil, err
		}
	}

	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		cfg.Engine.Seed = seed
	}

	s := &Simulation{
		cfg:         cfg,
		seed:        seed,
		rng:         rand.New(rand.NewPCG(seed, seed^hostStreamTag)),
		grid:        grid.New(sim.GridWidth, sim.GridHeight),
		scratch:     population.NewScratch(sim),
		deaths:      deaths,
		reproducers: reproducers,
		collector:   telemetry.NewCollector(),
		perf:        telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarks:   telemetry.NewBookmarkDetector(10),
		hub:         opts.Hub,
		snapshotDir: opts.SnapshotDir,
		callback:    opts.StatsCallback,
	}

	if opts.Snapshot != nil {
		heritable, err := opts.Snapshot.Arena()
		if err != nil {
			return nil, err
		}
		if s.pop, err = population.FromArena(sim, heritable, s.grid, s.rng); err != nil {
			return nil, err
		}
		s.clock = engine.Clock{Generation: opts.Snapshot.Generation}
	} else {
		if s.pop, err = population.New(sim, s.grid, s.rng); err != nil {
			return nil, err
		}
	}
	s.lineage = telemetry.NewLineageTracker(s.pop, s.clock.Generation)

	if s.output, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, err
	}

	s.eng = engine.New(cfg.Engine.Workers, seed, mode)

	slog.Info("simulation created",
		"run_id", s.output.RunID(),
		"seed", seed,
		"population", sim.PopulationSize,
		"grid", fmt.Sprintf("%dx%d", sim.GridWidth, sim.GridHeight),
		"genome_length", sim.GenomeLength,
		"workers", s.eng.Workers(),
		"rng_mode", s.eng.Mode().String(),
		"generation", s.clock.Generation,
	)
	return s, nil
}

// Step runs one step: evaluate every living agent, resolve moves, apply
// the death policy and resolve deaths, then advance the clock. It returns
// ErrPaused while paused and does nothing once the generation's steps have
// all run.
func (s *Simulation) Step() (StepResult, error) {
	if s.paused {
		return StepResult{Clock: s.clock}, ErrPaused
	}
	sim := s.cfg.Simulation
	if s.clock.EndOfGeneration(sim.StepsPerGeneration) {
		return StepResult{Clock: s.clock, Alive: s.pop.AliveCount(), EndOfGeneration: true}, nil
	}

	s.perf.StartStep()

	s.perf.StartPhase(telemetry.PhaseEvaluate)
	n := s.pop.Step(sim, s.eng, s.clock)

	s.perf.StartPhase(telemetry.PhaseMoves)
	moves := s.pop.ResolveMoveQueue(n, s.grid)

	s.perf.StartPhase(telemetry.PhaseDeaths)
	s.deaths.Apply(sim, s.clock.Tick(), s.pop)
	killed := s.pop.ResolveDead(s.grid)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordStep(moves, killed)
	s.broadcast()

	s.perf.EndStep()

	res := StepResult{
		Clock:  s.clock,
		Moves:  moves,
		Killed: killed,
		Alive:  s.pop.AliveCount(),
	}
	s.clock = s.clock.Next()
	res.EndOfGeneration = s.clock.EndOfGeneration(sim.StepsPerGeneration)
	return res, nil
}

func (s *Simulation) broadcast() {
	every := s.cfg.Telemetry.StreamEvery
	if s.hub == nil || every <= 0 || s.clock.Step%every != 0 || s.hub.Clients() == 0 {
		return
	}
	frame := stream.NewFrame(s.frame, s.pop, s.clock)
	s.frame = frame.Agents
	s.hub.Broadcast(frame)
}

// EndGeneration records the generation's statistics and replaces the
// population with the offspring of the selected reproducers. It may be
// called before every step has run. If no agent qualifies it returns an
// error wrapping population.ErrNoReproducers, leaves the population, grid
// and clock untouched, and pauses the simulation. While paused it returns
// ErrPaused without recording anything.
func (s *Simulation) EndGeneration() (GenerationResult, error) {
	if s.paused {
		return GenerationResult{}, ErrPaused
	}
	sim := s.cfg.Simulation
	gen := s.clock.Generation

	reproducers := s.reproducers.Select(sim, s.pop)
	stats := s.collector.Flush(gen, s.pop, s.grid, len(reproducers), s.lineage)
	res := GenerationResult{Stats: stats, Bookmarks: s.bookmarks.Check(stats)}
	s.record(res)

	s.perf.StartStep()
	s.perf.StartPhase(telemetry.PhaseReproduce)
	err := s.pop.Reproduce(s.scratch, sim, reproducers, s.grid, s.rng)
	s.perf.EndStep()

	if err != nil {
		if errors.Is(err, population.ErrNoReproducers) {
			s.paused = true
			slog.Warn("population exhausted", "generation", gen, "alive", stats.Alive)
		}
		return res, fmt.Errorf("generation %d: %w", gen, err)
	}

	s.clock = s.clock.NextGeneration()
	s.lineage.Inherit(s.pop, s.clock.Generation)
	return res, nil
}

// record sends generation results to the logger, output files, callback
// and snapshot directory.
func (s *Simulation) record(res GenerationResult) {
	perfStats := s.perf.Stats()

	if s.callback != nil {
		s.callback(res.Stats)
	}

	if s.cfg.Telemetry.LogStats {
		res.Stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteGeneration(res.Stats); err != nil {
		slog.Error("failed to write generation stats", "error", err)
	}
	if err := s.output.WritePerf(perfStats, res.Stats.Generation); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if err := s.output.WriteNodeUsage(res.Stats.NodeUsage, res.Stats.Generation); err != nil {
		slog.Error("failed to write node usage", "error", err)
	}

	for _, bm := range res.Bookmarks {
		if s.cfg.Telemetry.LogStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			snap := s.snapshot()
			snap.Bookmark = &bm
			if _, err := telemetry.SaveSnapshot(snap, s.snapshotDir); err != nil {
				slog.Error("failed to save snapshot", "error", err)
			}
		}
	}
}

// RunGeneration steps to the end of the current generation and ends it.
// ctx is checked between steps.
func (s *Simulation) RunGeneration(ctx context.Context) (GenerationResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return GenerationResult{}, err
		}
		res, err := s.Step()
		if err != nil {
			return GenerationResult{}, err
		}
		if res.EndOfGeneration {
			break
		}
	}
	return s.EndGeneration()
}

// Run runs the given number of generations, or until ctx is done when
// generations is not positive.
func (s *Simulation) Run(ctx context.Context, generations int) error {
	for i := 0; generations <= 0 || i < generations; i++ {
		if _, err := s.RunGeneration(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Reset replaces the population with fresh random agents and restarts the
// clock at generation zero. It also clears a pause.
func (s *Simulation) Reset() {
	s.pop.Regenerate(s.cfg.Simulation, s.grid, s.rng)
	s.clock = engine.Clock{}
	s.collector.Reset()
	s.lineage.Refound(s.pop, 0)
	s.paused = false
}

func (s *Simulation) snapshot() *telemetry.Snapshot {
	snap := telemetry.NewSnapshot(s.pop, s.cfg.Simulation, s.seed, s.clock.Generation)
	snap.RunID = s.output.RunID()
	return snap
}

// SaveSnapshot writes the current heritable state to dir.
func (s *Simulation) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(s.snapshot(), dir)
}

// Clock returns the current clock.
func (s *Simulation) Clock() engine.Clock { return s.clock }

// Population returns the population. Callers must not mutate it.
func (s *Simulation) Population() *population.Population { return s.pop }

// Grid returns the grid. Callers must not mutate it.
func (s *Simulation) Grid() *grid.Grid { return s.grid }

// Config returns the effective configuration.
func (s *Simulation) Config() *config.Config { return s.cfg.Clone() }

// Seed returns the seed the run was started with.
func (s *Simulation) Seed() uint64 { return s.seed }

// Paused reports whether the last generation was exhausted.
func (s *Simulation) Paused() bool { return s.paused }

// Lineage returns the clade tracker.
func (s *Simulation) Lineage() *telemetry.LineageTracker { return s.lineage }

// RunID returns the output run id, or "" when output is disabled.
func (s *Simulation) RunID() string { return s.output.RunID() }

// Close stops the engine and closes output files.
func (s *Simulation) Close() error {
	s.eng.Close()
	return s.output.Close()
}
