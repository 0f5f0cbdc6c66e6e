// Package main tunes run parameters with CMA-ES so that populations keep
// producing reproducers for as many generations as possible.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/evogrid/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval               int     `csv:"eval"`
	Fitness            float64 `csv:"fitness"`
	Survival           float64 `csv:"survival"`
	MutationRate       float64 `csv:"mutation_rate"`
	GenomeLength       int     `csv:"genome_length"`
	StepsPerGeneration int     `csv:"steps_per_generation"`
}

// evalLog appends evaluation records and remembers the best one.
type evalLog struct {
	f       *os.File
	started bool
	best    *EvalRecord
	bestX   []float64
}

func (l *evalLog) add(rec EvalRecord, x []float64) error {
	if l.best == nil || rec.Fitness < l.best.Fitness {
		l.best, l.bestX = &rec, x
	}
	records := []EvalRecord{rec}
	if !l.started {
		l.started = true
		return gocsv.Marshal(records, l.f)
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

type options struct {
	configPath  string
	generations int
	seeds       int
	maxEvals    int
	population  int
	outputDir   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.generations, "generations", 50, "Generation cap per run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 100, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = 4 + 3*dim/2)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results (required)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(opts); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	seeds := make([]uint64, opts.seeds)
	for i := range seeds {
		seeds[i] = uint64(i*1000 + 42)
	}
	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, opts.generations, seeds, baseCfg)

	f, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	log := &evalLog{f: f}

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	start := time.Now()
	evals := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			vals := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(vals)
			evals++

			rec := EvalRecord{
				Eval:               evals,
				Fitness:            fitness,
				Survival:           evaluator.LastQuality(),
				MutationRate:       vals[0],
				GenomeLength:       int(vals[1]),
				StepsPerGeneration: int(vals[2]),
			}
			if err := log.add(rec, vals); err != nil {
				slog.Error("failed to log evaluation", "error", err)
			}

			elapsed := time.Since(start)
			slog.Info("evaluation",
				"eval", evals,
				"fitness", fitness,
				"survival", rec.Survival,
				"best", log.best.Fitness,
				"elapsed", elapsed.Round(time.Second),
				"eta", (elapsed/time.Duration(evals)*time.Duration(opts.maxEvals-evals)).Round(time.Second),
			)
			return fitness
		},
	}

	slog.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"generations", opts.generations,
	)

	init := params.Normalize(params.ExtractFromConfig(baseCfg))
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}
	if _, err := optimize.Minimize(problem, init, settings, method); err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if log.best == nil {
		return errors.New("no evaluations ran")
	}

	best := baseCfg.Clone()
	params.ApplyToConfig(best, log.bestX)
	path := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := best.WriteYAML(path); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}

	slog.Info("optimization complete",
		"evals", evals,
		"duration", time.Since(start).Round(time.Second),
		"best", *log.best,
		"config", path,
	)
	return nil
}
