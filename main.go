package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/population"
	"github.com/pthm-cable/evogrid/sim"
	"github.com/pthm-cable/evogrid/stream"
	"github.com/pthm-cable/evogrid/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	iniPath := flag.String("ini", "", "Path to a legacy INI config (overrides -config)")
	logStats := flag.Bool("log-stats", false, "Output generation and perf stats via slog")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = config value, then time-based)")
	generations := flag.Int("generations", 0, "Stop after N generations (0 = unlimited)")
	workers := flag.Int("workers", -1, "Worker goroutines (-1 = config value, 0 = GOMAXPROCS-1)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	loadPath := flag.String("load", "", "Resume from a snapshot file")
	serveAddr := flag.String("serve", "", "Serve a websocket agent feed on this address, e.g. :8080")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath, *iniPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}
	if *workers >= 0 {
		cfg.Engine.Workers = *workers
	}
	if *logStats {
		cfg.Telemetry.LogStats = true
	}

	opts := sim.Options{
		Config:      cfg,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
	}

	if *loadPath != "" {
		snap, err := telemetry.LoadSnapshot(*loadPath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		opts.Snapshot = snap
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveAddr != "" {
		sz := cfg.Simulation
		if opts.Snapshot != nil {
			sz = opts.Snapshot.Simulation
		}
		hub := stream.NewHub(sz.GridWidth, sz.GridHeight)
		defer hub.Close()
		opts.Hub = hub

		srv := &http.Server{Addr: *serveAddr, Handler: hub, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("serving agent feed", "addr", *serveAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("stream server failed", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	s, err := sim.New(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	slog.Info("starting simulation",
		"seed", s.Seed(),
		"generations", *generations,
		"run_id", s.RunID(),
	)

	err = s.Run(ctx, *generations)
	switch {
	case err == nil:
		slog.Info("generation limit reached", "clock", s.Clock().String())
	case errors.Is(err, context.Canceled):
		slog.Info("interrupted", "clock", s.Clock().String())
	case errors.Is(err, population.ErrNoReproducers):
		slog.Warn("stopped: no reproducers", "clock", s.Clock().String())
	default:
		slog.Error("simulation failed", "error", err)
	}

	pop := s.Population()
	slog.Info("final population",
		"alive", pop.AliveCount(),
		"active_clades", s.Lineage().ActiveClades(pop),
	)

	if *snapshotDir != "" {
		if _, err := s.SaveSnapshot(*snapshotDir); err != nil {
			slog.Error("failed to save final snapshot", "error", err)
		}
	}
}

func loadConfig(yamlPath, iniPath string) (*config.Config, error) {
	if iniPath != "" {
		return config.LoadINI(iniPath)
	}
	return config.Load(yamlPath)
}
