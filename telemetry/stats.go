// Package telemetry provides generation statistics, lineage tracking, bookmarking, and snapshots.
package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one generation.
type GenerationStats struct {
	Generation int `csv:"generation"`
	Steps      int `csv:"steps"`

	// Population counts at generation end, before reproduction
	Alive       int `csv:"alive"`
	Dead        int `csv:"dead"`
	Killed      int `csv:"killed"`
	Reproducers int `csv:"reproducers"`

	// Move resolution totals over the generation
	Stationary int `csv:"stationary"`
	Moved      int `csv:"moved"`
	FellBack   int `csv:"fell_back"`
	Blocked    int `csv:"blocked"`

	// Oscillator period distribution among survivors
	OscMean float64 `csv:"osc_mean"`
	OscStd  float64 `csv:"osc_std"`
	OscP50  float64 `csv:"osc_p50"`

	// Lineage
	ActiveClades     int     `csv:"active_clades"`
	DominantClade    uint64  `csv:"dominant_clade"`
	DominantShare    float64 `csv:"dominant_share"` // fraction of survivors in the dominant clade
	MeanDisplacement float64 `csv:"mean_displacement"`

	// Survivors within the Moore neighbourhood of each survivor
	MeanNeighbours float64 `csv:"mean_neighbours"`

	// Genome structure
	UsedNodes int       `csv:"used_nodes"`
	NodeUsage NodeUsage `csv:"-"`

	DurationMS float64 `csv:"duration_ms"`
}

// SurvivalRate returns the fraction of agents alive at generation end.
func (s GenerationStats) SurvivalRate() float64 {
	total := s.Alive + s.Dead
	if total == 0 {
		return 0
	}
	return float64(s.Alive) / float64(total)
}

// Summarize returns mean, sample standard deviation and median of values.
// values is sorted in place. Returns zeros for an empty slice.
func Summarize(values []float64) (mean, std, p50 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	slices.Sort(values)

	mean, std = stat.MeanStdDev(values, nil)
	if len(values) < 2 || math.IsNaN(std) {
		std = 0
	}
	p50 = stat.Quantile(0.5, stat.Empirical, values, nil)
	return mean, std, p50
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("steps", s.Steps),
		slog.Int("alive", s.Alive),
		slog.Int("dead", s.Dead),
		slog.Int("killed", s.Killed),
		slog.Int("reproducers", s.Reproducers),
		slog.Int("stationary", s.Stationary),
		slog.Int("moved", s.Moved),
		slog.Int("fell_back", s.FellBack),
		slog.Int("blocked", s.Blocked),
		slog.Float64("osc_mean", s.OscMean),
		slog.Float64("osc_std", s.OscStd),
		slog.Float64("osc_p50", s.OscP50),
		slog.Int("active_clades", s.ActiveClades),
		slog.Float64("dominant_share", s.DominantShare),
		slog.Float64("mean_displacement", s.MeanDisplacement),
		slog.Float64("mean_neighbours", s.MeanNeighbours),
		slog.Int("used_nodes", s.UsedNodes),
		slog.Float64("duration_ms", s.DurationMS),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation", "stats", s)
}
