package telemetry

import (
	"time"

	"github.com/pthm-cable/evogrid/grid"
	"github.com/pthm-cable/evogrid/population"
)

// neighbourRadius covers the eight surrounding cells.
const neighbourRadius = 1.5

// Collector accumulates step events within a generation and produces
// GenerationStats.
type Collector struct {
	generationStart time.Time

	steps  int
	killed int
	moves  population.MoveStats

	oscillators []float64
	neighbours  []int
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{generationStart: time.Now()}
}

// RecordStep records the outcome of one step.
func (c *Collector) RecordStep(moves population.MoveStats, killed int) {
	c.steps++
	c.killed += killed
	c.moves.Stationary += moves.Stationary
	c.moves.Moved += moves.Moved
	c.moves.FellBack += moves.FellBack
	c.moves.Blocked += moves.Blocked
}

// Steps returns the number of steps recorded since the last flush.
func (c *Collector) Steps() int {
	return c.steps
}

// Killed returns the number of agents killed since the last flush.
func (c *Collector) Killed() int {
	return c.killed
}

// Flush produces GenerationStats for the population as it stands at the
// end of a generation and resets counters for the next one. g and lineage
// may be nil, which leaves their stats at zero.
func (c *Collector) Flush(generation int, pop *population.Population, g *grid.Grid, reproducers int, lineage *LineageTracker) GenerationStats {
	c.oscillators = c.oscillators[:0]
	alive, neighbours := 0, 0
	for i := 0; i < pop.Len(); i++ {
		if !pop.Alive(i) {
			continue
		}
		alive++
		h, _ := pop.Heritable(i)
		c.oscillators = append(c.oscillators, float64(h.Oscillator))

		if g != nil {
			m := pop.Movement(i)
			c.neighbours = g.InRadius(c.neighbours[:0], m.X, m.Y, neighbourRadius)
			neighbours += len(c.neighbours) - 1 // minus the agent itself
		}
	}
	oscMean, oscStd, oscP50 := Summarize(c.oscillators)
	usage := CountNodeUsage(pop)

	stats := GenerationStats{
		Generation:  generation,
		Steps:       c.steps,
		Alive:       alive,
		Dead:        pop.Len() - alive,
		Killed:      c.killed,
		Reproducers: reproducers,
		Stationary:  c.moves.Stationary,
		Moved:       c.moves.Moved,
		FellBack:    c.moves.FellBack,
		Blocked:     c.moves.Blocked,
		OscMean:     oscMean,
		OscStd:      oscStd,
		OscP50:      oscP50,
		UsedNodes:   usage.Used(),
		NodeUsage:   usage,
		DurationMS:  float64(time.Since(c.generationStart).Microseconds()) / 1000,
	}
	if alive > 0 {
		stats.MeanNeighbours = float64(neighbours) / float64(alive)
	}
	if lineage != nil {
		stats.ActiveClades = lineage.ActiveClades(pop)
		stats.MeanDisplacement = lineage.MeanDisplacement(pop)
		if alive > 0 {
			clade, size := lineage.DominantClade(pop)
			stats.DominantClade = clade
			stats.DominantShare = float64(size) / float64(alive)
		}
	}

	c.Reset()
	return stats
}

// Reset clears counters and restarts the generation timer.
func (c *Collector) Reset() {
	c.generationStart = time.Now()
	c.steps = 0
	c.killed = 0
	c.moves = population.MoveStats{}
}
