package population

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/evogrid/arena"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/grid"
	"github.com/pthm-cable/evogrid/neural"
)

var (
	// ErrNoReproducers means no agent qualified to found the next generation.
	ErrNoReproducers = errors.New("population: no reproducers")
	// ErrBadReproducer means a reproducer index is out of range.
	ErrBadReproducer = errors.New("population: reproducer index out of range")
)

// NewScratch returns an arena shaped for Reproduce.
func NewScratch(sim config.Simulation) *HeritableArena {
	return arena.NewScratch[Heritable, neural.Gene](sim.PopulationSize, sim.GenomeLength)
}

// Reproduce replaces every agent with a mutated copy of a uniformly chosen
// reproducer. The current arena is swapped into scratch and read from
// there while the next generation is written in place. g is reset and the
// new agents placed at random. On error nothing is modified.
func (p *Population) Reproduce(scratch *HeritableArena, sim config.Simulation, reproducers []int, g *grid.Grid, rng *rand.Rand) error {
	if len(reproducers) == 0 {
		return ErrNoReproducers
	}
	for _, r := range reproducers {
		if r < 0 || r >= p.size {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrBadReproducer, r, p.size)
		}
	}
	if err := p.heritable.Swap(scratch); err != nil {
		return err
	}
	p.heritable.Reset()

	g.Reset()
	p.deaths = p.deaths[:0]

	for i := 0; i < p.size; i++ {
		parent := reproducers[rng.IntN(len(reproducers))]

		ph, pgenome := scratch.View(parent)
		h, genome := p.heritable.Overwrite(i)
		inherit(h, genome, ph, pgenome, sim, rng)

		p.spawn(i, genome, g, rng)
		p.parents[i] = parent
	}
	return nil
}

// inherit copies a parent's heritable data into a child slot with
// independent per-gene and oscillator mutation.
func inherit(h *Heritable, genome []neural.Gene, ph *Heritable, pgenome []neural.Gene, sim config.Simulation, rng *rand.Rand) {
	copy(genome, pgenome)
	for j := range genome {
		if mutates(sim.MutationRate, rng) {
			genome[j] = genome[j].Mutate(uint(rng.IntN(32)))
		}
	}

	osc := ph.Oscillator
	if mutates(sim.MutationRate, rng) {
		osc ^= 1 << rng.IntN(32)
	}
	h.Oscillator = osc % uint32(sim.StepsPerGeneration)
}

// mutates draws against a percent rate.
func mutates(ratePercent float64, rng *rand.Rand) bool {
	return rng.Float64()*100 < ratePercent
}
