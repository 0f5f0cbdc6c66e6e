// Package population holds every agent of a run as parallel arrays and
// implements the per-step pipeline: parallel evaluation, serial move and
// death resolution, and generation turnover.
package population

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/evogrid/arena"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/engine"
	"github.com/pthm-cable/evogrid/grid"
	"github.com/pthm-cable/evogrid/neural"
)

// HeritableArena stores each agent's Heritable header and genome.
type HeritableArena = arena.Arena[Heritable, neural.Gene]

// ErrGridMismatch means the grid does not have the configured dimensions.
var ErrGridMismatch = errors.New("population: grid does not match config")

// Population is the agent store. Slot i of every array describes agent i.
// Arrays are sized once and overwritten in place; death only clears Alive.
type Population struct {
	size int

	movement  []Movement
	nets      []neural.Net
	heritable *HeritableArena
	misc      []Misc
	parents   []int // slot of the parent in the previous generation, -1 for founders

	moves  []Move
	deaths []int
	dying  []bool

	// step scratch, reused to keep the hot path allocation free
	living    []int
	bounds    []int
	netBounds []int
	netParts  [][]neural.Net
	moveParts [][]Move
	tasks     []func()
}

func alloc(sim config.Simulation) *Population {
	n := sim.PopulationSize
	return &Population{
		size:     n,
		movement: make([]Movement, n),
		nets:     make([]neural.Net, n),
		misc:     make([]Misc, n),
		parents:  make([]int, n),
		moves:    make([]Move, n),
		deaths:   make([]int, 0, n),
		dying:    make([]bool, n),
		living:   make([]int, 0, n),
	}
}

func checkShape(sim config.Simulation, g *grid.Grid) error {
	if err := sim.Validate(); err != nil {
		return err
	}
	if w, h := g.Dimensions(); w != sim.GridWidth || h != sim.GridHeight {
		return fmt.Errorf("%w: grid %dx%d, config %dx%d", ErrGridMismatch, w, h, sim.GridWidth, sim.GridHeight)
	}
	return nil
}

// New builds a random population and places it on g, which is reset first.
func New(sim config.Simulation, g *grid.Grid, rng *rand.Rand) (*Population, error) {
	if err := checkShape(sim, g); err != nil {
		return nil, err
	}

	p := alloc(sim)
	b := arena.Reserve[Heritable, neural.Gene](sim.PopulationSize, sim.GenomeLength)
	for i := 0; i < p.size; i++ {
		h, genome := b.Write(i)
		randomHeritable(h, genome, sim, rng)
	}
	heritable, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	p.heritable = heritable

	p.placeAll(g, rng)
	return p, nil
}

// FromArena builds a population from existing heritable data, such as a
// loaded snapshot. Agents are placed at random on g, which is reset first.
func FromArena(sim config.Simulation, heritable *HeritableArena, g *grid.Grid, rng *rand.Rand) (*Population, error) {
	if err := checkShape(sim, g); err != nil {
		return nil, err
	}
	if heritable.Len() != sim.PopulationSize || heritable.FooterLen() != sim.GenomeLength {
		return nil, fmt.Errorf("%w: arena %dx%d, config %dx%d", arena.ErrShape,
			heritable.Len(), heritable.FooterLen(), sim.PopulationSize, sim.GenomeLength)
	}
	for i := 0; i < heritable.Len(); i++ {
		if !heritable.Written(i) {
			return nil, fmt.Errorf("%w: slot %d", arena.ErrUnwritten, i)
		}
		h, _ := heritable.Overwrite(i)
		h.Oscillator %= uint32(sim.StepsPerGeneration)
	}

	p := alloc(sim)
	p.heritable = heritable
	p.placeAll(g, rng)
	return p, nil
}

// Regenerate replaces every agent with a fresh random one, reusing storage.
func (p *Population) Regenerate(sim config.Simulation, g *grid.Grid, rng *rand.Rand) {
	for i := 0; i < p.size; i++ {
		h, genome := p.heritable.Overwrite(i)
		randomHeritable(h, genome, sim, rng)
	}
	p.placeAll(g, rng)
}

func randomHeritable(h *Heritable, genome []neural.Gene, sim config.Simulation, rng *rand.Rand) {
	neural.RandomGenome(rng, genome)
	h.Oscillator = rng.Uint32() % uint32(sim.StepsPerGeneration)
}

// placeAll resets g and respawns every slot from its heritable data.
func (p *Population) placeAll(g *grid.Grid, rng *rand.Rand) {
	g.Reset()
	p.deaths = p.deaths[:0]
	for i := 0; i < p.size; i++ {
		_, genome := p.heritable.View(i)
		p.spawn(i, genome, g, rng)
		p.parents[i] = -1
	}
}

// spawn places agent i on a free cell and rebuilds its derived state.
func (p *Population) spawn(i int, genome []neural.Gene, g *grid.Grid, rng *rand.Rand) {
	x, y := g.FindRandomUnoccupied(rng)
	g.Set(x, y, i)
	p.movement[i] = Movement{X: x, Y: y, LastDir: RandomDirection(rng)}
	p.nets[i].Rebuild(genome)
	p.misc[i] = Misc{Color: neural.Color(genome), Alive: true}
	p.dying[i] = false
}

// Len returns the population capacity.
func (p *Population) Len() int { return p.size }

// Movement returns agent i's position and heading.
func (p *Population) Movement(i int) Movement { return p.movement[i] }

// Misc returns agent i's color and status.
func (p *Population) Misc(i int) Misc { return p.misc[i] }

// Alive reports whether agent i is alive.
func (p *Population) Alive(i int) bool { return p.misc[i].Alive }

// Parent returns the previous-generation slot agent i descends from, or -1.
func (p *Population) Parent(i int) int { return p.parents[i] }

// Heritable returns agent i's header and genome. The genome aliases the
// arena and must not be modified.
func (p *Population) Heritable(i int) (Heritable, []neural.Gene) {
	h, genome := p.heritable.View(i)
	return *h, genome
}

// AliveCount returns the number of living agents.
func (p *Population) AliveCount() int {
	n := 0
	for i := range p.misc {
		if p.misc[i].Alive {
			n++
		}
	}
	return n
}

// DeadCount returns the number of dead agents.
func (p *Population) DeadCount() int { return p.size - p.AliveCount() }

// LivingIndices returns the ascending indices of living agents.
func (p *Population) LivingIndices() []int {
	return p.AppendLivingIndices(make([]int, 0, p.size))
}

// AppendLivingIndices appends the ascending indices of living agents to dst.
func (p *Population) AppendLivingIndices(dst []int) []int {
	for i := range p.misc {
		if p.misc[i].Alive {
			dst = append(dst, i)
		}
	}
	return dst
}

// Step evaluates every living agent for the given clock and fills the
// move queue. Living indices are cut into at most eng.Chunks() contiguous
// chunks; chunk k gets a private slice of the network array and of the
// move queue, so no two tasks write the same memory. It returns the
// number of queued moves, to be passed to ResolveMoveQueue.
func (p *Population) Step(sim config.Simulation, eng *engine.Engine, clock engine.Clock) int {
	p.living = p.AppendLivingIndices(p.living[:0])
	n := len(p.living)
	if n == 0 {
		return 0
	}

	eng.Reseed(clock)
	p.bounds = engine.ChunkBounds(p.bounds, n, eng.Chunks())
	chunks := len(p.bounds) - 1

	// Chunk k owns nets [living[bounds[k]], living[bounds[k+1]]), with the
	// first range starting at 0 and the last ending at size, so the net
	// ranges cover the whole array.
	p.netBounds = append(p.netBounds[:0], 0)
	for k := 1; k < chunks; k++ {
		p.netBounds = append(p.netBounds, p.living[p.bounds[k]])
	}
	p.netBounds = append(p.netBounds, p.size)

	var err error
	if p.netParts, err = engine.SplitInto(p.netParts, p.nets, p.netBounds); err != nil {
		panic(err)
	}
	if p.moveParts, err = engine.SplitInto(p.moveParts, p.moves[:n], p.bounds); err != nil {
		panic(err)
	}

	tick := clock.Tick()
	p.tasks = p.tasks[:0]
	for k := 0; k < chunks; k++ {
		indices := p.living[p.bounds[k]:p.bounds[k+1]]
		nets := p.netParts[k]
		out := p.moveParts[k]
		lo := p.netBounds[k]

		p.tasks = append(p.tasks, func() {
			for j, i := range indices {
				h, _ := p.heritable.View(i)
				x, y := OneStep(&nets[i-lo], p.movement[i], h.Oscillator, sim, tick, eng.AgentStream(k, i))
				out[j] = Move{Index: i, X: x, Y: y}
			}
		})
	}
	eng.Run(p.tasks)

	return n
}
