package population

import (
	"fmt"

	"github.com/pthm-cable/evogrid/config"
)

// DeathPolicy queues deaths via Population.QueueDeath. It runs once per
// step, after moves, with the step's tick in [1, StepsPerGeneration].
type DeathPolicy interface {
	Apply(sim config.Simulation, tick int, p *Population)
}

// ReproducerPolicy picks the agents that found the next generation.
type ReproducerPolicy interface {
	Select(sim config.Simulation, p *Population) []int
}

// DeathPolicyFunc adapts a function to DeathPolicy.
type DeathPolicyFunc func(sim config.Simulation, tick int, p *Population)

func (f DeathPolicyFunc) Apply(sim config.Simulation, tick int, p *Population) { f(sim, tick, p) }

// ReproducerPolicyFunc adapts a function to ReproducerPolicy.
type ReproducerPolicyFunc func(sim config.Simulation, p *Population) []int

func (f ReproducerPolicyFunc) Select(sim config.Simulation, p *Population) []int { return f(sim, p) }

// Policy names accepted by the constructors below.
const (
	PolicyBands = "bands"
	PolicyNone  = "none"
	PolicyAlive = "alive"
)

// inOuterBand reports whether column x lies left of w/4 or right of 3w/4.
func inOuterBand(x, w int) bool {
	return x < w/4 || x > 3*w/4
}

// inCentralBand reports whether column x lies strictly between w/4 and 3w/4.
func inCentralBand(x, w int) bool {
	return x > w/4 && x < 3*w/4
}

// BandDeaths kills by column band at three ticks of the generation:
// the outer bands at 1/4 and 3/4 of the steps, the central band at 1/2.
// Agents sitting exactly on a band edge survive the central cull.
type BandDeaths struct{}

func (BandDeaths) Apply(sim config.Simulation, tick int, p *Population) {
	spg := sim.StepsPerGeneration

	var kill func(x, w int) bool
	switch tick {
	case spg / 4:
		kill = inOuterBand
	case spg / 2:
		kill = inCentralBand
	case 3 * spg / 4:
		kill = inOuterBand
	default:
		return
	}

	for i := range p.misc {
		if p.misc[i].Alive && kill(p.movement[i].X, sim.GridWidth) {
			p.QueueDeath(i)
		}
	}
}

// NoDeaths never kills.
type NoDeaths struct{}

func (NoDeaths) Apply(config.Simulation, int, *Population) {}

// BandReproducers selects living agents in the outer bands.
type BandReproducers struct{}

func (BandReproducers) Select(sim config.Simulation, p *Population) []int {
	var out []int
	for i := range p.misc {
		if p.misc[i].Alive && inOuterBand(p.movement[i].X, sim.GridWidth) {
			out = append(out, i)
		}
	}
	return out
}

// AllAlive selects every living agent.
type AllAlive struct{}

func (AllAlive) Select(_ config.Simulation, p *Population) []int {
	return p.LivingIndices()
}

// DeathPolicyByName returns the named death policy.
func DeathPolicyByName(name string) (DeathPolicy, error) {
	switch name {
	case PolicyBands, "":
		return BandDeaths{}, nil
	case PolicyNone:
		return NoDeaths{}, nil
	}
	return nil, fmt.Errorf("%w: unknown death policy %q", config.ErrInvalid, name)
}

// ReproducerPolicyByName returns the named reproducer policy.
func ReproducerPolicyByName(name string) (ReproducerPolicy, error) {
	switch name {
	case PolicyBands, "":
		return BandReproducers{}, nil
	case PolicyAlive:
		return AllAlive{}, nil
	}
	return nil, fmt.Errorf("%w: unknown reproducer policy %q", config.ErrInvalid, name)
}
