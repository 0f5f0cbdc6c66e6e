package population

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/neural"
)

// Movement is an agent's position and last heading.
type Movement struct {
	X, Y    int
	LastDir Direction
}

// Heritable is the fixed part of an agent's inherited data.
// The genome is stored alongside it in the arena.
type Heritable struct {
	Oscillator uint32 // always < steps per generation
}

// Misc holds display and status data.
type Misc struct {
	Color neural.RGB
	Alive bool
}

// Move is a proposed destination for one agent.
type Move struct {
	Index int
	X, Y  int
}

// Sensors returns the network inputs for an agent at tick of the generation,
// where tick runs from 1 to StepsPerGeneration.
func Sensors(m Movement, oscillator uint32, sim config.Simulation, tick int) [neural.NumInputs]float32 {
	var s [neural.NumInputs]float32
	s[neural.DistX] = float32(2*m.X)/float32(sim.GridWidth) - 1
	s[neural.DistY] = float32(2*m.Y)/float32(sim.GridHeight) - 1
	s[neural.Age] = float32(tick) / float32(sim.StepsPerGeneration)
	s[neural.Oscillator] = oscillatorWave(tick, oscillator)
	return s
}

// oscillatorWave is a square wave flipping every period ticks, -1 while
// tick/period is even. A zero period holds at +1.
func oscillatorWave(tick int, period uint32) float32 {
	if period == 0 {
		return 1
	}
	return float32((uint32(tick)/period)%2)*2 - 1
}

// OneStep evaluates net for one agent at tick and returns the proposed
// destination. It draws exactly one direction and two floats from rng.
func OneStep(net *neural.Net, m Movement, oscillator uint32, sim config.Simulation, tick int, rng *rand.Rand) (x, y int) {
	out := net.Evaluate(Sensors(m, oscillator, sim, tick))

	randX, randY := RandomDirection(rng).offsetf()
	fwdX, fwdY := m.LastDir.offsetf()
	revX, revY := m.LastDir.Rotate180().offsetf()
	leftX, leftY := m.LastDir.RotateCCW90().offsetf()
	rightX, rightY := m.LastDir.RotateCW90().offsetf()

	o := func(id neural.NodeID) float32 { return out[id.Slot()] }

	probX := o(neural.MoveEast) - o(neural.MoveWest) +
		o(neural.MoveRandom)*randX +
		o(neural.MoveForward)*fwdX +
		o(neural.MoveReverse)*revX +
		o(neural.MoveLeft)*leftX +
		o(neural.MoveRight)*rightX

	probY := o(neural.MoveNorth) - o(neural.MoveSouth) +
		o(neural.MoveRandom)*randY +
		o(neural.MoveForward)*fwdY +
		o(neural.MoveReverse)*revY +
		o(neural.MoveLeft)*leftY +
		o(neural.MoveRight)*rightY

	probX = float32(math.Tanh(float64(probX)))
	probY = float32(math.Tanh(float64(probY)))

	x, y = m.X, m.Y
	if rng.Float32() < abs32(probX) {
		x = stepAxis(x, probX, sim.GridWidth)
	}
	if rng.Float32() < abs32(probY) {
		y = stepAxis(y, probY, sim.GridHeight)
	}
	return x, y
}

// stepAxis moves v one cell in the sign of prob, clamped to [0, size).
func stepAxis(v int, prob float32, size int) int {
	if prob > 0 {
		return min(v+1, size-1)
	}
	return max(v-1, 0)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
