package population

import (
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/evogrid/neural"
)

func TestDirectionRotations(t *testing.T) {
	tests := []struct {
		d             Direction
		cw, ccw, flip Direction
	}{
		{North, East, West, South},
		{NorthEast, SouthEast, NorthWest, SouthWest},
		{East, South, North, West},
		{SouthEast, SouthWest, NorthEast, NorthWest},
		{South, West, East, North},
		{SouthWest, NorthWest, SouthEast, NorthEast},
		{West, North, South, East},
		{NorthWest, NorthEast, SouthWest, SouthEast},
	}

	for _, tt := range tests {
		if got := tt.d.RotateCW90(); got != tt.cw {
			t.Errorf("%s.RotateCW90() = %s, want %s", tt.d, got, tt.cw)
		}
		if got := tt.d.RotateCCW90(); got != tt.ccw {
			t.Errorf("%s.RotateCCW90() = %s, want %s", tt.d, got, tt.ccw)
		}
		if got := tt.d.Rotate180(); got != tt.flip {
			t.Errorf("%s.Rotate180() = %s, want %s", tt.d, got, tt.flip)
		}
	}
}

func TestDirectionFromOffset(t *testing.T) {
	for d := North; d < numDirections; d++ {
		dx, dy := d.Offset()
		got, ok := DirectionFromOffset(dx, dy)
		if !ok || got != d {
			t.Errorf("DirectionFromOffset(%d,%d) = %s,%v, want %s", dx, dy, got, ok, d)
		}
	}

	for _, off := range [][2]int{{0, 0}, {2, 0}, {-1, 3}} {
		if _, ok := DirectionFromOffset(off[0], off[1]); ok {
			t.Errorf("DirectionFromOffset(%d,%d) should fail", off[0], off[1])
		}
	}
}

func TestOscillatorWave(t *testing.T) {
	tests := []struct {
		step   int
		period uint32
		want   float32
	}{
		{0, 3, -1},
		{2, 3, -1},
		{3, 3, 1},
		{5, 3, 1},
		{6, 3, -1},
		{0, 1, -1},
		{1, 1, 1},
		{7, 0, 1},
		{1, 0, 1},
	}

	for _, tt := range tests {
		if got := oscillatorWave(tt.step, tt.period); got != tt.want {
			t.Errorf("oscillatorWave(%d, %d) = %v, want %v", tt.step, tt.period, got, tt.want)
		}
	}
}

func TestSensors(t *testing.T) {
	sim := testSim(10, 20, 1, 1, 100)
	s := Sensors(Movement{X: 5, Y: 15}, 5, sim, 25)

	want := [neural.NumInputs]float32{0, 0.5, 0.25, 1}
	if s != want {
		t.Errorf("Sensors() = %v, want %v", s, want)
	}

	edge := Sensors(Movement{X: 0, Y: 0}, 0, sim, 1)
	if edge[neural.DistX] != -1 || edge[neural.DistY] != -1 || edge[neural.Age] != 0.01 || edge[neural.Oscillator] != 1 {
		t.Errorf("corner sensors = %v", edge)
	}

	last := Sensors(Movement{X: 0, Y: 0}, 0, sim, sim.StepsPerGeneration)
	if last[neural.Age] != 1 {
		t.Errorf("age on the last tick = %v, want 1", last[neural.Age])
	}
}

func TestOneStepClampsAtEdges(t *testing.T) {
	sim := testSim(4, 4, 1, 4, 10)
	rng := rand.New(rand.NewPCG(1, 1))

	east := neural.Build(eastGenome(4))
	for i := 0; i < 20; i++ {
		x, y := OneStep(&east, Movement{X: 3, Y: 2}, 0, sim, i%10, rng)
		if x != 3 || y != 2 {
			t.Fatalf("east mover left the grid: (%d,%d)", x, y)
		}
	}

	west := make([]neural.Gene, 4)
	for i := range west {
		west[i] = neural.MakeGene(neural.Oscillator, neural.MoveWest, 32767)
	}
	westNet := neural.Build(west)
	for i := 0; i < 20; i++ {
		x, _ := OneStep(&westNet, Movement{X: 0, Y: 2}, 0, sim, i%10, rng)
		if x != 0 {
			t.Fatalf("west mover went below zero: %d", x)
		}
	}
}

func TestOneStepForwardFollowsHeading(t *testing.T) {
	sim := testSim(9, 9, 1, 4, 10)
	rng := rand.New(rand.NewPCG(2, 2))

	genome := make([]neural.Gene, 4)
	for i := range genome {
		genome[i] = neural.MakeGene(neural.Oscillator, neural.MoveForward, 32767)
	}
	net := neural.Build(genome)

	tests := []struct {
		dir    Direction
		wx, wy int
	}{
		{North, 4, 5},
		{SouthWest, 3, 3},
		{East, 5, 4},
	}
	for _, tt := range tests {
		x, y := OneStep(&net, Movement{X: 4, Y: 4, LastDir: tt.dir}, 0, sim, 0, rng)
		if x != tt.wx || y != tt.wy {
			t.Errorf("forward from %s = (%d,%d), want (%d,%d)", tt.dir, x, y, tt.wx, tt.wy)
		}
	}
}

func TestOneStepIdleGenomeStays(t *testing.T) {
	sim := testSim(9, 9, 1, 1, 10)
	rng := rand.New(rand.NewPCG(3, 3))

	// A single input->inner edge never reaches an output.
	net := neural.Build([]neural.Gene{neural.MakeGene(neural.DistX, neural.Inner1, 8191)})
	for i := 0; i < 50; i++ {
		x, y := OneStep(&net, Movement{X: 4, Y: 4}, 3, sim, i%10, rng)
		if x != 4 || y != 4 {
			t.Fatalf("idle agent moved to (%d,%d)", x, y)
		}
	}
}
