package population

import (
	"fmt"
	"math/rand/v2"
)

// Direction is one of the eight compass headings, clockwise from North.
// North is +y.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	numDirections
)

var directionOffsets = [numDirections][2]int{
	North:     {0, 1},
	NorthEast: {1, 1},
	East:      {1, 0},
	SouthEast: {1, -1},
	South:     {0, -1},
	SouthWest: {-1, -1},
	West:      {-1, 0},
	NorthWest: {-1, 1},
}

var directionNames = [numDirections]string{
	"North", "NorthEast", "East", "SouthEast", "South", "SouthWest", "West", "NorthWest",
}

// RandomDirection draws a uniform heading.
func RandomDirection(rng *rand.Rand) Direction {
	return Direction(rng.IntN(int(numDirections)))
}

// DirectionFromOffset maps a unit step to its heading.
// ok is false for (0,0) and anything outside [-1,1] on either axis.
func DirectionFromOffset(dx, dy int) (Direction, bool) {
	for i, off := range directionOffsets {
		if off[0] == dx && off[1] == dy {
			return Direction(i), true
		}
	}
	return 0, false
}

// Offset returns the unit step for d.
func (d Direction) Offset() (dx, dy int) {
	off := directionOffsets[d%numDirections]
	return off[0], off[1]
}

func (d Direction) RotateCW90() Direction  { return (d + 2) % numDirections }
func (d Direction) RotateCCW90() Direction { return (d + 6) % numDirections }
func (d Direction) Rotate180() Direction   { return (d + 4) % numDirections }

func (d Direction) String() string {
	if d < numDirections {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

func (d Direction) offsetf() (float32, float32) {
	dx, dy := d.Offset()
	return float32(dx), float32(dy)
}
