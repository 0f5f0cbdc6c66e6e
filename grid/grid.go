// Package grid provides the cell occupancy map agents live on.
package grid

import (
	"fmt"
	"math/rand/v2"
)

const empty = -1

// Grid maps each cell to at most one agent index.
// Cells are stored row-major; (0,0) is the bottom-left corner.
type Grid struct {
	cells    []int32
	width    int
	height   int
	occupied int
}

// New creates an empty grid of the given dimensions.
func New(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", width, height))
	}
	g := &Grid{
		cells:  make([]int32, width*height),
		width:  width,
		height: height,
	}
	g.Reset()
	return g
}

// Dimensions returns the grid width and height in cells.
func (g *Grid) Dimensions() (width, height int) {
	return g.width, g.height
}

// OccupiedCount returns the number of occupied cells.
func (g *Grid) OccupiedCount() int {
	return g.occupied
}

// Occupant returns the agent index at (x,y), if any.
func (g *Grid) Occupant(x, y int) (int, bool) {
	v := g.cells[g.index(x, y)]
	if v == empty {
		return 0, false
	}
	return int(v), true
}

// Set places agent idx at (x,y). The cell must be empty.
func (g *Grid) Set(x, y, idx int) {
	i := g.index(x, y)
	if g.cells[i] != empty {
		panic(fmt.Sprintf("grid: cell (%d,%d) already holds agent %d", x, y, g.cells[i]))
	}
	g.cells[i] = int32(idx)
	g.occupied++
}

// Clear empties (x,y). Clearing an empty cell is a no-op.
func (g *Grid) Clear(x, y int) {
	i := g.index(x, y)
	if g.cells[i] != empty {
		g.cells[i] = empty
		g.occupied--
	}
}

// Reset empties every cell.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = empty
	}
	g.occupied = 0
}

// FindRandomUnoccupied draws uniform cells until it finds an empty one.
// It does not terminate on a full grid; callers keep population below capacity.
// Expected draws grow as the grid fills.
func (g *Grid) FindRandomUnoccupied(rng *rand.Rand) (x, y int) {
	for {
		x = rng.IntN(g.width)
		y = rng.IntN(g.height)
		if g.cells[y*g.width+x] == empty {
			return x, y
		}
	}
}

// InBounds reports whether (x,y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// InRadius appends the occupants within Euclidean radius r of (x,y) to dst.
// The search window is clipped to the grid; the center cell is included.
func (g *Grid) InRadius(dst []int, x, y int, r float64) []int {
	ri := int(r)
	rSq := r * r

	x0, x1 := max(x-ri, 0), min(x+ri, g.width-1)
	y0, y1 := max(y-ri, 0), min(y+ri, g.height-1)

	for cy := y0; cy <= y1; cy++ {
		dy := float64(cy - y)
		for cx := x0; cx <= x1; cx++ {
			dx := float64(cx - x)
			if dx*dx+dy*dy > rSq {
				continue
			}
			if v := g.cells[cy*g.width+cx]; v != empty {
				dst = append(dst, int(v))
			}
		}
	}
	return dst
}

func (g *Grid) index(x, y int) int {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("grid: (%d,%d) out of bounds %dx%d", x, y, g.width, g.height))
	}
	return y*g.width + x
}
