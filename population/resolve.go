package population

import (
	"github.com/pthm-cable/evogrid/grid"
)

// MoveStats counts how queued moves were resolved.
type MoveStats struct {
	Stationary int // target was the current cell
	Moved      int // reached the target
	FellBack   int // took an axis-preserving alternative
	Blocked    int // wanted to move, stayed put
}

// ResolveMoveQueue applies the first count queued moves in queue order.
// Each mover vacates its cell, then takes the first free cell of: target,
// (target x, old y), (old x, target y), old cell. Later entries see the
// grid as updated by earlier ones.
func (p *Population) ResolveMoveQueue(count int, g *grid.Grid) MoveStats {
	var stats MoveStats

	for _, mv := range p.moves[:count] {
		i := mv.Index
		if !p.misc[i].Alive {
			continue
		}
		m := &p.movement[i]
		oldX, oldY := m.X, m.Y

		g.Clear(oldX, oldY)

		x, y := mv.X, mv.Y
		switch {
		case free(g, x, y):
		case free(g, x, oldY):
			y = oldY
		case free(g, oldX, y):
			x = oldX
		default:
			x, y = oldX, oldY
		}

		g.Set(x, y, i)

		switch {
		case mv.X == oldX && mv.Y == oldY:
			stats.Stationary++
		case x == mv.X && y == mv.Y:
			stats.Moved++
		case x == oldX && y == oldY:
			stats.Blocked++
		default:
			stats.FellBack++
		}

		if x != oldX || y != oldY {
			if dir, ok := DirectionFromOffset(x-oldX, y-oldY); ok {
				m.LastDir = dir
			}
			m.X, m.Y = x, y
		}
	}
	return stats
}

func free(g *grid.Grid, x, y int) bool {
	_, occupied := g.Occupant(x, y)
	return !occupied
}

// QueueDeath marks agent i to die at the next ResolveDead.
// Dead or already queued agents are ignored.
func (p *Population) QueueDeath(i int) {
	if !p.misc[i].Alive || p.dying[i] {
		return
	}
	p.dying[i] = true
	p.deaths = append(p.deaths, i)
}

// PendingDeaths returns the number of queued deaths.
func (p *Population) PendingDeaths() int {
	return len(p.deaths)
}

// ResolveDead vacates the cells of queued agents, clears their Alive flag
// and empties the queue. It returns the number of agents killed.
func (p *Population) ResolveDead(g *grid.Grid) int {
	killed := 0
	for _, i := range p.deaths {
		p.dying[i] = false
		if !p.misc[i].Alive {
			continue
		}
		m := p.movement[i]
		g.Clear(m.X, m.Y)
		p.misc[i].Alive = false
		killed++
	}
	p.deaths = p.deaths[:0]
	return killed
}
