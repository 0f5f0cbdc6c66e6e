package telemetry

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evogrid/population"
)

// Lineage identifies the clade an agent slot descends from.
type Lineage struct {
	Slot  int
	Clade uint64
	Born  int // generation the slot was last filled
}

// Trail records where an agent started its generation.
type Trail struct {
	StartX, StartY int
}

// LineageTracker follows clades across generations. Each agent slot is
// one entity; clades pass from parent slot to child slot on reproduction
// and a founder starts a new clade.
type LineageTracker struct {
	world    *ecs.World
	mapper   *ecs.Map2[Lineage, Trail]
	filter   *ecs.Filter2[Lineage, Trail]
	entities []ecs.Entity

	prevClades []uint64
	nextClade  uint64
	seen       map[uint64]int
}

// NewLineageTracker registers every slot of pop as a founder.
func NewLineageTracker(pop *population.Population, generation int) *LineageTracker {
	world := ecs.NewWorld()
	lt := &LineageTracker{
		world:      world,
		mapper:     ecs.NewMap2[Lineage, Trail](world),
		filter:     ecs.NewFilter2[Lineage, Trail](world),
		entities:   make([]ecs.Entity, pop.Len()),
		prevClades: make([]uint64, pop.Len()),
		seen:       make(map[uint64]int),
	}

	for i := range lt.entities {
		m := pop.Movement(i)
		lin := Lineage{Slot: i, Clade: lt.newClade(), Born: generation}
		trail := Trail{StartX: m.X, StartY: m.Y}
		lt.entities[i] = lt.mapper.NewEntity(&lin, &trail)
	}
	return lt
}

func (lt *LineageTracker) newClade() uint64 {
	c := lt.nextClade
	lt.nextClade++
	return c
}

// Inherit moves clades to the generation just produced by reproduction.
// Slots without a parent become founders of a new clade.
func (lt *LineageTracker) Inherit(pop *population.Population, generation int) {
	for i, e := range lt.entities {
		lin, _ := lt.mapper.Get(e)
		lt.prevClades[i] = lin.Clade
	}

	for i, e := range lt.entities {
		lin, trail := lt.mapper.Get(e)
		if parent := pop.Parent(i); parent >= 0 {
			lin.Clade = lt.prevClades[parent]
		} else {
			lin.Clade = lt.newClade()
		}
		lin.Born = generation

		m := pop.Movement(i)
		trail.StartX, trail.StartY = m.X, m.Y
	}
}

// Refound makes every slot the founder of a new clade, as after a
// population regeneration or snapshot load.
func (lt *LineageTracker) Refound(pop *population.Population, generation int) {
	for i, e := range lt.entities {
		lin, trail := lt.mapper.Get(e)
		lin.Clade = lt.newClade()
		lin.Born = generation

		m := pop.Movement(i)
		trail.StartX, trail.StartY = m.X, m.Y
	}
}

// Clade returns the clade of slot i.
func (lt *LineageTracker) Clade(i int) uint64 {
	lin, _ := lt.mapper.Get(lt.entities[i])
	return lin.Clade
}

// ActiveClades returns the number of distinct clades among living agents.
func (lt *LineageTracker) ActiveClades(pop *population.Population) int {
	lt.countClades(pop)
	return len(lt.seen)
}

// DominantClade returns the clade with the most living members and its size.
// Ties go to the older clade.
func (lt *LineageTracker) DominantClade(pop *population.Population) (clade uint64, size int) {
	lt.countClades(pop)
	for c, n := range lt.seen {
		if n > size || (n == size && c < clade) {
			clade, size = c, n
		}
	}
	return clade, size
}

func (lt *LineageTracker) countClades(pop *population.Population) {
	clear(lt.seen)
	query := lt.filter.Query()
	for query.Next() {
		lin, _ := query.Get()
		if pop.Alive(lin.Slot) {
			lt.seen[lin.Clade]++
		}
	}
}

// MeanDisplacement returns the mean Euclidean distance living agents have
// travelled from where they started the generation.
func (lt *LineageTracker) MeanDisplacement(pop *population.Population) float64 {
	var sum float64
	n := 0
	query := lt.filter.Query()
	for query.Next() {
		lin, trail := query.Get()
		if !pop.Alive(lin.Slot) {
			continue
		}
		m := pop.Movement(lin.Slot)
		sum += math.Hypot(float64(m.X-trail.StartX), float64(m.Y-trail.StartY))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
