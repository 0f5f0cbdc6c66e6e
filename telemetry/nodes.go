package telemetry

import (
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/population"
)

// NodeUsage counts, per node, the genes of living agents that touch it.
type NodeUsage [neural.NumNodes]int

// CountNodeUsage tallies the nodes referenced by living agents' genomes.
// A gene counts once for its head and once for its tail; a self-loop on an
// inner node counts once.
func CountNodeUsage(pop *population.Population) NodeUsage {
	var u NodeUsage
	for i := 0; i < pop.Len(); i++ {
		if !pop.Alive(i) {
			continue
		}
		_, genome := pop.Heritable(i)
		for _, g := range genome {
			head, tail := g.Head(), g.Tail()
			u[head]++
			if tail != head {
				u[tail]++
			}
		}
	}
	return u
}

// Used returns how many nodes at least one gene touches.
func (u NodeUsage) Used() int {
	n := 0
	for _, c := range u {
		if c > 0 {
			n++
		}
	}
	return n
}

// NodeUsageCSV is one row of node_usage.csv.
type NodeUsageCSV struct {
	Generation int    `csv:"generation"`
	Node       string `csv:"node"`
	Count      int    `csv:"count"`
}

// Rows flattens u into one record per node.
func (u NodeUsage) Rows(generation int) []NodeUsageCSV {
	rows := make([]NodeUsageCSV, 0, len(u))
	for id, c := range u {
		rows = append(rows, NodeUsageCSV{Generation: generation, Node: neural.NodeID(id).String(), Count: c})
	}
	return rows
}
