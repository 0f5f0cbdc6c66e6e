package neural

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// weightScale maps the signed 16-bit weight field to roughly [-4, 4].
const weightScale = float32(0xFFFF / 8)

// Gene is a packed directed edge.
//
//	bits 24-31  head node (input or inner)
//	bits 16-23  tail node (inner or output), stored relative to the first inner node
//	bits  0-15  signed weight
//
// A Gene built with NewGene is always normalized, so Head and Tail are legal.
type Gene uint32

// NewGene normalizes raw bits into a legal gene.
func NewGene(raw uint32) Gene {
	weight := raw & 0xFFFF
	tail := ((raw >> 16) & 0xFF) % (NumInner + NumOutputs)
	head := ((raw >> 24) & 0xFF) % (NumInputs + NumInner)
	return Gene(head<<24 | tail<<16 | weight)
}

// MakeGene packs an explicit edge. head must be an input or inner node and
// tail an inner or output node; rawWeight is scaled like any other gene.
func MakeGene(head, tail NodeID, rawWeight int16) Gene {
	if _, ok := ConnectionIndex(head, tail); !ok {
		panic("neural: MakeGene with illegal edge " + head.String() + " -> " + tail.String())
	}
	return NewGene(uint32(head)<<24 | uint32(tail-firstInnerNode)<<16 | uint32(uint16(rawWeight)))
}

// RandomGene draws a uniformly random normalized gene.
func RandomGene(rng *rand.Rand) Gene {
	return NewGene(rng.Uint32())
}

// RandomGenome fills dst with random genes.
func RandomGenome(rng *rand.Rand, dst []Gene) {
	for i := range dst {
		dst[i] = RandomGene(rng)
	}
}

// ParseGene parses the 8-digit hex form produced by Hex.
func ParseGene(s string) (Gene, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing gene %q: %w", s, err)
	}
	return NewGene(uint32(v)), nil
}

// Head returns the source node.
func (g Gene) Head() NodeID {
	return NodeID(uint32(g) >> 24)
}

// Tail returns the destination node.
func (g Gene) Tail() NodeID {
	return NodeID(firstInnerNode + (uint32(g)>>16)&0xFF)
}

// Weight returns the scaled edge weight.
func (g Gene) Weight() float32 {
	return float32(int16(uint16(g))) / weightScale
}

// ConnectionIndex returns the weight-table slot this gene feeds.
func (g Gene) ConnectionIndex() int {
	return mustConnectionIndex(g.Head(), g.Tail())
}

// Mutate flips one bit (taken mod 32) and renormalizes.
func (g Gene) Mutate(bit uint) Gene {
	return NewGene(uint32(g) ^ 1<<(bit&31))
}

// Hex returns the raw bits as 8 hex digits.
func (g Gene) Hex() string {
	return fmt.Sprintf("%08x", uint32(g))
}

func (g Gene) String() string {
	return fmt.Sprintf("%s %s %g", g.Head(), g.Tail(), g.Weight())
}
