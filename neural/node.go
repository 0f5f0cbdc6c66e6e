package neural

import "fmt"

// Layer sizes of the fixed topology.
const (
	NumInputs  = 4
	NumInner   = 3
	NumOutputs = 10
	NumNodes   = NumInputs + NumInner + NumOutputs
)

// NumConnections is the number of legal (head, tail) pairs.
const NumConnections = NumInputs*NumInner + NumInputs*NumOutputs + NumInner*NumInner + NumInner*NumOutputs

// Connection block offsets.
const (
	offInputInner   = 0
	offInputOutput  = offInputInner + NumInputs*NumInner
	offInnerInner   = offInputOutput + NumInputs*NumOutputs
	offInnerOutput  = offInnerInner + NumInner*NumInner
	firstInnerNode  = NumInputs
	firstOutputNode = NumInputs + NumInner
)

// Layer is a neuron role.
type Layer uint8

const (
	LayerInput Layer = iota
	LayerInner
	LayerOutput
)

func (l Layer) String() string {
	switch l {
	case LayerInput:
		return "input"
	case LayerInner:
		return "inner"
	case LayerOutput:
		return "output"
	}
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

// NodeID is a global neuron id: inputs first, then inner, then outputs.
type NodeID uint8

// Input nodes.
const (
	DistX NodeID = iota
	DistY
	Age
	Oscillator
)

// Inner nodes.
const (
	Inner1 NodeID = firstInnerNode + iota
	Inner2
	Inner3
)

// Output nodes.
const (
	MoveNorth NodeID = firstOutputNode + iota
	MoveEast
	MoveSouth
	MoveWest
	MoveRandom
	MoveForward
	MoveRight
	MoveLeft
	MoveReverse
	KillForward
)

var nodeNames = [NumNodes]string{
	"DistX", "DistY", "Age", "Oscillator",
	"Inner1", "Inner2", "Inner3",
	"MoveNorth", "MoveEast", "MoveSouth", "MoveWest", "MoveRandom",
	"MoveForward", "MoveRight", "MoveLeft", "MoveReverse", "KillForward",
}

// InputNode returns the id of input slot s.
func InputNode(s int) NodeID { return NodeID(s) }

// InnerNode returns the id of inner slot s.
func InnerNode(s int) NodeID { return NodeID(firstInnerNode + s) }

// OutputNode returns the id of output slot s.
func OutputNode(s int) NodeID { return NodeID(firstOutputNode + s) }

// Valid reports whether n names a node.
func (n NodeID) Valid() bool { return n < NumNodes }

// Layer returns the node's role. n must be valid.
func (n NodeID) Layer() Layer {
	switch {
	case n < firstInnerNode:
		return LayerInput
	case n < firstOutputNode:
		return LayerInner
	case n < NumNodes:
		return LayerOutput
	}
	panic(fmt.Sprintf("neural: invalid node id %d", uint8(n)))
}

// Slot returns the node's position within its layer.
func (n NodeID) Slot() int {
	switch n.Layer() {
	case LayerInput:
		return int(n)
	case LayerInner:
		return int(n) - firstInnerNode
	default:
		return int(n) - firstOutputNode
	}
}

func (n NodeID) IsInput() bool  { return n < firstInnerNode }
func (n NodeID) IsInner() bool  { return n >= firstInnerNode && n < firstOutputNode }
func (n NodeID) IsOutput() bool { return n >= firstOutputNode && n < NumNodes }

func (n NodeID) String() string {
	if n.Valid() {
		return nodeNames[n]
	}
	return fmt.Sprintf("NodeID(%d)", uint8(n))
}

// ConnectionIndex maps a (head, tail) pair to its slot in the weight table.
// Blocks are laid out input->inner, input->output, inner->inner, inner->output.
// ok is false for pairs that cannot be wired (output heads, input tails).
func ConnectionIndex(head, tail NodeID) (idx int, ok bool) {
	if !head.Valid() || !tail.Valid() {
		return 0, false
	}
	switch head.Layer() {
	case LayerInput:
		switch tail.Layer() {
		case LayerInner:
			return offInputInner + head.Slot()*NumInner + tail.Slot(), true
		case LayerOutput:
			return offInputOutput + head.Slot()*NumOutputs + tail.Slot(), true
		}
	case LayerInner:
		switch tail.Layer() {
		case LayerInner:
			return offInnerInner + head.Slot()*NumInner + tail.Slot(), true
		case LayerOutput:
			return offInnerOutput + head.Slot()*NumOutputs + tail.Slot(), true
		}
	}
	return 0, false
}

func mustConnectionIndex(head, tail NodeID) int {
	idx, ok := ConnectionIndex(head, tail)
	if !ok {
		panic(fmt.Sprintf("neural: no connection %s -> %s", head, tail))
	}
	return idx
}
