package neural

// Net is a fixed-topology network compiled from a genome.
// It is a plain value: copying a Net copies its weights and neuron state.
type Net struct {
	neurons [NumNodes]float32
	weights [NumConnections]float32
}

// Build compiles genome into a Net. Genes that hit the same edge sum.
func Build(genome []Gene) Net {
	var n Net
	n.Rebuild(genome)
	return n
}

// Rebuild recompiles n in place from genome.
func (n *Net) Rebuild(genome []Gene) {
	*n = Net{}
	for _, g := range genome {
		n.weights[g.ConnectionIndex()] += g.Weight()
	}
}

// Weight returns the accumulated weight of the head -> tail edge.
func (n *Net) Weight(head, tail NodeID) float32 {
	return n.weights[mustConnectionIndex(head, tail)]
}

// Prepare clears neuron state and loads the sensor values.
func (n *Net) Prepare(sensors [NumInputs]float32) {
	n.neurons = [NumNodes]float32{}
	copy(n.neurons[:NumInputs], sensors[:])
}

// FeedForward runs one pass in fixed order:
//
//  1. input -> inner, then relu
//  2. input -> output
//  3. inner -> inner from the activated values, then relu again
//  4. inner -> output
//
// There is no iteration to a fixed point; evolved genomes depend on this exact order.
func (n *Net) FeedForward() {
	// input -> inner
	for t := 0; t < NumInner; t++ {
		v := n.neurons[firstInnerNode+t]
		for h := 0; h < NumInputs; h++ {
			v += n.neurons[h] * n.weights[offInputInner+h*NumInner+t]
		}
		n.neurons[firstInnerNode+t] = relu(v)
	}

	// input -> output
	for t := 0; t < NumOutputs; t++ {
		v := n.neurons[firstOutputNode+t]
		for h := 0; h < NumInputs; h++ {
			v += n.neurons[h] * n.weights[offInputOutput+h*NumOutputs+t]
		}
		n.neurons[firstOutputNode+t] = v
	}

	// inner -> inner; updates are visible to later tails in the same pass
	for t := 0; t < NumInner; t++ {
		v := n.neurons[firstInnerNode+t]
		for h := 0; h < NumInner; h++ {
			v += n.neurons[firstInnerNode+h] * n.weights[offInnerInner+h*NumInner+t]
		}
		n.neurons[firstInnerNode+t] = relu(v)
	}

	// inner -> output
	for t := 0; t < NumOutputs; t++ {
		v := n.neurons[firstOutputNode+t]
		for h := 0; h < NumInner; h++ {
			v += n.neurons[firstInnerNode+h] * n.weights[offInnerOutput+h*NumOutputs+t]
		}
		n.neurons[firstOutputNode+t] = v
	}
}

// Outputs returns the raw output neuron values, indexed by output slot.
func (n *Net) Outputs() [NumOutputs]float32 {
	var out [NumOutputs]float32
	copy(out[:], n.neurons[firstOutputNode:])
	return out
}

// Evaluate is Prepare, FeedForward, Outputs in one call.
func (n *Net) Evaluate(sensors [NumInputs]float32) [NumOutputs]float32 {
	n.Prepare(sensors)
	n.FeedForward()
	return n.Outputs()
}

func relu(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return v
}
