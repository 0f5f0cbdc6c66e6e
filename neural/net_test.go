package neural

import (
	"math/rand/v2"
	"testing"
)

func TestConnectionIndexIsBijective(t *testing.T) {
	seen := make(map[int]string)

	for h := NodeID(0); h < NumNodes; h++ {
		for tl := NodeID(0); tl < NumNodes; tl++ {
			idx, ok := ConnectionIndex(h, tl)

			legal := (h.IsInput() || h.IsInner()) && (tl.IsInner() || tl.IsOutput())
			if ok != legal {
				t.Errorf("ConnectionIndex(%s, %s) ok = %v, want %v", h, tl, ok, legal)
				continue
			}
			if !ok {
				continue
			}
			if idx < 0 || idx >= NumConnections {
				t.Errorf("ConnectionIndex(%s, %s) = %d out of [0,%d)", h, tl, idx, NumConnections)
			}
			if prev, dup := seen[idx]; dup {
				t.Errorf("ConnectionIndex(%s, %s) = %d collides with %s", h, tl, idx, prev)
			}
			seen[idx] = h.String() + "->" + tl.String()
		}
	}

	if len(seen) != NumConnections {
		t.Errorf("got %d distinct connections, want %d", len(seen), NumConnections)
	}
	if NumConnections != 91 {
		t.Errorf("NumConnections = %d, want 91", NumConnections)
	}
}

func TestConnectionIndexBlocks(t *testing.T) {
	tests := []struct {
		head, tail NodeID
		want       int
	}{
		{DistX, Inner1, 0},
		{Oscillator, Inner3, 11},
		{DistX, MoveNorth, 12},
		{Oscillator, KillForward, 51},
		{Inner1, Inner1, 52},
		{Inner3, Inner3, 60},
		{Inner1, MoveNorth, 61},
		{Inner3, KillForward, 90},
	}

	for _, tt := range tests {
		got, ok := ConnectionIndex(tt.head, tt.tail)
		if !ok || got != tt.want {
			t.Errorf("ConnectionIndex(%s, %s) = %d,%v, want %d", tt.head, tt.tail, got, ok, tt.want)
		}
	}

	if _, ok := ConnectionIndex(NodeID(NumNodes), Inner1); ok {
		t.Error("invalid node id should not map")
	}
}

func TestNodeLayerSlot(t *testing.T) {
	tests := []struct {
		id    NodeID
		layer Layer
		slot  int
	}{
		{DistX, LayerInput, 0},
		{Oscillator, LayerInput, 3},
		{Inner1, LayerInner, 0},
		{Inner3, LayerInner, 2},
		{MoveNorth, LayerOutput, 0},
		{MoveEast, LayerOutput, 1},
		{KillForward, LayerOutput, 9},
	}

	for _, tt := range tests {
		if tt.id.Layer() != tt.layer || tt.id.Slot() != tt.slot {
			t.Errorf("%s: layer=%s slot=%d, want %s %d", tt.id, tt.id.Layer(), tt.id.Slot(), tt.layer, tt.slot)
		}
	}
	if InnerNode(1) != Inner2 || OutputNode(3) != MoveWest || InputNode(2) != Age {
		t.Error("slot constructors disagree with named ids")
	}
}

func TestBuildAccumulatesWeights(t *testing.T) {
	genome := []Gene{
		MakeGene(DistX, MoveEast, 8191),
		MakeGene(DistX, MoveEast, 8191),
		MakeGene(Age, Inner2, -8191),
	}
	net := Build(genome)

	if w := net.Weight(DistX, MoveEast); w != 2 {
		t.Errorf("DistX->MoveEast weight = %v, want 2", w)
	}
	if w := net.Weight(Age, Inner2); w != -1 {
		t.Errorf("Age->Inner2 weight = %v, want -1", w)
	}
	if w := net.Weight(DistY, MoveEast); w != 0 {
		t.Errorf("unwired edge weight = %v, want 0", w)
	}
}

func TestFeedForwardOrder(t *testing.T) {
	tests := []struct {
		name    string
		genome  []Gene
		sensors [NumInputs]float32
		want    map[NodeID]float32
	}{
		{
			name:    "input to output is linear",
			genome:  []Gene{MakeGene(DistX, MoveSouth, -8191)},
			sensors: [NumInputs]float32{0.5, 0, 0, 0},
			want:    map[NodeID]float32{MoveSouth: -0.5},
		},
		{
			name: "inner relu clamps negative",
			genome: []Gene{
				MakeGene(DistX, Inner3, -8191),
				MakeGene(Inner3, MoveEast, 8191),
			},
			sensors: [NumInputs]float32{0.5, 0, 0, 0},
			want:    map[NodeID]float32{MoveEast: 0},
		},
		{
			name: "inner to inner sees earlier tails",
			genome: []Gene{
				MakeGene(DistX, Inner1, 8191),
				MakeGene(Inner1, Inner2, 8191),
				MakeGene(Inner2, MoveNorth, 8191),
			},
			sensors: [NumInputs]float32{0.5, 0, 0, 0},
			want:    map[NodeID]float32{MoveNorth: 0.5},
		},
		{
			name: "inner to inner reads updated self",
			genome: []Gene{
				MakeGene(DistX, Inner1, 8191),
				MakeGene(Inner1, Inner1, 8191),
				MakeGene(Inner1, MoveWest, 8191),
			},
			// Inner1 = 0.5 after phase 1, then 0.5 + 0.5*1 = 1 after phase 3
			sensors: [NumInputs]float32{0.5, 0, 0, 0},
			want:    map[NodeID]float32{MoveWest: 1},
		},
		{
			name: "earlier tails read phase one values",
			genome: []Gene{
				MakeGene(DistY, Inner2, 8191),
				MakeGene(Inner2, Inner1, 8191),
				MakeGene(Inner1, MoveRandom, 8191),
			},
			// Inner2 is already 0.25 from phase 1 when Inner1 is updated
			sensors: [NumInputs]float32{0, 0.25, 0, 0},
			want:    map[NodeID]float32{MoveRandom: 0.25},
		},
		{
			name: "both paths sum into output",
			genome: []Gene{
				MakeGene(Oscillator, MoveForward, 8191),
				MakeGene(Oscillator, Inner1, 8191),
				MakeGene(Inner1, MoveForward, 8191),
			},
			sensors: [NumInputs]float32{0, 0, 0, 1},
			want:    map[NodeID]float32{MoveForward: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := Build(tt.genome)
			out := net.Evaluate(tt.sensors)

			for id, want := range tt.want {
				if got := out[id.Slot()]; got != want {
					t.Errorf("%s = %v, want %v", id, got, want)
				}
			}
		})
	}
}

func TestPrepareClearsState(t *testing.T) {
	net := Build([]Gene{MakeGene(Age, MoveLeft, 8191)})

	first := net.Evaluate([NumInputs]float32{0, 0, 1, 0})
	second := net.Evaluate([NumInputs]float32{0, 0, 1, 0})

	if first != second {
		t.Errorf("repeated evaluation differs: %v vs %v", first, second)
	}
	if first[MoveLeft.Slot()] != 1 {
		t.Errorf("MoveLeft = %v, want 1", first[MoveLeft.Slot()])
	}
}

func TestNetIsValueType(t *testing.T) {
	a := Build([]Gene{MakeGene(DistX, MoveEast, 8191)})
	b := a
	b.Rebuild([]Gene{MakeGene(DistX, MoveWest, 8191)})

	if a.Weight(DistX, MoveEast) != 1 {
		t.Error("rebuilding a copy changed the original")
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		name   string
		genome []Gene
		want   RGB
	}{
		{"input to inner", []Gene{MakeGene(DistX, Inner1, 1)}, RGB{15, 120, 224}},
		{"input to output", []Gene{MakeGene(Oscillator, MoveEast, 1)}, RGB{83, 152, 96}},
		{"bright folds", []Gene{MakeGene(DistY, Inner2, 1)}, RGB{79, 72, 48}},
		{"empty", nil, RGB{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Color(tt.genome); got != tt.want {
				t.Errorf("Color() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkEvaluate(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 0))
	genome := make([]Gene, 20)
	RandomGenome(rng, genome)
	net := Build(genome)
	sensors := [NumInputs]float32{0.1, -0.3, 0.5, 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		net.Evaluate(sensors)
	}
}
