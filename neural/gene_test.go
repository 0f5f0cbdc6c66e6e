package neural

import (
	"math/rand/v2"
	"testing"
)

func TestNewGeneDecode(t *testing.T) {
	tests := []struct {
		name   string
		raw    uint32
		norm   Gene
		head   NodeID
		tail   NodeID
		weight float32
	}{
		{
			name:   "already legal",
			raw:    0x02021234,
			norm:   0x02021234,
			head:   Age,
			tail:   Inner3,
			weight: float32(0x1234) / 8191,
		},
		{
			name:   "head and tail wrap",
			raw:    0x090F1234,
			norm:   0x02021234,
			head:   Age,
			tail:   Inner3,
			weight: float32(0x1234) / 8191,
		},
		{
			name:   "all ones",
			raw:    0xFFFFFFFF,
			norm:   0x0308FFFF,
			head:   Oscillator,
			tail:   MoveForward,
			weight: -1.0 / 8191,
		},
		{
			name:   "most negative weight",
			raw:    0x00038000,
			norm:   0x00038000,
			head:   DistX,
			tail:   MoveNorth,
			weight: -32768.0 / 8191,
		},
		{
			name:   "unit weight",
			raw:    0x06051FFF,
			norm:   0x06051FFF,
			head:   Inner3,
			tail:   MoveSouth,
			weight: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGene(tt.raw)
			if g != tt.norm {
				t.Errorf("NewGene(%08x) = %08x, want %08x", tt.raw, uint32(g), uint32(tt.norm))
			}
			if g.Head() != tt.head {
				t.Errorf("Head() = %s, want %s", g.Head(), tt.head)
			}
			if g.Tail() != tt.tail {
				t.Errorf("Tail() = %s, want %s", g.Tail(), tt.tail)
			}
			if g.Weight() != tt.weight {
				t.Errorf("Weight() = %v, want %v", g.Weight(), tt.weight)
			}
		})
	}
}

func TestRandomGenesAreLegal(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))

	for i := 0; i < 100_000; i++ {
		g := RandomGene(rng)
		if h := g.Head(); !h.IsInput() && !h.IsInner() {
			t.Fatalf("gene %08x has head %s outside input/inner", uint32(g), h)
		}
		if tl := g.Tail(); !tl.IsInner() && !tl.IsOutput() {
			t.Fatalf("gene %08x has tail %s outside inner/output", uint32(g), tl)
		}
		if w := g.Weight(); w < -4.001 || w > 4.001 {
			t.Fatalf("gene %08x has weight %v outside [-4,4]", uint32(g), w)
		}
	}
}

func TestMutateStaysLegal(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))

	for i := 0; i < 10_000; i++ {
		g := RandomGene(rng).Mutate(uint(rng.IntN(32)))
		if NewGene(uint32(g)) != g {
			t.Fatalf("mutated gene %08x is not normalized", uint32(g))
		}
	}
}

func TestMutateFlipsWeightBit(t *testing.T) {
	g := MakeGene(DistX, MoveEast, 0)

	got := g.Mutate(0)
	if got.Weight() != 1.0/8191 {
		t.Errorf("flipping bit 0 gave weight %v, want %v", got.Weight(), 1.0/8191)
	}
	if got.Head() != DistX || got.Tail() != MoveEast {
		t.Errorf("weight mutation changed edge to %s -> %s", got.Head(), got.Tail())
	}

	// bit index is taken mod 32
	if g.Mutate(32) != g.Mutate(0) {
		t.Error("Mutate(32) should equal Mutate(0)")
	}
}

func TestMakeGene(t *testing.T) {
	g := MakeGene(Oscillator, MoveEast, -32768)

	if g.Head() != Oscillator || g.Tail() != MoveEast {
		t.Errorf("MakeGene edge = %s -> %s", g.Head(), g.Tail())
	}
	if g.Weight() != -32768.0/8191 {
		t.Errorf("MakeGene weight = %v", g.Weight())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for output head")
		}
	}()
	MakeGene(MoveEast, Inner1, 1)
}

func TestParseGeneRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 0))

	for i := 0; i < 100; i++ {
		g := RandomGene(rng)
		got, err := ParseGene(g.Hex())
		if err != nil {
			t.Fatalf("ParseGene(%q): %v", g.Hex(), err)
		}
		if got != g {
			t.Fatalf("ParseGene(%q) = %08x, want %08x", g.Hex(), uint32(got), uint32(g))
		}
	}

	if _, err := ParseGene("not-hex"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestGeneString(t *testing.T) {
	g := MakeGene(DistY, MoveWest, 8191)
	if got, want := g.String(), "DistY MoveWest 1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
