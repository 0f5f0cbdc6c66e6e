package engine

import (
	"errors"
	"slices"
	"sync/atomic"
	"testing"
)

func TestPoolRunsEveryTask(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		tasks   int
	}{
		{"default workers", 0, 5},
		{"single worker", 1, 5},
		{"fewer tasks than workers", 4, 2},
		{"one per slot", 3, 4},
		{"more tasks than slots", 2, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.workers)
			defer p.Close()

			for round := 0; round < 3; round++ {
				var ran atomic.Int64
				hits := make([]int, tt.tasks)
				tasks := make([]func(), tt.tasks)
				for i := range tasks {
					tasks[i] = func() {
						hits[i]++
						ran.Add(1)
					}
				}
				p.Run(tasks)

				if got := ran.Load(); got != int64(tt.tasks) {
					t.Fatalf("round %d: %d tasks ran, want %d", round, got, tt.tasks)
				}
				for i, h := range hits {
					if h != 1 {
						t.Errorf("round %d: task %d ran %d times", round, i, h)
					}
				}
			}
		})
	}
}

func TestPoolCloseIdempotent(t *testing.T) {
	p := NewPool(2)
	p.Run([]func(){func() {}, func() {}, func() {}})
	p.Close()
	p.Close()

	// Restarts on demand after Close.
	var ran atomic.Int64
	p.Run([]func(){func() { ran.Add(1) }, func() { ran.Add(1) }})
	p.Close()
	if ran.Load() != 2 {
		t.Errorf("ran %d tasks after restart, want 2", ran.Load())
	}
}

func TestChunkBounds(t *testing.T) {
	tests := []struct {
		n, chunks int
		want      []int
	}{
		{0, 4, []int{0}},
		{1, 4, []int{0, 1}},
		{3, 4, []int{0, 1, 2, 3}},
		{8, 4, []int{0, 2, 4, 6, 8}},
		{10, 4, []int{0, 3, 6, 8, 10}},
		{10, 1, []int{0, 10}},
		{5, 0, []int{0, 5}},
	}

	for _, tt := range tests {
		got := ChunkBounds(nil, tt.n, tt.chunks)
		if !slices.Equal(got, tt.want) {
			t.Errorf("ChunkBounds(%d, %d) = %v, want %v", tt.n, tt.chunks, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	s := []int{0, 1, 2, 3, 4, 5, 6}

	parts, err := Split(s, []int{0, 2, 3, 7})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	want := [][]int{{0, 1}, {2}, {3, 4, 5, 6}}
	if len(parts) != len(want) {
		t.Fatalf("got %d parts, want %d", len(parts), len(want))
	}
	for k := range want {
		if !slices.Equal(parts[k], want[k]) {
			t.Errorf("part %d = %v, want %v", k, parts[k], want[k])
		}
		if cap(parts[k]) != len(parts[k]) {
			t.Errorf("part %d cap %d exceeds len %d", k, cap(parts[k]), len(parts[k]))
		}
	}

	// Writes through a part land in the parent slice.
	parts[1][0] = 42
	if s[2] != 42 {
		t.Error("part does not alias parent")
	}

	// Appending to a part cannot clobber its neighbour.
	_ = append(parts[0], 99)
	if s[2] != 42 {
		t.Error("append on part 0 overwrote part 1")
	}
}

func TestSplitRejectsBadBounds(t *testing.T) {
	s := make([]byte, 6)

	tests := []struct {
		name   string
		bounds []int
	}{
		{"empty", nil},
		{"not from zero", []int{1, 6}},
		{"short of end", []int{0, 3, 5}},
		{"past end", []int{0, 3, 7}},
		{"overlap", []int{0, 4, 3, 6}},
		{"empty chunk", []int{0, 3, 3, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Split(s, tt.bounds); !errors.Is(err, ErrBadPartition) {
				t.Errorf("expected ErrBadPartition, got %v", err)
			}
		})
	}
}

func TestSplitChunkBoundsAgree(t *testing.T) {
	for n := 0; n < 40; n++ {
		for chunks := 1; chunks < 9; chunks++ {
			s := make([]int, n)
			bounds := ChunkBounds(nil, n, chunks)
			parts, err := Split(s, bounds)
			if err != nil {
				t.Fatalf("n=%d chunks=%d: %v", n, chunks, err)
			}
			total := 0
			for _, p := range parts {
				total += len(p)
			}
			if total != n {
				t.Fatalf("n=%d chunks=%d: parts cover %d", n, chunks, total)
			}
		}
	}
}

func TestClock(t *testing.T) {
	if got := (Clock{}).Tick(); got != 1 {
		t.Errorf("first Tick() = %d, want 1", got)
	}

	c := Clock{Generation: 2, Step: 8}

	c = c.Next()
	if c.Tick() != 10 {
		t.Errorf("Tick() at step 9 = %d, want 10", c.Tick())
	}
	if c.Step != 9 || c.Generation != 2 {
		t.Errorf("Next() = %v", c)
	}
	if c.EndOfGeneration(10) {
		t.Error("step 9 of 10 should not end the generation")
	}
	c = c.Next()
	if !c.EndOfGeneration(10) {
		t.Error("step 10 of 10 should end the generation")
	}
	c = c.NextGeneration()
	if c != (Clock{Generation: 3}) {
		t.Errorf("NextGeneration() = %v", c)
	}
}

func draws(e *Engine, k, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = e.AgentStream(k, i).Uint64()
	}
	return out
}

func TestPerWorkerStreamsReproducible(t *testing.T) {
	a := New(0, 99, PerWorker)
	b := New(0, 99, PerWorker)
	clock := Clock{Generation: 1, Step: 5}

	a.Reseed(clock)
	b.Reseed(clock)
	if !slices.Equal(draws(a, 0, 8), draws(b, 0, 8)) {
		t.Error("same seed and clock gave different draws")
	}

	a.Reseed(clock)
	first := draws(a, 0, 8)
	a.Reseed(clock)
	again := draws(a, 0, 8)
	if !slices.Equal(first, again) {
		t.Error("reseeding with the same clock did not replay the stream")
	}

	b.Reseed(clock.Next())
	next := draws(b, 0, 8)
	if slices.Equal(again, next) {
		t.Error("different steps gave identical draws")
	}
}

func TestPerAgentStreamIgnoresChunk(t *testing.T) {
	e := New(3, 7, PerAgent)
	defer e.Close()
	if e.Mode() != PerAgent {
		t.Fatalf("Mode() = %s", e.Mode())
	}
	e.Reseed(Clock{Generation: 4, Step: 2})

	fromChunk0 := e.AgentStream(0, 11).Uint64()
	fromChunk3 := e.AgentStream(3, 11).Uint64()
	if fromChunk0 != fromChunk3 {
		t.Error("agent draws depend on chunk")
	}

	other := e.AgentStream(0, 12).Uint64()
	if other == fromChunk0 {
		t.Error("different agents drew the same value")
	}
}

func TestParseRNGMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RNGMode
		wantErr bool
	}{
		{"per_worker", PerWorker, false},
		{"", PerWorker, false},
		{"per_agent", PerAgent, false},
		{"thread_local", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseRNGMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRNGMode(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRNGMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && got.String() != tt.in && tt.in != "" {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
