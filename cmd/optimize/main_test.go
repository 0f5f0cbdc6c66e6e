package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEvalLogKeepsBest(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	l := &evalLog{f: f}

	evals := []struct {
		fitness float64
		x       []float64
	}{
		{-0.2, []float64{1, 16, 100}},
		{-0.9, []float64{2, 24, 200}},
		{-0.5, []float64{3, 32, 300}},
	}
	for i, e := range evals {
		if err := l.add(EvalRecord{Eval: i + 1, Fitness: e.fitness}, e.x); err != nil {
			t.Fatal(err)
		}
	}

	if l.best.Eval != 2 || l.bestX[0] != 2 {
		t.Errorf("best = %+v %v, want eval 2", *l.best, l.bestX)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "eval,fitness,") {
		t.Errorf("header = %q", lines[0])
	}
}
