package engine

import (
	"fmt"

	"github.com/pthm-cable/evogrid/config"
)

// RNGMode selects how evaluation random streams are derived.
type RNGMode uint8

const (
	// PerWorker gives each chunk one stream, reseeded every step from
	// (seed, generation, step, chunk). Runs are reproducible for a fixed
	// worker count only, since chunk boundaries move with the count.
	PerWorker RNGMode = iota
	// PerAgent reseeds the stream for every agent from
	// (seed, generation, step, agent index). Runs are reproducible across
	// worker counts at the cost of one reseed per agent per step.
	PerAgent
)

// ParseRNGMode maps a config name to a mode.
func ParseRNGMode(s string) (RNGMode, error) {
	switch s {
	case config.RNGPerWorker, "":
		return PerWorker, nil
	case config.RNGPerAgent:
		return PerAgent, nil
	}
	return 0, fmt.Errorf("%w: unknown rng mode %q", config.ErrInvalid, s)
}

func (m RNGMode) String() string {
	switch m {
	case PerWorker:
		return config.RNGPerWorker
	case PerAgent:
		return config.RNGPerAgent
	}
	return fmt.Sprintf("RNGMode(%d)", uint8(m))
}

// splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// hash4 folds four values into one well-mixed word.
func hash4(a, b, c, d uint64) uint64 {
	h := mix64(a + 0x9e3779b97f4a7c15)
	h = mix64(h ^ b)
	h = mix64(h ^ c)
	return mix64(h ^ d)
}
