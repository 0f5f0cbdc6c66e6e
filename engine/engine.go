// Package engine provides the step engine primitives: a persistent worker
// pool, a checked disjoint slice split, the simulation clock and the
// per-chunk random streams used during parallel evaluation.
package engine

import (
	"math/rand/v2"
)

const agentStreamTag = 0x6a09e667f3bcc908

// Engine couples a Pool with one random stream per chunk.
// Stream k belongs to chunk k for the duration of one Run; no two chunks
// share a stream.
type Engine struct {
	pool    *Pool
	seed    uint64
	mode    RNGMode
	clock   Clock
	sources []*rand.PCG
	streams []*rand.Rand
}

// New creates an engine with the given worker count (see NewPool), seed and RNG mode.
func New(workers int, seed uint64, mode RNGMode) *Engine {
	pool := NewPool(workers)
	n := pool.Chunks()

	e := &Engine{
		pool:    pool,
		seed:    seed,
		mode:    mode,
		sources: make([]*rand.PCG, n),
		streams: make([]*rand.Rand, n),
	}
	for k := range n {
		e.sources[k] = rand.NewPCG(seed, uint64(k))
		e.streams[k] = rand.New(e.sources[k])
	}
	return e
}

// Chunks returns how many chunks a step is split into at most.
func (e *Engine) Chunks() int { return len(e.streams) }

// Workers returns the number of background workers.
func (e *Engine) Workers() int { return e.pool.Workers() }

// Mode returns the RNG mode.
func (e *Engine) Mode() RNGMode { return e.mode }

// Seed returns the base seed.
func (e *Engine) Seed() uint64 { return e.seed }

// Reseed positions every chunk stream for the given step.
// It must be called before each parallel evaluation.
func (e *Engine) Reseed(c Clock) {
	e.clock = c
	if e.mode != PerWorker {
		return
	}
	for k, src := range e.sources {
		src.Seed(e.seed, hash4(e.seed, uint64(c.Generation), uint64(c.Step), uint64(k)))
	}
}

// AgentStream returns the stream chunk k should use for one agent. In
// PerWorker mode this is chunk k's stream regardless of agent. In PerAgent mode the stream is first reseeded from the agent index,
// so the draws an agent sees do not depend on which chunk it lands in.
func (e *Engine) AgentStream(k, agent int) *rand.Rand {
	if e.mode == PerAgent {
		c := e.clock
		e.sources[k].Seed(e.seed^agentStreamTag, hash4(e.seed, uint64(c.Generation), uint64(c.Step), uint64(agent)))
	}
	return e.streams[k]
}

// Run executes tasks on the pool and waits for all of them.
func (e *Engine) Run(tasks []func()) {
	e.pool.Run(tasks)
}

// Close stops the pool's workers.
func (e *Engine) Close() {
	e.pool.Close()
}
