// Package arena stores fixed-capacity records of a header plus a fixed-length
// footer in two contiguous backing slices, with no per-record allocation.
//
// Arenas are built in two phases: Reserve hands out a Builder whose every slot
// must be written before Finalize returns the usable Arena. Reads of unwritten
// slots panic unless the package is built with the arena_nocheck tag.
package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrUnwritten is returned by Finalize when a slot was never written.
	ErrUnwritten = errors.New("arena: slot never written")
	// ErrShape is returned by Swap when the arenas differ in capacity or footer length.
	ErrShape = errors.New("arena: shape mismatch")
)

// Arena holds Len records of one H and FooterLen F values each.
type Arena[H, F any] struct {
	headers   []H
	footers   []F
	written   []bool
	footerLen int
}

// Builder is the write-only first phase of an Arena.
type Builder[H, F any] struct {
	a *Arena[H, F]
}

func newArena[H, F any](capacity, footerLen int) *Arena[H, F] {
	if capacity < 0 || footerLen < 0 {
		panic(fmt.Sprintf("arena: invalid shape %d x %d", capacity, footerLen))
	}
	return &Arena[H, F]{
		headers:   make([]H, capacity),
		footers:   make([]F, capacity*footerLen),
		written:   make([]bool, capacity),
		footerLen: footerLen,
	}
}

// Reserve allocates storage for capacity records and returns a Builder over it.
func Reserve[H, F any](capacity, footerLen int) *Builder[H, F] {
	return &Builder[H, F]{a: newArena[H, F](capacity, footerLen)}
}

// NewScratch returns an arena with every slot unwritten.
// It is meant as the other half of a Swap, not to be read before it is filled.
func NewScratch[H, F any](capacity, footerLen int) *Arena[H, F] {
	return newArena[H, F](capacity, footerLen)
}

// Write returns slot i for writing and marks it written.
func (b *Builder[H, F]) Write(i int) (*H, []F) {
	return b.a.Overwrite(i)
}

// Len returns the builder's capacity.
func (b *Builder[H, F]) Len() int {
	return b.a.Len()
}

// Finalize checks every slot was written and returns the arena.
// The builder must not be used afterwards.
func (b *Builder[H, F]) Finalize() (*Arena[H, F], error) {
	for i, ok := range b.a.written {
		if !ok {
			return nil, fmt.Errorf("%w: slot %d of %d", ErrUnwritten, i, len(b.a.written))
		}
	}
	a := b.a
	b.a = nil
	return a, nil
}

// Len returns the number of records.
func (a *Arena[H, F]) Len() int {
	return len(a.headers)
}

// FooterLen returns the per-record footer length.
func (a *Arena[H, F]) FooterLen() int {
	return a.footerLen
}

// Written reports whether slot i has been written.
func (a *Arena[H, F]) Written(i int) bool {
	return a.written[i]
}

// View returns slot i. Callers must treat it as read-only.
func (a *Arena[H, F]) View(i int) (*H, []F) {
	if checked && !a.written[i] {
		panic(fmt.Sprintf("arena: read of unwritten slot %d", i))
	}
	return &a.headers[i], a.footer(i)
}

// Overwrite returns slot i for writing and marks it written.
func (a *Arena[H, F]) Overwrite(i int) (*H, []F) {
	a.written[i] = true
	return &a.headers[i], a.footer(i)
}

// Swap exchanges backing storage with other in O(1).
func (a *Arena[H, F]) Swap(other *Arena[H, F]) error {
	if a.Len() != other.Len() || a.footerLen != other.footerLen {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShape, a.Len(), a.footerLen, other.Len(), other.footerLen)
	}
	a.headers, other.headers = other.headers, a.headers
	a.footers, other.footers = other.footers, a.footers
	a.written, other.written = other.written, a.written
	return nil
}

// Reset marks every slot unwritten so it must be overwritten before the
// next View. Stored values are left in place.
func (a *Arena[H, F]) Reset() {
	clear(a.written)
}

func (a *Arena[H, F]) footer(i int) []F {
	start := i * a.footerLen
	end := start + a.footerLen
	return a.footers[start:end:end]
}
