package engine

import (
	"errors"
	"fmt"
)

// ErrBadPartition is returned when bounds do not partition a slice.
var ErrBadPartition = errors.New("engine: bounds do not partition slice")

// ChunkBounds appends to dst the boundaries of up to chunks contiguous,
// order-preserving ranges covering [0,n). No range is empty, so fewer
// than chunks ranges are produced when n < chunks. The result always
// starts with 0 and ends with n.
func ChunkBounds(dst []int, n, chunks int) []int {
	dst = append(dst[:0], 0)
	if n <= 0 {
		return dst
	}
	chunks = max(1, min(chunks, n))

	base, rem := n/chunks, n%chunks
	end := 0
	for k := 0; k < chunks; k++ {
		end += base
		if k < rem {
			end++
		}
		dst = append(dst, end)
	}
	return dst
}

// Split cuts s into the disjoint sub-slices [bounds[k], bounds[k+1]).
// bounds must start at 0, end at len(s) and be strictly increasing.
// Each sub-slice has its capacity capped, so appending to one can never
// write into its neighbour.
func Split[T any](s []T, bounds []int) ([][]T, error) {
	return SplitInto(nil, s, bounds)
}

// SplitInto is Split reusing dst's backing array.
func SplitInto[T any](dst [][]T, s []T, bounds []int) ([][]T, error) {
	if err := checkBounds(bounds, len(s)); err != nil {
		return dst[:0], err
	}
	dst = dst[:0]
	for k := 0; k+1 < len(bounds); k++ {
		a, b := bounds[k], bounds[k+1]
		dst = append(dst, s[a:b:b])
	}
	return dst, nil
}

func checkBounds(bounds []int, n int) error {
	if len(bounds) == 0 {
		return fmt.Errorf("%w: no bounds", ErrBadPartition)
	}
	if bounds[0] != 0 {
		return fmt.Errorf("%w: first bound %d, want 0", ErrBadPartition, bounds[0])
	}
	if last := bounds[len(bounds)-1]; last != n {
		return fmt.Errorf("%w: last bound %d, want %d", ErrBadPartition, last, n)
	}
	for k := 1; k < len(bounds); k++ {
		if bounds[k] <= bounds[k-1] {
			return fmt.Errorf("%w: bounds[%d]=%d not after bounds[%d]=%d",
				ErrBadPartition, k, bounds[k], k-1, bounds[k-1])
		}
	}
	return nil
}
