package sim

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Edge is an undirected contact between two nodes in canonical form (Lo <= Hi).
// Construct it with NewEdge so that (i, j) and (j, i) compare equal as map keys.
type Edge struct {
	Lo, Hi int
}

// NewEdge returns the canonical edge for the unordered pair {i, j}.
func NewEdge(i, j int) Edge {
	lo, hi := Canonicalize(i, j)
	return Edge{Lo: lo, Hi: hi}
}

// Other returns the endpoint of e that is not v. The result is undefined if v is not an endpoint.
func (e Edge) Other(v int) int {
	if e.Lo == v {
		return e.Hi
	}
	return e.Lo
}

// Less orders edges lexicographically by (Lo, Hi).
func (e Edge) Less(other Edge) bool {
	if e.Lo != other.Lo {
		return e.Lo < other.Lo
	}
	return e.Hi < other.Hi
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)", e.Lo, e.Hi)
}

// Canonicalize returns (min(i,j), max(i,j)). i == j passes through unchanged.
func Canonicalize[T constraints.Integer](i, j T) (T, T) {
	if j < i {
		return j, i
	}
	return i, j
}

// Pair is an ordered pair of distinct node indices.
type Pair struct {
	First, Second int
}

// ChooseDistinct maps two independent uniform draws r1, r2 in [0,1) to an ordered pair of
// distinct indices in [0,n), uniformly over all n*(n-1) ordered pairs.
//
// second is drawn from the n-1 indices that remain after first and shifted past it.
func ChooseDistinct(n int, r1, r2 float64) (Pair, error) {
	if n < 2 {
		return Pair{}, fmt.Errorf("choose distinct pair from %d nodes: %w", n, ErrInvalidArgument)
	}
	if !inUnitInterval(r1) || !inUnitInterval(r2) {
		return Pair{}, fmt.Errorf("choose distinct pair: draws (%v, %v) outside [0,1): %w", r1, r2, ErrInvalidArgument)
	}
	first := int(float64(n) * r1)
	second := int(float64(n-1) * r2)
	// guard against n*r rounding up to n
	if first >= n {
		first = n - 1
	}
	if second >= n-1 {
		second = n - 2
	}
	if second >= first {
		second++
	}
	return Pair{First: first, Second: second}, nil
}

// DrawDistinct takes two draws from src and returns ChooseDistinct of them.
func DrawDistinct(n int, src Source) (Pair, error) {
	if n < 2 {
		return Pair{}, fmt.Errorf("draw distinct pair from %d nodes: %w", n, ErrInvalidArgument)
	}
	r1 := src.Float64()
	r2 := src.Float64()
	return ChooseDistinct(n, r1, r2)
}

func inUnitInterval(r float64) bool {
	return r >= 0 && r < 1
}
