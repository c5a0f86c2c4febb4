package network

import (
	"fmt"
	"math"

	"github.com/flockwork-sim/flockwork-sim/sim"
)

// ErdosRenyi returns a G(n, p) random graph: each of the n(n-1)/2 pairs is connected
// independently with probability p. Pairs are visited in canonical order, one draw each.
func ErdosRenyi(n int, p float64, src sim.Source) (*Network, error) {
	if n < 1 {
		return nil, fmt.Errorf("random graph with %d nodes: %w", n, sim.ErrInvalidArgument)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("edge probability p=%v outside [0,1]: %w", p, sim.ErrInvalidArgument)
	}
	g := New(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if src.Float64() < p {
				g.AddEdge(i, j)
			}
		}
	}
	return g, nil
}
