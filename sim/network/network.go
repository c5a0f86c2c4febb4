// Package network holds the live contact network of a simulation run and the flockwork
// rewiring rules that mutate it.
package network

import (
	"errors"
	"fmt"

	"github.com/google/btree"

	"github.com/flockwork-sim/flockwork-sim/sim"
)

// ErrInvalidEdge is returned when an input edge has an out-of-range endpoint or is a self loop.
var ErrInvalidEdge = errors.New("network: invalid edge")

const neighbourTreeDegree = 8

func lessInt(a, b int) bool { return a < b }

// Network is an undirected simple graph over nodes [0, N).
// Neighbour sets are ordered so that every traversal, and therefore every simulation that
// consumes one, is reproducible.
//
// Thread-safety: NOT thread-safe.
type Network struct {
	adj      []*btree.BTreeG[int]
	numEdges int
}

// New returns an empty network with n nodes. Panics if n < 1.
func New(n int) *Network {
	if n < 1 {
		panic(fmt.Sprintf("network.New: n must be >= 1, got %d", n))
	}
	adj := make([]*btree.BTreeG[int], n)
	for i := range adj {
		adj[i] = btree.NewG(neighbourTreeDegree, lessInt)
	}
	return &Network{adj: adj}
}

// FromEdges builds a network with n nodes from an edge list. Duplicate edges, in either
// orientation, are collapsed.
func FromEdges(n int, edges []sim.Edge) (*Network, error) {
	if n < 1 {
		return nil, fmt.Errorf("network with %d nodes: %w", n, sim.ErrInvalidArgument)
	}
	g := New(n)
	for idx, e := range edges {
		if e.Lo < 0 || e.Hi < 0 || e.Lo >= n || e.Hi >= n {
			return nil, fmt.Errorf("edge[%d] %v outside [0,%d): %w", idx, e, n, ErrInvalidEdge)
		}
		if e.Lo == e.Hi {
			return nil, fmt.Errorf("edge[%d] %v is a self loop: %w", idx, e, ErrInvalidEdge)
		}
		g.AddEdge(e.Lo, e.Hi)
	}
	return g, nil
}

// N returns the number of nodes.
func (g *Network) N() int { return len(g.adj) }

// NumEdges returns the number of undirected edges.
func (g *Network) NumEdges() int { return g.numEdges }

// MeanDegree returns 2m/N.
func (g *Network) MeanDegree() float64 {
	return 2 * float64(g.numEdges) / float64(len(g.adj))
}

// AddEdge inserts {i, j} and reports whether it was new. Self loops are ignored.
func (g *Network) AddEdge(i, j int) bool {
	if i == j {
		return false
	}
	if _, found := g.adj[i].ReplaceOrInsert(j); found {
		return false
	}
	g.adj[j].ReplaceOrInsert(i)
	g.numEdges++
	return true
}

// RemoveEdge deletes {i, j} and reports whether it existed.
func (g *Network) RemoveEdge(i, j int) bool {
	if _, found := g.adj[i].Delete(j); !found {
		return false
	}
	g.adj[j].Delete(i)
	g.numEdges--
	return true
}

// HasEdge reports whether {i, j} is present.
func (g *Network) HasEdge(i, j int) bool {
	return g.adj[i].Has(j)
}

// Degree returns the number of neighbours of i.
func (g *Network) Degree(i int) int { return g.adj[i].Len() }

// VisitNeighbors calls fn for each neighbour of i in ascending order until fn returns false.
// fn must not mutate the network.
func (g *Network) VisitNeighbors(i int, fn func(j int) bool) {
	g.adj[i].Ascend(fn)
}

// Neighbors returns the neighbours of i in ascending order.
func (g *Network) Neighbors(i int) []int {
	out := make([]int, 0, g.adj[i].Len())
	g.adj[i].Ascend(func(j int) bool {
		out = append(out, j)
		return true
	})
	return out
}

// Isolate removes every edge of i and returns its former neighbours in ascending order.
func (g *Network) Isolate(i int) []int {
	former := g.Neighbors(i)
	for _, j := range former {
		g.adj[j].Delete(i)
	}
	g.adj[i].Clear(false)
	g.numEdges -= len(former)
	return former
}

// Edges returns every edge in canonical form, sorted by (Lo, Hi).
func (g *Network) Edges() []sim.Edge {
	out := make([]sim.Edge, 0, g.numEdges)
	for i, nbrs := range g.adj {
		nbrs.AscendGreaterOrEqual(i+1, func(j int) bool {
			out = append(out, sim.Edge{Lo: i, Hi: j})
			return true
		})
	}
	return out
}
