package network

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/flockwork-sim/flockwork-sim/sim"
)

// RewireChange describes the topology mutation of one rewiring event.
// Drivers use it to patch any per-edge bookkeeping without rescanning the network.
type RewireChange struct {
	Node    int   // the rewiring node
	Target  int   // the node whose group Node considered joining
	Joined  bool  // whether the retention draw succeeded
	Removed []int // former neighbours of Node, ascending
	Added   []int // new neighbours of Node
}

// Rewirer applies flockwork rewiring events.
//
// On each event a node i and a distinct target j are drawn. i drops all of its contacts and,
// with probability Q, joins j's group by connecting to j and every neighbour of j.
// With Random set, i instead connects to deg(j)+1 nodes drawn uniformly without replacement,
// keeping the flockwork's edge statistics while destroying its group structure.
type Rewirer struct {
	Q      float64
	Random bool

	scratch []int
}

// NewRewirer validates q and returns a rewirer.
func NewRewirer(q float64, random bool) (*Rewirer, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return nil, fmt.Errorf("rewiring probability Q=%v outside [0,1]: %w", q, sim.ErrInvalidArgument)
	}
	return &Rewirer{Q: q, Random: random}, nil
}

// Rewire applies one event to g. Three draws are taken from src (pair, pair, retention),
// plus k more in random mode when the retention draw succeeds.
func (r *Rewirer) Rewire(g *Network, src sim.Source) (RewireChange, error) {
	pair, err := sim.DrawDistinct(g.N(), src)
	if err != nil {
		return RewireChange{}, fmt.Errorf("rewire: %w", err)
	}
	i, j := pair.First, pair.Second
	change := RewireChange{Node: i, Target: j}
	change.Removed = g.Isolate(i)

	if src.Float64() >= r.Q {
		logrus.Tracef("rewire: node %d isolated (%d contacts dropped)", i, len(change.Removed))
		return change, nil
	}
	change.Joined = true

	if r.Random {
		added, err := r.randomContacts(g, i, g.Degree(j)+1, src)
		if err != nil {
			return RewireChange{}, err
		}
		change.Added = added
	} else {
		change.Added = append(make([]int, 0, g.Degree(j)+1), j)
		g.VisitNeighbors(j, func(u int) bool {
			change.Added = append(change.Added, u)
			return true
		})
	}
	for _, u := range change.Added {
		g.AddEdge(i, u)
	}
	logrus.Tracef("rewire: node %d joined group of %d (-%d/+%d contacts)", i, j, len(change.Removed), len(change.Added))
	return change, nil
}

// randomContacts draws k distinct nodes other than i. Requires k <= N-1, which holds since
// deg(j) <= N-2 once i is isolated.
func (r *Rewirer) randomContacts(g *Network, i, k int, src sim.Source) ([]int, error) {
	n := g.N()
	if cap(r.scratch) < n-1 {
		r.scratch = make([]int, 0, n-1)
	}
	r.scratch = r.scratch[:0]
	for v := 0; v < n; v++ {
		if v != i {
			r.scratch = append(r.scratch, v)
		}
	}
	picked, err := sim.SampleUnique(r.scratch, k, src)
	if err != nil {
		return nil, fmt.Errorf("rewire node %d randomly: %w", i, err)
	}
	return append([]int(nil), picked...), nil
}

// Equilibrate applies steps rewiring events to g, driving it towards the flockwork's
// stationary degree distribution before an epidemic is seeded.
func Equilibrate(g *Network, r *Rewirer, steps int, src sim.Source) error {
	if steps < 0 {
		return fmt.Errorf("equilibrate for %d steps: %w", steps, sim.ErrInvalidArgument)
	}
	for s := 0; s < steps; s++ {
		if _, err := r.Rewire(g, src); err != nil {
			return err
		}
	}
	logrus.Debugf("equilibrated %d nodes for %d steps: m=%d, <k>=%.4f", g.N(), steps, g.NumEdges(), g.MeanDegree())
	return nil
}
