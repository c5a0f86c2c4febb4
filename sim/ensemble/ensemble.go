// Package ensemble runs independent replicas of an epidemic simulation in parallel and
// reduces them to equilibrium statistics.
package ensemble

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/flockwork-sim/flockwork-sim/sim"
	"github.com/flockwork-sim/flockwork-sim/sim/epidemic"
	"github.com/flockwork-sim/flockwork-sim/sim/trace"
)

// Spec describes an ensemble.
type Spec struct {
	Config       epidemic.Config
	Edges        []sim.Edge
	Replicas     int
	Parallelism  int     // <= 0 uses GOMAXPROCS
	TEquilibrate float64 // time discarded before averaging
	TMeasure     float64 // averaging window after TEquilibrate; 0 averages to each replica's end

	// Now resolves Config.Seed == 0; nil uses time.Now.
	Now func() time.Time
}

// Replica is the outcome of one run.
type Replica struct {
	ID          int               `json:"id"`
	Result      *epidemic.Result  `json:"result"`
	Equilibrium trace.Equilibrium `json:"equilibrium"`
}

// Summary holds all replicas in ID order plus the ensemble mean and standard deviation of i_inf.
type Summary struct {
	MasterSeed int64     `json:"master_seed"`
	Replicas   []Replica `json:"replicas"`
	MeanIInf   float64   `json:"mean_i_inf"`
	StdIInf    float64   `json:"std_i_inf"`
	MeanR0     float64   `json:"mean_r0"`
}

// Run executes spec.Replicas runs. opts apply to every replica and must not set the seed.
// Replica i is seeded from the master seed and its index
// alone, so the summary does not depend on Parallelism or scheduling.
func Run(ctx context.Context, spec Spec, opts ...epidemic.Option) (*Summary, error) {
	if spec.Replicas < 1 {
		return nil, fmt.Errorf("ensemble of %d replicas: %w", spec.Replicas, sim.ErrInvalidArgument)
	}
	if spec.TEquilibrate < 0 || spec.TMeasure < 0 {
		return nil, fmt.Errorf("negative averaging window (%v, %v): %w", spec.TEquilibrate, spec.TMeasure, sim.ErrInvalidArgument)
	}
	if err := spec.Config.Validate(); err != nil {
		return nil, fmt.Errorf("ensemble config: %w", err)
	}

	now := spec.Now
	if now == nil {
		now = time.Now
	}
	master := sim.NewPartitionedRNG(sim.ResolveSeed(spec.Config.Seed, now))
	seeds := make([]int64, spec.Replicas)
	for i := range seeds {
		seeds[i] = replicaSeed(master, i)
	}

	limit := spec.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	logrus.Infof("Running %d %s replicas (parallelism %d, master seed %d)",
		spec.Replicas, spec.Config.Model, limit, master.Key())

	replicas := make([]Replica, spec.Replicas)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range replicas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := spec.Config
			cfg.Seed = seeds[i]
			res, err := epidemic.Run(spec.Edges, cfg, opts...)
			if err != nil {
				return fmt.Errorf("replica %d: %w", i, err)
			}
			eq := trace.MeasureEquilibrium(res.Infected, res.R0, cfg.N, spec.TEquilibrate, measureWindow(spec, res))
			replicas[i] = Replica{ID: i, Result: res, Equilibrium: eq}
			logrus.Debugf("replica %d done: seed=%d i_inf=%.4f", i, cfg.Seed, eq.IInf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summarize(int64(master.Key()), replicas), nil
}

// measureWindow is TMeasure, or the time from TEquilibrate to the end of the run when unset.
func measureWindow(spec Spec, res *epidemic.Result) float64 {
	if spec.TMeasure > 0 {
		return spec.TMeasure
	}
	return max(0, res.EndTime-spec.TEquilibrate)
}

// replicaSeed never returns 0, which would ask the run for a clock-derived seed.
func replicaSeed(master *sim.PartitionedRNG, i int) int64 {
	seed := int64(master.KeyFor(sim.SubsystemReplica(i)))
	if seed == 0 {
		seed = 1
	}
	return seed
}

func summarize(masterSeed int64, replicas []Replica) *Summary {
	iInf := make([]float64, len(replicas))
	r0 := make([]float64, len(replicas))
	for k, r := range replicas {
		iInf[k] = r.Equilibrium.IInf
		r0[k] = r.Equilibrium.R0
	}
	s := &Summary{MasterSeed: masterSeed, Replicas: replicas, MeanR0: stat.Mean(r0, nil)}
	if len(iInf) > 1 {
		s.MeanIInf, s.StdIInf = stat.MeanStdDev(iInf, nil)
	} else {
		s.MeanIInf = iInf[0]
	}
	return s
}
