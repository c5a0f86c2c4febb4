package epidemic

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flockwork-sim/flockwork-sim/sim"
	"github.com/flockwork-sim/flockwork-sim/sim/internal/testutil"
	"github.com/flockwork-sim/flockwork-sim/sim/metrics"
	"github.com/flockwork-sim/flockwork-sim/sim/network"
)

func completeGraph(n int) []sim.Edge {
	var edges []sim.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, sim.NewEdge(i, j))
		}
	}
	return edges
}

func ringGraph(n int) []sim.Edge {
	edges := make([]sim.Edge, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, sim.NewEdge(i, (i+1)%n))
	}
	return edges
}

// assertBookkeeping recomputes the S-I edge set and infected list from scratch.
func assertBookkeeping(t *testing.T, s *simulation) {
	t.Helper()
	wantSI := 0
	for _, e := range s.net.Edges() {
		if s.isSI(e.Lo, e.Hi) {
			wantSI++
			require.True(t, s.si.Has(e), "missing S-I edge %v", e)
		}
	}
	require.Equal(t, wantSI, s.si.Len(), "S-I set holds stale edges")
	nInfected := 0
	for v, st := range s.status {
		if st == Infected {
			nInfected++
			require.True(t, s.infected.Has(v))
		}
	}
	require.Equal(t, nInfected, s.infected.Len())
}

func TestSimulation_BookkeepingStaysConsistent(t *testing.T) {
	for _, tc := range []struct {
		model  Model
		random bool
	}{
		{ModelSIS, false},
		{ModelSIS, true},
		{ModelSIR, false},
		{ModelSIR, true},
	} {
		t.Run(string(tc.model), func(t *testing.T) {
			cfg := DefaultConfig(tc.model)
			cfg.N = 40
			cfg.Q = 0.7
			cfg.TRunTotal = 50
			cfg.InfectionRate = 2
			cfg.RecoveryRate = 1
			cfg.NumberInfected = 5
			cfg.NumberVaccinated = 3
			cfg.UseRandomRewiring = tc.random
			cfg.Seed = 31

			s, err := newSimulation(ringGraph(cfg.N), runOptions{cfg: cfg, now: time.Now})
			require.NoError(t, err)
			assertBookkeeping(t, s)

			for i := 0; i < 3000; i++ {
				more, err := s.step()
				require.NoError(t, err)
				assertBookkeeping(t, s)
				if !more {
					break
				}
			}
			assert.Equal(t, 3, s.countStatus(Vaccinated), "vaccinated nodes never change")
		})
	}
}

func (s *simulation) countStatus(st Status) int {
	n := 0
	for _, v := range s.status {
		if v == st {
			n++
		}
	}
	return n
}

func TestRunSIS_SameSeedIdenticalResults(t *testing.T) {
	run := func() *Result {
		res, err := RunSIS(ringGraph(30), 30, 0.6, 20, 1.5, 1.0,
			WithSeed(1346), WithInfected(3), WithVaccinated(2))
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a, b)
	assert.Equal(t, int64(1346), a.Seed)
}

func TestRunSIS_DifferentSeedsDiffer(t *testing.T) {
	a, err := RunSIS(ringGraph(30), 30, 0.6, 20, 1.5, 1.0, WithSeed(1))
	require.NoError(t, err)
	b, err := RunSIS(ringGraph(30), 30, 0.6, 20, 1.5, 1.0, WithSeed(2))
	require.NoError(t, err)
	assert.NotEqual(t, a.Infected, b.Infected)
}

func TestRun_ZeroSeedIsResolvedAndReplayable(t *testing.T) {
	clock := func() time.Time { return time.Unix(0, 987654321) }
	first, err := RunSIR(completeGraph(8), 8, 0.5, 1, 1, WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, int64(987654321), first.Seed)

	replay, err := RunSIR(completeGraph(8), 8, 0.5, 1, 1, WithSeed(first.Seed))
	require.NoError(t, err)
	assert.Equal(t, first, replay)
}

func TestRunSIS_PureRecoveryDiesOut(t *testing.T) {
	// GIVEN everyone infected, no contacts, no rewiring
	res, err := RunSIS(nil, 10, 0, 1000, 0, 1, WithInfected(10), WithRewiringRate(0), WithSeed(5))
	require.NoError(t, err)

	// THEN exactly 10 recoveries happen, the count falls by one each time, and the run absorbs
	assert.True(t, res.Absorbed)
	assert.Equal(t, EventCounts{Recoveries: 10}, res.Events)
	require.Equal(t, 11, res.Infected.Len())
	for k, y := range res.Infected.Y {
		assert.Equal(t, float64(10-k), y)
	}
	assert.Less(t, res.EndTime, 1000.0)
	assert.Equal(t, 10, res.CountStatus(Susceptible))
}

func TestRunSIS_AllRatesZeroIsAbsorbing(t *testing.T) {
	res, err := RunSIS(nil, 5, 0.5, 10, 0, 0, WithRewiringRate(0), WithSeed(2))
	require.NoError(t, err)
	assert.True(t, res.Absorbed)
	assert.Equal(t, 0, res.Events.Total())
	assert.Equal(t, 1, res.Infected.Len())
	assert.Equal(t, []float64{1}, res.Infected.Y)
}

func TestRunSIS_StopsAtTimeLimit(t *testing.T) {
	res, err := RunSIS(completeGraph(20), 20, 0.9, 5, 5, 0.1, WithInfected(10), WithSeed(8))
	require.NoError(t, err)
	assert.False(t, res.Absorbed)
	assert.Equal(t, 5.0, res.EndTime)
	tLast, _, _ := res.Infected.Last()
	assert.LessOrEqual(t, tLast, 5.0)
	assert.Greater(t, res.Events.Rewirings, 0)
}

func TestRunSIS_MaxEvents(t *testing.T) {
	res, err := RunSIS(ringGraph(10), 10, 0.5, 0, 1, 1, WithMaxEvents(25), WithSeed(3), WithInfected(5))
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Events.Total(), 25)
}

func TestRunSIR_EndsWithoutInfected(t *testing.T) {
	res, err := RunSIR(completeGraph(25), 25, 0.5, 3, 1, WithSeed(11), WithInfected(2))
	require.NoError(t, err)

	assert.True(t, res.Absorbed)
	assert.Equal(t, 0, res.CountStatus(Infected))
	recovered := res.CountStatus(Recovered)
	assert.Equal(t, recovered, res.Events.Recoveries)
	assert.Equal(t, recovered-2, res.Events.Infections)
	assert.Equal(t, 25, recovered+res.CountStatus(Susceptible))
}

func TestRunSIR_VaccinatedNeverInfected(t *testing.T) {
	res, err := RunSIR(completeGraph(12), 12, 1, 50, 1,
		WithVaccinated(4), WithInfected(1), WithRewiringRate(0), WithSeed(21))
	require.NoError(t, err)
	assert.Equal(t, 4, res.CountStatus(Vaccinated))
	assert.LessOrEqual(t, res.CountStatus(Recovered), 8)
}

func TestRunSIR_TimeLimit(t *testing.T) {
	res, err := RunSIR(completeGraph(30), 30, 0.5, 0.5, 0.01, WithSeed(4), WithTimeLimit(2))
	require.NoError(t, err)
	assert.LessOrEqual(t, res.EndTime, 2.0)
}

func TestRun_SamplingGrid(t *testing.T) {
	res, err := RunSIS(completeGraph(15), 15, 0.5, 10, 2, 1, WithSamplingDT(0.5), WithSeed(6), WithInfected(5))
	require.NoError(t, err)
	if res.Absorbed {
		t.Skip("run went extinct early")
	}
	require.Equal(t, 21, res.Infected.Len())
	for k, tk := range res.Infected.T {
		assert.InDelta(t, 0.5*float64(k), tk, 1e-9)
	}
	assert.Equal(t, res.Infected.T, res.R0.T)
}

func TestRun_InitialR0(t *testing.T) {
	// ring: <k> = 2, so R0 = eta * 2 / rho
	res, err := RunSIS(ringGraph(10), 10, 0.5, 1, 0.3, 1.2, WithSeed(9))
	require.NoError(t, err)
	assert.InDelta(t, 0.3*2/1.2, res.R0.Y[0], 1e-12)

	noRecovery, err := RunSIR(ringGraph(10), 10, 0.5, 0.3, 0, WithSeed(9), WithTimeLimit(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, noRecovery.R0.Y[0])
}

func TestRun_InvalidInput(t *testing.T) {
	_, err := RunSIS(nil, 5, 0.5, 10, 1, 1, WithInfected(4), WithVaccinated(2))
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)

	_, err = RunSIS([]sim.Edge{{Lo: 0, Hi: 9}}, 5, 0.5, 10, 1, 1)
	assert.ErrorIs(t, err, network.ErrInvalidEdge)

	_, err = RunSIR(nil, 5, 2, 1, 1)
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)
}

func TestRun_FirstEventProportionalToRates(t *testing.T) {
	// GIVEN one S-I edge, eta=2, rho=1, no rewiring: first event is an infection w.p. 2/3
	const trials = 3000
	counts := []float64{0, 0}
	for seed := int64(1); seed <= trials; seed++ {
		res, err := RunSIR([]sim.Edge{{Lo: 0, Hi: 1}}, 2, 0, 2, 1,
			WithRewiringRate(0), WithMaxEvents(1), WithSeed(seed))
		require.NoError(t, err)
		require.Equal(t, 1, res.Events.Total())
		if res.Events.Infections == 1 {
			counts[0]++
		} else {
			counts[1]++
		}
	}
	p := testutil.ChiSquarePValue(counts, []float64{trials * 2.0 / 3, trials * 1.0 / 3})
	assert.GreaterOrEqual(t, p, testutil.DefaultAlpha, "counts %v", counts)
}

func TestRun_ReportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder("flockwork", reg)
	require.NoError(t, err)

	res, err := RunSIR(completeGraph(10), 10, 0.5, 1, 1, WithSeed(12), WithMetrics(rec))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var events, runs float64
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch f.GetName() {
			case "flockwork_events_total":
				events += m.GetCounter().GetValue()
			case "flockwork_runs_total":
				runs += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(res.Events.Total()), events)
	assert.Equal(t, 1.0, runs)
}

func TestRun_FinalEdgesMatchLastR0(t *testing.T) {
	// GIVEN an SIS run that rewires the starting ring
	const n, eta, rho = 20, 1.5, 1.0
	res, err := RunSIS(ringGraph(n), n, 0.7, 5, eta, rho, WithSeed(17), WithInfected(5), WithVaccinated(3))
	require.NoError(t, err)
	require.Greater(t, res.Events.Rewirings, 0)

	// THEN the final edges are canonical, sorted and unique
	for k, e := range res.FinalEdges {
		assert.Less(t, e.Lo, e.Hi)
		assert.Less(t, e.Hi, n)
		if k > 0 {
			assert.True(t, res.FinalEdges[k-1].Less(e), "edges out of order at %d", k)
		}
	}

	// AND the last R0 sample is eta * <k> / rho of the final network
	meanDegree := 2 * float64(len(res.FinalEdges)) / n
	_, lastR0, _ := res.R0.Last()
	testutil.AssertClose(t, "final r0", eta*meanDegree/rho, lastR0, 1e-12)
}

func TestRunSIR_NoRecoveryNeedsHorizon(t *testing.T) {
	// rewiring keeps the total rate positive once every reachable node is infected
	_, err := RunSIR([]sim.Edge{{Lo: 0, Hi: 1}}, 10, 0.5, 1, 0, WithSeed(7))
	assert.ErrorIs(t, err, sim.ErrInvalidArgument)

	res, err := RunSIR([]sim.Edge{{Lo: 0, Hi: 1}}, 10, 0.5, 1, 0, WithSeed(7), WithMaxEvents(200))
	require.NoError(t, err)
	assert.Equal(t, 200, res.Events.Total())
	assert.False(t, res.Absorbed)
	assert.Equal(t, 0, res.Events.Recoveries)
}
