// Package epidemic runs SIS and SIR processes on a rewiring flockwork network with the
// direct-method Gillespie algorithm.
package epidemic

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flockwork-sim/flockwork-sim/sim"
	"github.com/flockwork-sim/flockwork-sim/sim/metrics"
	"github.com/flockwork-sim/flockwork-sim/sim/network"
	"github.com/flockwork-sim/flockwork-sim/sim/trace"
)

// Status is the compartment of a node.
type Status uint8

const (
	Susceptible Status = iota
	Infected
	Recovered
	Vaccinated
)

func (s Status) String() string {
	switch s {
	case Susceptible:
		return "S"
	case Infected:
		return "I"
	case Recovered:
		return "R"
	case Vaccinated:
		return "V"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Event classes, in rate-vector order.
const (
	eventInfection = iota
	eventRecovery
	eventRewiring
	numEventClasses
)

// EventCounts tallies applied events by class.
type EventCounts struct {
	Infections int `json:"infections"`
	Recoveries int `json:"recoveries"`
	Rewirings  int `json:"rewirings"`
}

// Total returns the number of applied events.
func (c EventCounts) Total() int { return c.Infections + c.Recoveries + c.Rewirings }

// Result holds the outcome of one run.
type Result struct {
	Model       Model        `json:"model"`
	Seed        int64        `json:"seed"` // resolved seed; replays the run exactly
	Infected    trace.Series `json:"infected"`
	R0          trace.Series `json:"r0"`
	Events      EventCounts  `json:"events"`
	EndTime     float64      `json:"end_time"`
	Absorbed    bool         `json:"absorbed"` // ended because no further epidemic event was possible
	FinalStatus []Status     `json:"-"`
	FinalEdges  []sim.Edge   `json:"-"`
}

// CountStatus returns the number of nodes in status s at the end of the run.
func (r *Result) CountStatus(s Status) int {
	n := 0
	for _, st := range r.FinalStatus {
		if st == s {
			n++
		}
	}
	return n
}

// RunSIS simulates an SIS process on the flockwork started from edges over n nodes until
// tRunTotal or extinction.
func RunSIS(edges []sim.Edge, n int, q, tRunTotal, infectionRate, recoveryRate float64, opts ...Option) (*Result, error) {
	cfg := DefaultConfig(ModelSIS)
	cfg.N, cfg.Q, cfg.TRunTotal = n, q, tRunTotal
	cfg.InfectionRate, cfg.RecoveryRate = infectionRate, recoveryRate
	return Run(edges, cfg, opts...)
}

// RunSIR simulates an SIR process on the flockwork started from edges over n nodes until
// extinction, or until the limit set with WithTimeLimit.
func RunSIR(edges []sim.Edge, n int, q, infectionRate, recoveryRate float64, opts ...Option) (*Result, error) {
	cfg := DefaultConfig(ModelSIR)
	cfg.N, cfg.Q = n, q
	cfg.InfectionRate, cfg.RecoveryRate = infectionRate, recoveryRate
	return Run(edges, cfg, opts...)
}

// Run simulates cfg starting from the given edge list. Options are applied on top of cfg.
func Run(edges []sim.Edge, cfg Config, opts ...Option) (*Result, error) {
	o := runOptions{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	s, err := newSimulation(edges, o)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Starting %s run: N=%d, m=%d, Q=%g, eta=%g, rho=%g, gamma=%g, seed=%d",
		s.cfg.Model, s.cfg.N, s.net.NumEdges(), s.cfg.Q, s.cfg.InfectionRate, s.cfg.RecoveryRate,
		s.cfg.RewiringRate, s.key)
	if err := s.run(); err != nil {
		return nil, err
	}
	res := s.result()
	logrus.Infof("%s run ended at t=%.4f after %d events (absorbed=%v, infected=%d)",
		s.cfg.Model, res.EndTime, res.Events.Total(), res.Absorbed, s.infected.Len())
	s.metrics.Run(string(s.cfg.Model), res.EndTime, res.Absorbed)
	return res, nil
}

// simulation is the mutable state of one run.
type simulation struct {
	cfg      Config
	key      sim.SimulationKey
	src      *rand.Rand
	net      *network.Network
	rewirer  *network.Rewirer
	status   []Status
	infected *network.IndexedSet[int]
	si       *network.IndexedSet[sim.Edge]
	rec      *trace.Recorder
	metrics  *metrics.Recorder

	clock    float64
	rates    [numEventClasses]float64
	events   EventCounts
	absorbed bool
}

func newSimulation(edges []sim.Edge, o runOptions) (*simulation, error) {
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Model, err)
	}
	net, err := network.FromEdges(cfg.N, edges)
	if err != nil {
		return nil, err
	}
	rewirer, err := network.NewRewirer(cfg.Q, cfg.UseRandomRewiring)
	if err != nil {
		return nil, err
	}
	key := sim.ResolveSeed(cfg.Seed, o.now)
	s := &simulation{
		cfg:      cfg,
		key:      key,
		src:      sim.NewStream(key),
		net:      net,
		rewirer:  rewirer,
		status:   make([]Status, cfg.N),
		infected: network.NewIndexedSet[int](),
		si:       network.NewIndexedSet[sim.Edge](),
		rec:      trace.NewRecorder(cfg.SamplingDT),
		metrics:  o.metrics,
	}
	if err := s.seed(); err != nil {
		return nil, err
	}
	s.rec.Start(0, float64(s.infected.Len()), s.r0())
	return s, nil
}

// seed draws the vaccinated and infected nodes as one subset without replacement:
// the first NumberVaccinated picks are vaccinated, the rest infected.
func (s *simulation) seed() error {
	picked, err := sim.SampleUniqueIndices(s.cfg.N, s.cfg.NumberVaccinated+s.cfg.NumberInfected, s.src)
	if err != nil {
		return fmt.Errorf("seeding initial states: %w", err)
	}
	for _, v := range picked[:s.cfg.NumberVaccinated] {
		s.status[v] = Vaccinated
	}
	for _, v := range picked[s.cfg.NumberVaccinated:] {
		s.status[v] = Infected
		s.infected.Add(v)
	}
	for _, v := range s.infected.Items() {
		s.net.VisitNeighbors(v, func(u int) bool {
			if s.status[u] == Susceptible {
				s.si.Add(sim.NewEdge(v, u))
			}
			return true
		})
	}
	return nil
}

func (s *simulation) run() error {
	for {
		more, err := s.step()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	s.rec.Finish(s.clock)
	return nil
}

// step applies the next event. It returns false once the run has ended.
func (s *simulation) step() (bool, error) {
	if s.infected.Len() == 0 {
		s.absorbed = true
		return false, nil
	}
	if s.cfg.MaxEvents > 0 && s.events.Total() >= s.cfg.MaxEvents {
		return false, nil
	}

	s.rates[eventInfection] = s.cfg.InfectionRate * float64(s.si.Len())
	s.rates[eventRecovery] = s.cfg.RecoveryRate * float64(s.infected.Len())
	s.rates[eventRewiring] = s.cfg.RewiringRate * float64(s.cfg.N)

	next, err := sim.GillespieStep(s.rates[:], s.src)
	if errors.Is(err, sim.ErrZeroTotalRate) {
		logrus.Debugf("t=%.4f: all rates zero, absorbing state", s.clock)
		s.absorbed = true
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.cfg.TRunTotal > 0 && s.clock+next.Tau > s.cfg.TRunTotal {
		s.clock = s.cfg.TRunTotal
		return false, nil
	}
	s.clock += next.Tau

	switch next.Event {
	case eventInfection:
		s.applyInfection()
	case eventRecovery:
		s.applyRecovery()
	case eventRewiring:
		if err := s.applyRewiring(); err != nil {
			return false, err
		}
	}
	s.rec.Record(s.clock, float64(s.infected.Len()), s.r0())
	return true, nil
}

func (s *simulation) applyInfection() {
	e := s.si.Pick(s.src)
	v := e.Lo
	if s.status[v] != Susceptible {
		v = e.Hi
	}
	s.status[v] = Infected
	s.infected.Add(v)
	s.net.VisitNeighbors(v, func(u int) bool {
		switch s.status[u] {
		case Infected:
			s.si.Remove(sim.NewEdge(v, u))
		case Susceptible:
			s.si.Add(sim.NewEdge(v, u))
		}
		return true
	})
	s.events.Infections++
	s.metrics.Event(metrics.KindInfection)
	logrus.Tracef("t=%.6f: infection %d via %v", s.clock, v, e)
}

func (s *simulation) applyRecovery() {
	v := s.infected.Pick(s.src)
	s.infected.Remove(v)
	if s.cfg.Model == ModelSIS {
		s.status[v] = Susceptible
	} else {
		s.status[v] = Recovered
	}
	s.net.VisitNeighbors(v, func(u int) bool {
		switch s.status[u] {
		case Susceptible:
			s.si.Remove(sim.NewEdge(v, u))
		case Infected:
			if s.status[v] == Susceptible {
				s.si.Add(sim.NewEdge(v, u))
			}
		}
		return true
	})
	s.events.Recoveries++
	s.metrics.Event(metrics.KindRecovery)
	logrus.Tracef("t=%.6f: recovery %d -> %v", s.clock, v, s.status[v])
}

func (s *simulation) applyRewiring() error {
	change, err := s.rewirer.Rewire(s.net, s.src)
	if err != nil {
		return err
	}
	i := change.Node
	for _, u := range change.Removed {
		s.si.Remove(sim.NewEdge(i, u))
	}
	for _, u := range change.Added {
		if s.isSI(i, u) {
			s.si.Add(sim.NewEdge(i, u))
		}
	}
	s.events.Rewirings++
	s.metrics.Event(metrics.KindRewiring)
	return nil
}

func (s *simulation) isSI(a, b int) bool {
	sa, sb := s.status[a], s.status[b]
	return (sa == Susceptible && sb == Infected) || (sa == Infected && sb == Susceptible)
}

// r0 estimates the basic reproduction number as eta * <k> / rho; 0 when rho is 0.
func (s *simulation) r0() float64 {
	if s.cfg.RecoveryRate == 0 {
		return 0
	}
	return s.cfg.InfectionRate * s.net.MeanDegree() / s.cfg.RecoveryRate
}

func (s *simulation) result() *Result {
	return &Result{
		Model:       s.cfg.Model,
		Seed:        int64(s.key),
		Infected:    s.rec.Infected,
		R0:          s.rec.R0,
		Events:      s.events,
		EndTime:     s.clock,
		Absorbed:    s.absorbed,
		FinalStatus: append([]Status(nil), s.status...),
		FinalEdges:  s.net.Edges(),
	}
}
