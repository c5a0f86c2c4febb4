// Package metrics exports simulation event counters through prometheus collectors.
// A nil *Recorder is valid and records nothing, so drivers can call it unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Event kinds, used as the "kind" label of the events counter.
const (
	KindInfection = "infection"
	KindRecovery  = "recovery"
	KindRewiring  = "rewiring"
)

// Recorder counts events and finished runs. Safe for concurrent use by ensemble replicas.
type Recorder struct {
	events   map[string]prometheus.Counter
	runs     *prometheus.CounterVec
	absorbed *prometheus.CounterVec
	simTime  *prometheus.HistogramVec
}

// NewRecorder creates the collectors under namespace and registers them on registerer.
func NewRecorder(namespace string, registerer prometheus.Registerer) (*Recorder, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Number of simulated events applied, by kind",
	}, []string{"kind"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Number of completed simulation runs, by model",
	}, []string{"model"})
	absorbed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "absorbed_total",
		Help:      "Number of runs that ended in an absorbing state, by model",
	}, []string{"model"})
	simTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_simulated_time",
		Help:      "Simulated time covered by a run, by model",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"model"})

	for _, c := range []prometheus.Collector{events, runs, absorbed, simTime} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	r := &Recorder{
		events:   make(map[string]prometheus.Counter, 3),
		runs:     runs,
		absorbed: absorbed,
		simTime:  simTime,
	}
	for _, kind := range []string{KindInfection, KindRecovery, KindRewiring} {
		r.events[kind] = events.WithLabelValues(kind)
	}
	return r, nil
}

// Event counts one applied event of the given kind.
func (r *Recorder) Event(kind string) {
	if r == nil {
		return
	}
	if c, ok := r.events[kind]; ok {
		c.Inc()
	}
}

// Run records a finished run of model covering simulatedTime.
func (r *Recorder) Run(model string, simulatedTime float64, absorbed bool) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(model).Inc()
	r.simTime.WithLabelValues(model).Observe(simulatedTime)
	if absorbed {
		r.absorbed.WithLabelValues(model).Inc()
	}
}
