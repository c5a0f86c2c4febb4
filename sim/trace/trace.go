package trace

// Recorder collects the infected-count and R0 series of one run.
//
// With SamplingDT == 0 every observation is kept. With SamplingDT > 0 the state is sampled on
// the grid t0, t0+dt, t0+2dt, ...: each grid point holds the state in force at that time.
type Recorder struct {
	SamplingDT float64
	Infected   Series
	R0         Series

	next     float64
	lastI    float64
	lastR0   float64
	started  bool
	finished bool
}

// NewRecorder returns a recorder. A negative dt is treated as 0.
func NewRecorder(samplingDT float64) *Recorder {
	if samplingDT < 0 {
		samplingDT = 0
	}
	return &Recorder{SamplingDT: samplingDT}
}

// Start records the initial state at t0.
func (r *Recorder) Start(t0, infected, r0 float64) {
	r.started = true
	r.Infected.Append(t0, infected)
	r.R0.Append(t0, r0)
	r.lastI, r.lastR0 = infected, r0
	r.next = t0 + r.SamplingDT
}

// Record reports the state in force from time t on. Times must not decrease.
func (r *Recorder) Record(t, infected, r0 float64) {
	if !r.started {
		r.Start(t, infected, r0)
		return
	}
	if r.SamplingDT == 0 {
		r.Infected.Append(t, infected)
		r.R0.Append(t, r0)
	} else {
		r.fillUntil(t, false)
	}
	r.lastI, r.lastR0 = infected, r0
}

// Finish closes the run at tEnd. On a sampling grid, grid points up to and including tEnd
// receive the last state. Calling Finish more than once has no effect.
func (r *Recorder) Finish(tEnd float64) {
	if r.finished || !r.started {
		return
	}
	r.finished = true
	if r.SamplingDT > 0 {
		r.fillUntil(tEnd, true)
	}
}

func (r *Recorder) fillUntil(t float64, inclusive bool) {
	for r.next < t || (inclusive && r.next == t) {
		r.Infected.Append(r.next, r.lastI)
		r.R0.Append(r.next, r.lastR0)
		r.next += r.SamplingDT
	}
}
