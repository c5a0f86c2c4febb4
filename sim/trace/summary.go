package trace

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TimeAverage returns the time average of the step function (t, y) over [t[0], tmax].
// Each value is weighted by how long it holds; the last value holds until tmax.
// Returns NaN for an empty series and the last value when the covered duration is zero.
func TimeAverage(t, y []float64, tmax float64) float64 {
	if len(t) == 0 || len(t) != len(y) {
		return math.NaN()
	}
	weights := make([]float64, len(t))
	total := 0.0
	for i := range t {
		end := tmax
		if i+1 < len(t) {
			end = t[i+1]
		}
		if d := end - t[i]; d > 0 {
			weights[i] = d
			total += d
		}
	}
	if total == 0 {
		return y[len(y)-1]
	}
	return stat.Mean(y, weights)
}

// Equilibrium is the reduction of one run to its stationary observables.
type Equilibrium struct {
	IInf    float64 `json:"i_inf"`     // time-averaged fraction infected after equilibration
	IInfStd float64 `json:"i_inf_std"` // RMS deviation of the fraction infected
	R0      float64 `json:"r0"`        // time-averaged R0 after equilibration
}

// MeasureEquilibrium averages the infected fraction and R0 over [t0+tEquilibrate, t0+tEquilibrate+tRun],
// where t0 is the first sample time. If the run ended (e.g. by extinction) before
// equilibration, IInf and IInfStd are 0 and R0 is the last recorded value.
func MeasureEquilibrium(infected, r0 Series, n int, tEquilibrate, tRun float64) Equilibrium {
	if infected.Len() == 0 || r0.Len() == 0 || n <= 0 {
		return Equilibrium{}
	}
	t0 := infected.T[0]
	tmax := t0 + tEquilibrate + tRun
	tLast, _, _ := infected.Last()
	if tLast <= t0+tEquilibrate {
		_, lastR0, _ := r0.Last()
		return Equilibrium{R0: lastR0}
	}

	ti, fraction := after(infected, t0+tEquilibrate)
	for k := range fraction {
		fraction[k] /= float64(n)
	}
	iInf := TimeAverage(ti, fraction, tmax)
	sq := make([]float64, len(fraction))
	for k, v := range fraction {
		sq[k] = (v - iInf) * (v - iInf)
	}
	tr, rv := after(r0, t0+tEquilibrate)
	return Equilibrium{
		IInf:    iInf,
		IInfStd: math.Sqrt(TimeAverage(ti, sq, tmax)),
		R0:      TimeAverage(tr, rv, tmax),
	}
}

// after returns copies of the samples with T >= from.
func after(s Series, from float64) ([]float64, []float64) {
	var t, y []float64
	for k, tk := range s.T {
		if tk >= from {
			t = append(t, tk)
			y = append(y, s.Y[k])
		}
	}
	return t, y
}
