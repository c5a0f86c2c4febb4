package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flockwork-sim/flockwork-sim/sim/internal/testutil"
)

func TestTimeAverage_StepFunction(t *testing.T) {
	// GIVEN y=1 on [0,1), y=3 on [1,4)
	got := TimeAverage([]float64{0, 1}, []float64{1, 3}, 4)

	// THEN the average is (1*1 + 3*3) / 4
	assert.InDelta(t, 2.5, got, 1e-12)
}

func TestTimeAverage_EdgeCases(t *testing.T) {
	assert.True(t, math.IsNaN(TimeAverage(nil, nil, 1)))
	assert.True(t, math.IsNaN(TimeAverage([]float64{0}, []float64{1, 2}, 1)))
	// zero covered duration falls back to the last value
	assert.Equal(t, 7.0, TimeAverage([]float64{2}, []float64{7}, 2))
	// samples past tmax carry no weight
	assert.InDelta(t, 1.0, TimeAverage([]float64{0, 5}, []float64{1, 9}, 4), 1e-12)
}

func TestMeasureEquilibrium_AveragesAfterEquilibration(t *testing.T) {
	// GIVEN N=10, 2 infected until t=5, then 4 infected until the end at t=10
	infected := Series{T: []float64{0, 5, 6}, Y: []float64{2, 4, 4}}
	r0 := Series{T: []float64{0, 5, 6}, Y: []float64{1, 3, 5}}

	// WHEN measured with tEq=5, tRun=5
	eq := MeasureEquilibrium(infected, r0, 10, 5, 5)

	// THEN only t >= 5 counts: i = 0.4 throughout, R0 = (3*1 + 5*4) / 5
	testutil.AssertClose(t, "i_inf", 0.4, eq.IInf, 1e-12)
	testutil.AssertClose(t, "i_inf_std", 0, eq.IInfStd, 1e-12)
	testutil.AssertClose(t, "r0", 23.0/5, eq.R0, 1e-12)
}

func TestMeasureEquilibrium_Fluctuations(t *testing.T) {
	infected := Series{T: []float64{0, 1}, Y: []float64{0, 2}}
	r0 := Series{T: []float64{0, 1}, Y: []float64{1, 1}}

	// i=0 on [0,1), i=0.5 on [1,2): mean 0.25, rms deviation 0.25
	eq := MeasureEquilibrium(infected, r0, 4, 0, 2)
	testutil.AssertClose(t, "i_inf", 0.25, eq.IInf, 1e-12)
	testutil.AssertClose(t, "i_inf_std", 0.25, eq.IInfStd, 1e-12)
}

func TestMeasureEquilibrium_EndedBeforeEquilibration(t *testing.T) {
	infected := Series{T: []float64{0, 2}, Y: []float64{1, 0}}
	r0 := Series{T: []float64{0, 2}, Y: []float64{1.5, 1.25}}

	eq := MeasureEquilibrium(infected, r0, 10, 100, 50)

	assert.Equal(t, Equilibrium{R0: 1.25}, eq)
}

func TestMeasureEquilibrium_EmptyInput(t *testing.T) {
	assert.Equal(t, Equilibrium{}, MeasureEquilibrium(Series{}, Series{}, 10, 1, 1))
}
