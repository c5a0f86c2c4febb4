// Package testutil provides shared statistical assertions for the simulator's test packages.
// Sampling tests run with fixed seeds, so a check either always passes or always fails; the
// significance level only controls how strict the check is.
package testutil

import (
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance level used by the distribution checks.
const DefaultAlpha = 1e-3

// AssertClose fails unless got is within tol of want, relative to max(|want|, |got|, 1).
// Values near zero are therefore compared absolutely. Two NaNs are equal.
func AssertClose(t *testing.T, name string, want, got, tol float64) {
	t.Helper()
	if math.IsNaN(want) && math.IsNaN(got) {
		return
	}
	scale := math.Max(1, math.Max(math.Abs(want), math.Abs(got)))
	if diff := math.Abs(want - got); !(diff <= tol*scale) {
		t.Errorf("%s: got %v, want %v (diff=%v, tol=%v)", name, got, want, diff, tol*scale)
	}
}

// ChiSquarePValue returns the p-value of Pearson's chi-square goodness-of-fit test of observed
// counts against expected counts. Both slices must have the same length (>= 2).
func ChiSquarePValue(observed, expected []float64) float64 {
	statistic := stat.ChiSquare(observed, expected)
	dist := distuv.ChiSquared{K: float64(len(observed) - 1)}
	return dist.Survival(statistic)
}

// AssertUniformCounts fails the test if counts are not plausibly uniform at level alpha.
func AssertUniformCounts(t *testing.T, name string, counts []int, alpha float64) {
	t.Helper()
	total := 0
	for _, c := range counts {
		total += c
	}
	observed := make([]float64, len(counts))
	expected := make([]float64, len(counts))
	for i, c := range counts {
		observed[i] = float64(c)
		expected[i] = float64(total) / float64(len(counts))
	}
	if p := ChiSquarePValue(observed, expected); p < alpha {
		t.Errorf("%s: counts %v not uniform (chi-square p=%g < %g)", name, counts, p, alpha)
	}
}

// KSStatistic returns the one-sample Kolmogorov-Smirnov distance between the empirical
// distribution of samples and cdf. samples is sorted in place.
func KSStatistic(samples []float64, cdf func(float64) float64) float64 {
	sort.Float64s(samples)
	n := float64(len(samples))
	d := 0.0
	for i, x := range samples {
		f := cdf(x)
		d = math.Max(d, math.Max(f-float64(i)/n, float64(i+1)/n-f))
	}
	return d
}

// KSCritical returns the asymptotic critical distance for n samples at level alpha.
func KSCritical(n int, alpha float64) float64 {
	return math.Sqrt(-math.Log(alpha/2)/2) / math.Sqrt(float64(n))
}

// AssertExponential fails the test if samples are not plausibly Exp(rate) at level alpha.
func AssertExponential(t *testing.T, name string, samples []float64, rate, alpha float64) {
	t.Helper()
	dist := distuv.Exponential{Rate: rate}
	d := KSStatistic(samples, dist.CDF)
	if crit := KSCritical(len(samples), alpha); d > crit {
		t.Errorf("%s: KS distance %g exceeds critical %g for Exp(%g)", name, d, crit, rate)
	}
}
