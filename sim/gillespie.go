package sim

import (
	"fmt"
	"math"
)

// Step is one advance of a continuous-time Markov chain.
type Step struct {
	Tau   float64 // waiting time until the event, Exp(total) distributed
	Event int     // index into the rate vector
}

// GillespieStep samples the next event of the direct-method Gillespie algorithm.
//
// Two independent draws are taken from src, in this order:
//  1. the event, chosen proportionally to its rate (see SelectWeighted)
//  2. the waiting time tau = log(1/u2) / total with u2 in (0, 1]
//
// Returns ErrEmptyInput for an empty rate vector and ErrZeroTotalRate when every rate is
// zero; drivers treat the latter as an absorbing state.
func GillespieStep(rates []float64, src Source) (Step, error) {
	total, err := totalWeight(rates)
	if err != nil {
		return Step{}, fmt.Errorf("gillespie step: %w", err)
	}
	event := scanCumulative(rates, src.Float64()*total)
	// 1 - [0,1) is (0,1], so the logarithm is always finite.
	u2 := 1 - src.Float64()
	tau := math.Log(1/u2) / total
	return Step{Tau: tau, Event: event}, nil
}
