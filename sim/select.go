package sim

import (
	"fmt"
	"math"
)

// SelectWeighted returns index e with probability weights[e] / sum(weights), using one draw
// from src.
//
// Inverse-CDF linear scan: target = u * total, and e is the first index with
//
//	sum_event < target <= sum_event + weights[e]
//
// A target landing exactly on a cumulative boundary belongs to the interval it closes.
// Zero-weight entries own an empty interval and are never chosen.
func SelectWeighted(weights []float64, src Source) (int, error) {
	total, err := totalWeight(weights)
	if err != nil {
		return 0, err
	}
	return scanCumulative(weights, src.Float64()*total), nil
}

// totalWeight sums weights left to right, rejecting empty, negative and non-finite input.
// The summation order matters: scanCumulative reproduces the same partial sums.
func totalWeight(weights []float64) (float64, error) {
	if len(weights) == 0 {
		return 0, fmt.Errorf("select from weights: %w", ErrEmptyInput)
	}
	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, fmt.Errorf("weight[%d] = %v must be finite and nonnegative: %w", i, w, ErrInvalidArgument)
		}
		total += w
	}
	if total == 0 {
		return 0, fmt.Errorf("select from %d weights: %w", len(weights), ErrZeroTotalRate)
	}
	return total, nil
}

// scanCumulative assumes a positive total.
func scanCumulative(weights []float64, target float64) int {
	sumEvent := 0.0
	for e, w := range weights {
		if sumEvent < target && target <= sumEvent+w {
			return e
		}
		sumEvent += w
	}
	// Only reachable when target == 0 (a zero draw): the limit u -> 0+ is the first positive weight.
	for e, w := range weights {
		if w > 0 {
			return e
		}
	}
	return len(weights) - 1
}
