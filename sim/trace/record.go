// Package trace records epidemic observables over simulated time and reduces them to
// equilibrium time averages.
// This package has no dependencies on sim/ or its other sub-packages; it stores pure data types.
package trace

// Series is a step function sampled at increasing times: Y[i] holds on [T[i], T[i+1]).
type Series struct {
	T []float64 `json:"t"`
	Y []float64 `json:"y"`
}

// Append adds the point (t, y).
func (s *Series) Append(t, y float64) {
	s.T = append(s.T, t)
	s.Y = append(s.Y, y)
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.T) }

// Last returns the final point. ok is false for an empty series.
func (s *Series) Last() (t, y float64, ok bool) {
	if len(s.T) == 0 {
		return 0, 0, false
	}
	return s.T[len(s.T)-1], s.Y[len(s.Y)-1], true
}
