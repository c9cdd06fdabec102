// Package scale maps data domains onto drawing ranges.
package scale

// Linear is an affine map from [D0, D1] onto [R0, R1].
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

// NewLinear constructs a Linear scale.
func NewLinear(domainMin, domainMax, rangeMin, rangeMax float64) Linear {
	return Linear{D0: domainMin, D1: domainMax, R0: rangeMin, R1: rangeMax}
}

// Map returns the range value of v. A degenerate domain maps every value to
// the midpoint of the range.
func (s Linear) Map(v float64) float64 {
	if s.D0 == s.D1 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert returns the domain value of a range value r.
func (s Linear) Invert(r float64) float64 {
	if s.R0 == s.R1 {
		return (s.D0 + s.D1) / 2
	}
	return s.D0 + (r-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Ticks returns n evenly spaced domain values from D0 to D1 inclusive.
// With a degenerate domain a single tick is returned.
func (s Linear) Ticks(n int) []float64 {
	if n <= 1 || s.D0 == s.D1 {
		return []float64{s.D0}
	}
	ticks := make([]float64, n)
	step := (s.D1 - s.D0) / float64(n-1)
	for i := range ticks {
		ticks[i] = s.D0 + step*float64(i)
	}
	ticks[n-1] = s.D1
	return ticks
}
