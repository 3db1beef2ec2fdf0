// Package sharpness derives a bounded "sharpness" score from engine
// win/draw/loss statistics.
//
// With W and L the win and loss probabilities, sharpness is
// (2 / (logit(W) + logit(L)))^2 where logit(p) = ln(1/p - 1). Positions whose
// outcome is decided for one side drive the denominator toward zero, which
// saturates the score at Max.
package sharpness

import "math"

const (
	// Max is the upper bound of the score, returned on saturation.
	Max = 100.0

	// Min is the lower bound of the score.
	Min = 0.0

	probFloor = 0.001
	probCeil  = 0.999
	epsilon   = 1e-9
)

// Compute returns the sharpness of a WDL triple in [Min, Max].
// Counts may be on any scale; only their proportions matter.
// A zero total has no defined probabilities and yields Min.
func Compute(w, d, l int) float64 {
	if w < 0 || d < 0 || l < 0 {
		return Min
	}
	total := float64(w) + float64(d) + float64(l)
	if total == 0 {
		return Min
	}

	pw := clamp(float64(w)/total, probFloor, probCeil)
	pl := clamp(float64(l)/total, probFloor, probCeil)

	denom := logit(pw) + logit(pl)
	if math.Abs(denom) < epsilon {
		return Max
	}

	s := math.Pow(2/denom, 2)
	return clamp(s, Min, Max)
}

func logit(p float64) float64 {
	return math.Log(1/p - 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
