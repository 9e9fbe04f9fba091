package floats

import "math"

// rangeEps absorbs rounding in (max-min)/step so that max is included when
// it lies on the grid.
const rangeEps = 1e-9

func Clamp(x, lo, hi float64) float64 {
	if lo > hi {
		panic("unexpected bounds")
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Range returns the points min, min+step, ... up to and including max when
// max is reachable in whole steps.
func Range(min, max, step float64) []float64 {
	if !(step > 0) || math.IsInf(step, 0) {
		panic("unexpected step")
	}
	if max < min {
		panic("unexpected bounds")
	}
	n := int(math.Floor((max-min)/step+rangeEps)) + 1
	fs := make([]float64, n)
	for i := range fs {
		fs[i] = min + float64(i)*step
	}
	return fs
}

func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
