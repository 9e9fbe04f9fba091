package mf

import (
	"errors"
	"fmt"

	"example.com/fuzzy-signal/base/floats"
)

var errInvalidTriangle = errors.New("invalid triangular membership function")

// Triangle is the triangular membership function with feet a, c and peak b.
// a == b gives a left shoulder and b == c a right shoulder.
type Triangle struct {
	A, B, C float64
}

func NewTriangle(a, b, c float64) (Triangle, error) {
	if !floats.IsFinite(a) || !floats.IsFinite(b) || !floats.IsFinite(c) {
		return Triangle{}, fmt.Errorf("%w: non-finite parameter in [%v, %v, %v]",
			errInvalidTriangle, a, b, c)
	}
	if a > b || b > c {
		return Triangle{}, fmt.Errorf("%w: [%v, %v, %v] not ordered",
			errInvalidTriangle, a, b, c)
	}
	return Triangle{A: a, B: b, C: c}, nil
}

func (t Triangle) Degree(x float64) float64 {
	switch {
	case x == t.B:
		return 1.0
	case x <= t.A || x >= t.C:
		return 0.0
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	case x > t.B:
		return (t.C - x) / (t.C - t.B)
	default: // NaN
		return 0.0
	}
}

func (t Triangle) Curve(grid []float64) []float64 {
	ys := make([]float64, len(grid))
	for i, x := range grid {
		ys[i] = t.Degree(x)
	}
	return ys
}

func (t Triangle) String() string {
	return fmt.Sprintf("trimf[%g, %g, %g]", t.A, t.B, t.C)
}
