package fuzzy

import (
	"fmt"
	"slices"

	"example.com/fuzzy-signal/base/floats"
)

const maxUniversePoints = 1 << 20

// Universe is the discretized domain of a linguistic variable. The grid is
// used both for sampling membership curves and for centroid integration.
type Universe struct {
	min, max, step float64
	grid           []float64
}

func NewUniverse(min, max, step float64) (Universe, error) {
	if !floats.IsFinite(min) || !floats.IsFinite(max) || !floats.IsFinite(step) {
		return Universe{}, fmt.Errorf("%w: non-finite bounds [%v, %v] step %v",
			errInvalidUniverse, min, max, step)
	}
	if step <= 0 {
		return Universe{}, fmt.Errorf("%w: step %v must be positive", errInvalidUniverse, step)
	}
	if max <= min {
		return Universe{}, fmt.Errorf("%w: max %v must exceed min %v", errInvalidUniverse, max, min)
	}
	if n := (max - min) / step; !(n < maxUniversePoints) {
		return Universe{}, fmt.Errorf("%w: [%v, %v] step %v exceeds %d points",
			errInvalidUniverse, min, max, step, maxUniversePoints)
	}
	grid := floats.Range(min, max, step)
	if len(grid) < 2 {
		return Universe{}, fmt.Errorf("%w: [%v, %v] step %v has fewer than 2 points",
			errInvalidUniverse, min, max, step)
	}
	return Universe{min: min, max: max, step: step, grid: grid}, nil
}

func (u Universe) Min() float64 { return u.min }

func (u Universe) Max() float64 { return u.max }

func (u Universe) Step() float64 { return u.step }

func (u Universe) Len() int { return len(u.grid) }

// Grid returns a copy of the grid points.
func (u Universe) Grid() []float64 { return slices.Clone(u.grid) }

func (u Universe) Clamp(x float64) float64 {
	return floats.Clamp(x, u.min, u.max)
}

func (u Universe) Contains(x float64) bool {
	return u.min <= x && x <= u.max
}

func (u Universe) String() string {
	return fmt.Sprintf("[%g, %g] step %g", u.min, u.max, u.step)
}
