package floats_test

import (
	"math"
	"testing"

	"example.com/fuzzy-signal/base/floats"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		x, lo, hi float64
		want      float64
	}{
		{150, 0, 100, 100},
		{-3, 0, 100, 0},
		{42, 0, 100, 42},
		{0, 0, 0, 0},
		{math.Inf(1), 10, 120, 120},
	}

	for _, tt := range tests {
		got := floats.Clamp(tt.x, tt.lo, tt.hi)
		if got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}

	t.Run("InvertedBounds", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("Clamp with inverted bounds did not panic")
			}
		}()
		floats.Clamp(1, 2, 1)
	})
}

func TestRange(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
		wantLen        int
		wantLast       float64
	}{
		{"Percent", 0, 100, 1, 101, 100},
		{"Hours", 0, 24, 1, 25, 24},
		{"Flag", 0, 1, 1, 2, 1},
		{"Seconds", 10, 120, 1, 111, 120},
		{"Tenths", 0, 1, 0.1, 11, 1},
		{"Unreachable max", 0, 10, 3, 4, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := floats.Range(tt.min, tt.max, tt.step)
			if len(got) != tt.wantLen {
				t.Fatalf("len(Range(%v, %v, %v)) = %d, want %d",
					tt.min, tt.max, tt.step, len(got), tt.wantLen)
			}
			if got[0] != tt.min {
				t.Errorf("Range(...)[0] = %v, want %v", got[0], tt.min)
			}
			if math.Abs(got[len(got)-1]-tt.wantLast) > 1e-9 {
				t.Errorf("Range(...)[last] = %v, want %v", got[len(got)-1], tt.wantLast)
			}
		})
	}

	t.Run("ZeroStep", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("Range with zero step did not panic")
			}
		}()
		floats.Range(0, 1, 0)
	})
}
