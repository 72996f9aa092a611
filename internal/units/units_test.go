package units

import (
	"math"
	"testing"
)

func TestSlopePctToDegrees(t *testing.T) {
	tests := []struct {
		name string
		pct  float64
		want float64
	}{
		{name: "level", pct: 0, want: 0},
		{name: "full gradient is 45 degrees", pct: 100, want: 45},
		{name: "ten percent", pct: 10, want: 5.7105931375},
		{name: "descent keeps sign", pct: -20, want: -11.3099324740},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SlopePctToDegrees(tc.pct)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("SlopePctToDegrees(%v): got %v, want %v", tc.pct, got, tc.want)
			}
		})
	}
}

func TestKmhToMs(t *testing.T) {
	if got := KmhToMs(3.6); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("KmhToMs(3.6): got %v, want 1.0", got)
	}
	if got := KmhToMs(8); math.Abs(got-2.2222222222) > 1e-6 {
		t.Errorf("KmhToMs(8): got %v", got)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{150.696, 150.70},
		{131.044, 131.04},
		{77.699, 77.70},
		{-4.954, -4.95},
	}
	for _, tc := range tests {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(120, 0, 100); got != 100 {
		t.Errorf("Clamp high: got %v", got)
	}
	if got := Clamp(-3, 0, 100); got != 0 {
		t.Errorf("Clamp low: got %v", got)
	}
	if got := Clamp(42, 0, 100); got != 42 {
		t.Errorf("Clamp pass-through: got %v", got)
	}
}
