package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEMALength(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name   string
		period int
		want   int
	}{
		{"period 1", 1, 10},
		{"period 3", 3, 8},
		{"period equals length", 10, 1},
		{"period exceeds length", 11, 0},
		{"zero period", 0, 0},
		{"negative period", -2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EMA(tt.period, series)
			if len(got) != tt.want {
				t.Errorf("EMA(%d) length = %d, want %d", tt.period, len(got), tt.want)
			}
		})
	}
}

func TestEMASeedIsSimpleAverage(t *testing.T) {
	series := []float64{2, 4, 6, 8}

	got := EMA(3, series)
	if len(got) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(got))
	}
	if !almostEqual(got[0], 4) {
		t.Errorf("seed = %v, want 4 (simple average of first 3)", got[0])
	}

	// Second output: alpha = 2/4 = 0.5, so 0.5*8 + 0.5*4 = 6.
	if !almostEqual(got[1], 6) {
		t.Errorf("second output = %v, want 6", got[1])
	}
}

func TestEMARecurrence(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	period := 2
	alpha := 2.0 / 3.0

	got := EMA(period, series)
	if len(got) != 9 {
		t.Fatalf("expected 9 outputs, got %d", len(got))
	}

	prev := 1.5 // average of first two samples
	if !almostEqual(got[0], prev) {
		t.Fatalf("seed = %v, want %v", got[0], prev)
	}
	for i, v := range series[period:] {
		prev = alpha*v + (1-alpha)*prev
		if !almostEqual(got[i+1], prev) {
			t.Errorf("output[%d] = %v, want %v", i+1, got[i+1], prev)
		}
	}
}

func TestEMAMonotoneSeriesOrdersFastAboveSlow(t *testing.T) {
	// On a strictly rising series the shorter-period EMA tracks price more
	// closely and must end above the longer-period EMA.
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	fast := EMA(2, series)
	slow := EMA(3, series)

	if fast[len(fast)-1] <= slow[len(slow)-1] {
		t.Errorf("fast EMA %v should exceed slow EMA %v on rising series",
			fast[len(fast)-1], slow[len(slow)-1])
	}
}

func TestLastTwo(t *testing.T) {
	if _, _, ok := LastTwo([]float64{1}); ok {
		t.Error("LastTwo should fail on a single-element series")
	}
	prev, last, ok := LastTwo([]float64{1, 2, 3})
	if !ok || prev != 2 || last != 3 {
		t.Errorf("LastTwo = (%v, %v, %v), want (2, 3, true)", prev, last, ok)
	}
}
