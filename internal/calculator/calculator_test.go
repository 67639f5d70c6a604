package calculator

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool { return math.Abs(a-b) < eps }

func equalSlices(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d (%v)", name, len(got), len(want), got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestSMA(t *testing.T) {
	// newest first: 5 is the latest value
	values := []float64{5, 4, 3, 2, 1}
	got, err := SMA(values, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	equalSlices(t, "sma3", got, []float64{4, 3, 2})

	got, _ = SMA(values, 1)
	equalSlices(t, "sma1", got, values)

	got, _ = SMA(values, 6)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	for _, p := range []int{0, -3} {
		if _, err := SMA([]float64{1, 2}, p); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("SMA period %d: err = %v, want ErrInvalidPeriod", p, err)
		}
	}
	if _, err := EMA(nil, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("EMA: expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := RSI(nil, -1); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("RSI: expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEMA(t *testing.T) {
	values := []float64{10, 8, 6, 4, 2}
	got, err := EMA(values, 3)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}
	// seed = avg(2,4,6) = 4, alpha = 0.5: 4 -> 6 -> 8
	equalSlices(t, "ema3", got, []float64{8, 6, 4})
}

func TestWilders(t *testing.T) {
	values := []float64{10, 8, 6, 4, 2}
	got, err := Wilders(values, 2)
	if err != nil {
		t.Fatalf("Wilders: %v", err)
	}
	// seed = avg(2,4) = 3, alpha = 0.5: 3 -> 4.5 -> 6.25 -> 8.125
	equalSlices(t, "wilders2", got, []float64{8.125, 6.25, 4.5, 3})
}

func TestDifferences(t *testing.T) {
	equalSlices(t, "diff", Differences([]float64{4, 1, 3}), []float64{3, -2})
	if got := Differences([]float64{1}); len(got) != 0 {
		t.Errorf("expected empty differences, got %v", got)
	}
}

func TestRSI_AllRising(t *testing.T) {
	const period = 5
	values := make([]float64, period+6)
	for i := range values {
		values[i] = float64(len(values) - i) // newest is the largest
	}
	got, err := RSI(values, period)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if len(got) != len(values)-1-period {
		t.Fatalf("len = %d, want %d", len(got), len(values)-1-period)
	}
	for i, v := range got {
		if v != 100 {
			t.Errorf("rsi[%d] = %v, want 100", i, v)
		}
	}
}

func TestRSI_ShortInput(t *testing.T) {
	got, err := RSI([]float64{3, 2, 1}, 2)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty RSI for length periods+1, got %v", got)
	}
}

func TestRSI_FlatKeepsPrevious(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1}
	got, _ := RSI(values, 2)
	equalSlices(t, "flat", got, []float64{50, 50})
}

func TestRSI_Mixed(t *testing.T) {
	// chronological: 1, 2, 1, 2 -> diffs newest first: +1, -1, +1
	values := []float64{2, 1, 2, 1}
	got, _ := RSI(values, 2)
	// seed over oldest two diffs (-1, +1): gain 0.5, loss 0.5
	// next diff +1: gain 0.75, loss 0.25 -> 75
	equalSlices(t, "mixed", got, []float64{75})
}

func TestHighestLowest(t *testing.T) {
	values := []float64{3, 9, 1, 4, 7}
	hi, err := Highest(values, 3)
	if err != nil {
		t.Fatalf("Highest: %v", err)
	}
	equalSlices(t, "highest", hi, []float64{9, 9, 7})
	lo, _ := Lowest(values, 3)
	equalSlices(t, "lowest", lo, []float64{1, 1, 1})
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		cur, high, low, want float64
		wantErr              bool
	}{
		{5, 10, 0, 0.5, false},
		{12, 10, 0, 1, false},
		{-1, 10, 0, 0, false},
		{7, 7, 7, 0.5, false},
		{5, 0, 10, 0, true},
	}
	for _, tt := range tests {
		got, err := RangePosition(tt.cur, tt.high, tt.low)
		if (err != nil) != tt.wantErr {
			t.Errorf("RangePosition(%v,%v,%v) err = %v", tt.cur, tt.high, tt.low, err)
			continue
		}
		if !tt.wantErr && !almostEqual(got, tt.want) {
			t.Errorf("RangePosition(%v,%v,%v) = %v, want %v", tt.cur, tt.high, tt.low, got, tt.want)
		}
	}
}
