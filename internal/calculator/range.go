package calculator

import (
	"errors"
	"math"
)

// Highest returns the rolling maximum over a trailing window of period values.
func Highest(values []float64, period int) ([]float64, error) {
	return rolling(values, period, math.Max)
}

// Lowest returns the rolling minimum over a trailing window of period values.
func Lowest(values []float64, period int) ([]float64, error) {
	return rolling(values, period, math.Min)
}

func rolling(values []float64, period int, pick func(a, b float64) float64) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	n := len(values) - period + 1
	if n <= 0 {
		return []float64{}, nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := values[i]
		for j := i + 1; j < i+period; j++ {
			v = pick(v, values[j])
		}
		out[i] = v
	}
	return out, nil
}

// RangePosition returns where current sits within [low, high], clamped to 0.0~1.0.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
