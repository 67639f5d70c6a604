// Package calculator holds the numeric kernels behind the series indicators.
// All slices are newest-first: index 0 is the most recent value.
package calculator

import "errors"

// ErrInvalidPeriod is returned for a non-positive window length.
var ErrInvalidPeriod = errors.New("period must be positive")

// SMA computes the simple moving average over a trailing window of period values.
// The result has len(values)-period+1 entries, or none.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	n := len(values) - period + 1
	if n <= 0 {
		return []float64{}, nil
	}
	out := make([]float64, n)
	coeff := 1.0 / float64(period)
	sum := 0.0
	for i := len(values) - 1; i >= n-1; i-- {
		sum += values[i]
	}
	out[n-1] = sum * coeff
	for i := n - 2; i >= 0; i-- {
		sum += values[i] - values[i+period]
		out[i] = sum * coeff
	}
	return out, nil
}

// EMA computes the exponential moving average with alpha = 2/(period+1),
// seeded with the simple average of the oldest period values.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	return smooth(values, period, 2.0/float64(period+1)), nil
}

// Wilders computes Wilder's smoothing, an EMA with alpha = 1/period.
func Wilders(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	return smooth(values, period, 1.0/float64(period)), nil
}

func smooth(values []float64, period int, alpha float64) []float64 {
	n := len(values) - period + 1
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	v := 0.0
	for i := len(values) - 1; i >= n-1; i-- {
		v += values[i]
	}
	v /= float64(period)
	out[n-1] = v
	for i := n - 2; i >= 0; i-- {
		v += (values[i] - v) * alpha
		out[i] = v
	}
	return out
}

// Differences returns values[i] - values[i+1] for every adjacent pair.
func Differences(values []float64) []float64 {
	if len(values) <= 1 {
		return []float64{}
	}
	out := make([]float64, len(values)-1)
	for i := range out {
		out[i] = values[i] - values[i+1]
	}
	return out
}
