package calculator

// RSI computes the Wilder-smoothed relative strength index of values.
// The oldest period differences seed the average gain and loss; one RSI value
// is produced per remaining difference, so the result has
// len(values)-1-period entries, or none.
func RSI(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	diffs := Differences(values)
	n := len(diffs) - period
	if n <= 0 {
		return []float64{}, nil
	}

	var avgGain, avgLoss float64
	for i := len(diffs) - 1; i >= n; i-- {
		if d := diffs[i]; d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, n)
	prev := 50.0
	k := float64(period - 1)
	for i := n - 1; i >= 0; i-- {
		gain, loss := 0.0, 0.0
		if d := diffs[i]; d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*k + gain) / float64(period)
		avgLoss = (avgLoss*k + loss) / float64(period)

		// flat stretch: keep the previous reading
		if sum := avgGain + avgLoss; sum != 0 {
			prev = 100 * avgGain / sum
		}
		out[i] = prev
	}
	return out, nil
}
