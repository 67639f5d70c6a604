package series

import (
	"fmt"

	"BarSentinel/internal/calculator"
)

func (s *Numeric) kernel(name string, periods int, f func([]float64, int) ([]float64, error)) (*Numeric, error) {
	out, err := f(s.values, periods)
	if err != nil {
		return nil, fmt.Errorf("%w: %s(%d): %w", ErrInvalidInput, name, periods, err)
	}
	return wrap(s.granularity, out), nil
}

// SMA is the simple moving average. SMA(1) equals s.
func (s *Numeric) SMA(periods int) (*Numeric, error) {
	return s.kernel("sma", periods, calculator.SMA)
}

// EMA is the exponential moving average with alpha = 2/(periods+1).
func (s *Numeric) EMA(periods int) (*Numeric, error) {
	return s.kernel("ema", periods, calculator.EMA)
}

// Wilders is Wilder's smoothing, alpha = 1/periods.
func (s *Numeric) Wilders(periods int) (*Numeric, error) {
	return s.kernel("wilders", periods, calculator.Wilders)
}

// DEMA = 2*ema1 - ema2, where ema2 = ema1.EMA(periods).
func (s *Numeric) DEMA(periods int) (*Numeric, error) {
	ema1, err := s.EMA(periods)
	if err != nil {
		return nil, err
	}
	ema2, err := ema1.EMA(periods)
	if err != nil {
		return nil, err
	}
	return ema1.MulScalar(2).Sub(ema2)
}

// TEMA = 3*ema1 - 3*ema2 + ema3.
func (s *Numeric) TEMA(periods int) (*Numeric, error) {
	ema1, err := s.EMA(periods)
	if err != nil {
		return nil, err
	}
	ema2, err := ema1.EMA(periods)
	if err != nil {
		return nil, err
	}
	ema3, err := ema2.EMA(periods)
	if err != nil {
		return nil, err
	}
	d, err := ema1.Sub(ema2)
	if err != nil {
		return nil, err
	}
	return d.MulScalar(3).Add(ema3)
}

// TMA is the triangular moving average, SMA of SMA.
func (s *Numeric) TMA(periods int) (*Numeric, error) {
	sma, err := s.SMA(periods)
	if err != nil {
		return nil, err
	}
	return sma.SMA(periods)
}

// Differences returns value[i] - value[i+1].
func (s *Numeric) Differences() *Numeric {
	return wrap(s.granularity, calculator.Differences(s.values))
}

// RSI is the Wilder-smoothed relative strength index, Differences().Len()-periods long.
func (s *Numeric) RSI(periods int) (*Numeric, error) {
	return s.kernel("rsi", periods, calculator.RSI)
}

// Highest is the rolling maximum over periods values.
func (s *Numeric) Highest(periods int) (*Numeric, error) {
	return s.kernel("highest", periods, calculator.Highest)
}

// Lowest is the rolling minimum over periods values.
func (s *Numeric) Lowest(periods int) (*Numeric, error) {
	return s.kernel("lowest", periods, calculator.Lowest)
}
