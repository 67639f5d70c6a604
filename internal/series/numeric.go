// Package series implements immutable, reverse-chronological time series:
// index 0 is the newest element and Len()-1 the oldest.
package series

import (
	"fmt"
	"math"
	"strings"

	"BarSentinel/internal/model"
)

// Numeric is an immutable sequence of values at one granularity.
type Numeric struct {
	granularity model.Granularity
	values      []float64

	// hasFill marks an opens projection: Ref(-1) then puts fill at index 0
	// instead of dropping a value.
	hasFill bool
	fill    float64
}

// NewNumeric copies values, which must be newest-first.
func NewNumeric(g model.Granularity, values []float64) *Numeric {
	v := make([]float64, len(values))
	copy(v, values)
	return &Numeric{granularity: g, values: v}
}

// FromChronological builds a series from oldest-first values.
func FromChronological(g model.Granularity, values []float64) *Numeric {
	v := make([]float64, len(values))
	for i, x := range values {
		v[len(values)-1-i] = x
	}
	return &Numeric{granularity: g, values: v}
}

// Empty returns a zero-length series.
func Empty(g model.Granularity) *Numeric {
	return &Numeric{granularity: g, values: []float64{}}
}

// wrap takes ownership of values.
func wrap(g model.Granularity, values []float64) *Numeric {
	if values == nil {
		values = []float64{}
	}
	return &Numeric{granularity: g, values: values}
}

func (s *Numeric) Granularity() model.Granularity { return s.granularity }
func (s *Numeric) Len() int                       { return len(s.values) }
func (s *Numeric) IsEmpty() bool                  { return len(s.values) == 0 }

// Get returns the value at index i.
func (s *Numeric) Get(i int) (float64, error) {
	if i < 0 || i >= len(s.values) {
		return 0, indexError(i, len(s.values))
	}
	return s.values[i], nil
}

// GetOr returns the value at index i, or def when i is out of range.
func (s *Numeric) GetOr(i int, def float64) float64 {
	if i < 0 || i >= len(s.values) {
		return def
	}
	return s.values[i]
}

// First returns the oldest value.
func (s *Numeric) First() (float64, error) { return s.Get(len(s.values) - 1) }

// Last returns the newest value.
func (s *Numeric) Last() (float64, error) { return s.Get(0) }

// Values returns a newest-first copy.
func (s *Numeric) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Chronological returns an oldest-first copy.
func (s *Numeric) Chronological() []float64 {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[len(s.values)-1-i] = v
	}
	return out
}

func (s *Numeric) requireSame(o *Numeric) error {
	if s.granularity.Seconds != o.granularity.Seconds {
		return fmt.Errorf("%w: %s vs %s", ErrGranularityMismatch, s.granularity, o.granularity)
	}
	return nil
}

func (s *Numeric) combine(o *Numeric, f func(a, b float64) float64) (*Numeric, error) {
	if err := s.requireSame(o); err != nil {
		return nil, err
	}
	n := min(len(s.values), len(o.values))
	out := make([]float64, n)
	for i := range out {
		out[i] = f(s.values[i], o.values[i])
	}
	return wrap(s.granularity, out), nil
}

func (s *Numeric) Add(o *Numeric) (*Numeric, error) {
	return s.combine(o, func(a, b float64) float64 { return a + b })
}

func (s *Numeric) Sub(o *Numeric) (*Numeric, error) {
	return s.combine(o, func(a, b float64) float64 { return a - b })
}

func (s *Numeric) Mul(o *Numeric) (*Numeric, error) {
	return s.combine(o, func(a, b float64) float64 { return a * b })
}

func (s *Numeric) Div(o *Numeric) (*Numeric, error) {
	return s.combine(o, func(a, b float64) float64 { return a / b })
}

func (s *Numeric) Min(o *Numeric) (*Numeric, error) { return s.combine(o, math.Min) }
func (s *Numeric) Max(o *Numeric) (*Numeric, error) { return s.combine(o, math.Max) }

// Map applies f to every value.
func (s *Numeric) Map(f func(float64) float64) *Numeric {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = f(v)
	}
	return wrap(s.granularity, out)
}

func (s *Numeric) AddScalar(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return v + x })
}

func (s *Numeric) SubScalar(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return v - x })
}

func (s *Numeric) MulScalar(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return v * x })
}

func (s *Numeric) DivScalar(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return v / x })
}

func (s *Numeric) MinScalar(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return math.Min(v, x) })
}

func (s *Numeric) MaxScalar(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return math.Max(v, x) })
}

// ScalarSub returns x - v for every value v.
func (s *Numeric) ScalarSub(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return x - v })
}

// ScalarDiv returns x / v for every value v.
func (s *Numeric) ScalarDiv(x float64) *Numeric {
	return s.Map(func(v float64) float64 { return x / v })
}

// Ref shifts the series |k| positions toward its oldest end. Ref(0) returns s.
// Looking forward in time (k > 0) is not supported.
//
// On an opens projection Ref(-1) keeps the length: index 0 becomes the close
// of the newest bar and index i the open at i-1.
func (s *Numeric) Ref(k int) (*Numeric, error) {
	switch {
	case k > 0:
		return nil, fmt.Errorf("%w: ref(%d) looks into the future", ErrInvalidInput, k)
	case k == 0:
		return s, nil
	case k == -1 && s.hasFill && len(s.values) > 0:
		out := make([]float64, len(s.values))
		out[0] = s.fill
		copy(out[1:], s.values[:len(s.values)-1])
		return wrap(s.granularity, out), nil
	}
	n := len(s.values) + k
	if n <= 0 {
		return Empty(s.granularity), nil
	}
	out := make([]float64, n)
	copy(out, s.values[-k:])
	return wrap(s.granularity, out), nil
}

func (s *Numeric) String() string {
	var b strings.Builder
	b.WriteString(s.granularity.String())
	b.WriteString("[")
	for i, v := range s.values {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteString("]")
	return b.String()
}
