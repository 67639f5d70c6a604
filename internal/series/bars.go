package series

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"BarSentinel/internal/model"
)

// Bars is an immutable sequence of bars of one instrument, newest first.
// Timestamps never increase with the index; equal timestamps are allowed.
type Bars struct {
	instrument  model.Instrument
	granularity model.Granularity
	bars        []model.Bar
	cache       *projectionCache
}

// NewBars builds a series from oldest-first bars.
func NewBars(inst model.Instrument, g model.Granularity, chronological []model.Bar) *Bars {
	bars := make([]model.Bar, len(chronological))
	for i, b := range chronological {
		bars[len(chronological)-1-i] = b
	}
	return newBars(inst, g, bars)
}

// EmptyBars returns a zero-length series.
func EmptyBars(inst model.Instrument, g model.Granularity) *Bars {
	return newBars(inst, g, []model.Bar{})
}

func newBars(inst model.Instrument, g model.Granularity, newestFirst []model.Bar) *Bars {
	return &Bars{instrument: inst, granularity: g, bars: newestFirst, cache: &projectionCache{}}
}

func (s *Bars) Instrument() model.Instrument   { return s.instrument }
func (s *Bars) Granularity() model.Granularity { return s.granularity }
func (s *Bars) Len() int                       { return len(s.bars) }
func (s *Bars) IsEmpty() bool                  { return len(s.bars) == 0 }

// Get returns the bar at index i.
func (s *Bars) Get(i int) (model.Bar, error) {
	if i < 0 || i >= len(s.bars) {
		return model.Bar{}, indexError(i, len(s.bars))
	}
	return s.bars[i], nil
}

// First returns the oldest bar.
func (s *Bars) First() (model.Bar, error) { return s.Get(len(s.bars) - 1) }

// Last returns the newest bar.
func (s *Bars) Last() (model.Bar, error) { return s.Get(0) }

// Chronological returns an oldest-first copy of the bars.
func (s *Bars) Chronological() []model.Bar {
	out := make([]model.Bar, len(s.bars))
	for i, b := range s.bars {
		out[len(s.bars)-1-i] = b
	}
	return out
}

func (s *Bars) project(f field, value func(model.Bar) float64) *Numeric {
	return s.cache.load(f, func() *Numeric {
		out := make([]float64, len(s.bars))
		for i, b := range s.bars {
			out[i] = value(b)
		}
		return wrap(s.granularity, out)
	})
}

// Opens projects bar opens. Its Ref(-1) pairs each bar with the open of the
// bar after it, using the newest close at index 0.
func (s *Bars) Opens() *Numeric {
	return s.cache.load(fieldOpen, func() *Numeric {
		out := make([]float64, len(s.bars))
		for i, b := range s.bars {
			out[i] = b.Open
		}
		n := wrap(s.granularity, out)
		if len(s.bars) > 0 {
			n.hasFill = true
			n.fill = s.bars[0].Close
		}
		return n
	})
}

func (s *Bars) Highs() *Numeric {
	return s.project(fieldHigh, func(b model.Bar) float64 { return b.High })
}

func (s *Bars) Lows() *Numeric {
	return s.project(fieldLow, func(b model.Bar) float64 { return b.Low })
}

func (s *Bars) Closes() *Numeric {
	return s.project(fieldClose, func(b model.Bar) float64 { return b.Close })
}

func (s *Bars) Volumes() *Numeric {
	return s.project(fieldVolume, func(b model.Bar) float64 { return b.Volume })
}

func (s *Bars) OpenInterests() *Numeric {
	return s.project(fieldOpenInterest, func(b model.Bar) float64 { return float64(b.OpenInterest) })
}

// WeightedClose is (2*close + high + low) / 4.
func (s *Bars) WeightedClose() *Numeric {
	return s.project(fieldWeightedClose, func(b model.Bar) float64 {
		return (2*b.Close + b.High + b.Low) / 4
	})
}

// TypicalPrice is (high + low + close) / 3.
func (s *Bars) TypicalPrice() *Numeric {
	return s.project(fieldTypicalPrice, func(b model.Bar) float64 {
		return (b.High + b.Low + b.Close) / 3
	})
}

// MedianPrice is (high + low) / 2.
func (s *Bars) MedianPrice() *Numeric {
	return s.project(fieldMedianPrice, func(b model.Bar) float64 {
		return (b.High + b.Low) / 2
	})
}

// AveragePrice is (open + high + low + close) / 4.
func (s *Bars) AveragePrice() *Numeric {
	return s.project(fieldAveragePrice, func(b model.Bar) float64 {
		return (b.Open + b.High + b.Low + b.Close) / 4
	})
}

// TrueRange pairs every bar with the previous bar's close:
// max(high, prevClose) - min(low, prevClose). It is Len()-1 long.
func (s *Bars) TrueRange() *Numeric {
	return s.cache.load(fieldTrueRange, func() *Numeric {
		n := len(s.bars) - 1
		if n <= 0 {
			return Empty(s.granularity)
		}
		out := make([]float64, n)
		for i := range out {
			prevClose := s.bars[i+1].Close
			out[i] = math.Max(s.bars[i].High, prevClose) - math.Min(s.bars[i].Low, prevClose)
		}
		return wrap(s.granularity, out)
	})
}

// ATR is the average true range, TrueRange().Wilders(periods).
func (s *Bars) ATR(periods int) (*Numeric, error) {
	return s.TrueRange().Wilders(periods)
}

func (s *Bars) SMA(periods int) (*Numeric, error)     { return s.Closes().SMA(periods) }
func (s *Bars) EMA(periods int) (*Numeric, error)     { return s.Closes().EMA(periods) }
func (s *Bars) DEMA(periods int) (*Numeric, error)    { return s.Closes().DEMA(periods) }
func (s *Bars) TEMA(periods int) (*Numeric, error)    { return s.Closes().TEMA(periods) }
func (s *Bars) TMA(periods int) (*Numeric, error)     { return s.Closes().TMA(periods) }
func (s *Bars) Wilders(periods int) (*Numeric, error) { return s.Closes().Wilders(periods) }
func (s *Bars) RSI(periods int) (*Numeric, error)     { return s.Closes().RSI(periods) }

// HighestHigh is the rolling maximum of highs.
func (s *Bars) HighestHigh(periods int) (*Numeric, error) { return s.Highs().Highest(periods) }

// LowestLow is the rolling minimum of lows.
func (s *Bars) LowestLow(periods int) (*Numeric, error) { return s.Lows().Lowest(periods) }

// FindIndex binary-searches the newest-first bars for a closing time.
// It returns the index of a matching bar, or -(insertionPoint)-1.
func (s *Bars) FindIndex(timestamp int64) int {
	// first index whose time is <= timestamp
	i := sort.Search(len(s.bars), func(i int) bool { return s.bars[i].Time <= timestamp })
	if i < len(s.bars) && s.bars[i].Time == timestamp {
		return i
	}
	return -i - 1
}

// TrimToLength keeps the newest n bars. It returns s when n >= Len().
func (s *Bars) TrimToLength(n int) *Bars {
	if n >= len(s.bars) {
		return s
	}
	if n < 0 {
		n = 0
	}
	bars := make([]model.Bar, n)
	copy(bars, s.bars[:n])
	return newBars(s.instrument, s.granularity, bars)
}

func (s *Bars) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%d bars)", s.instrument, s.granularity, len(s.bars))
	if len(s.bars) > 0 {
		fmt.Fprintf(&b, " %s .. %s", s.bars[len(s.bars)-1].ClosedAt().Format("2006-01-02 15:04"),
			s.bars[0].ClosedAt().Format("2006-01-02 15:04"))
	}
	return b.String()
}
