package series

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"BarSentinel/internal/model"
)

var testInstrument = model.NewInstrument("XBTUSD", "XXBTZUSD")

func minuteBars(start time.Time, closes ...float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	prev := closes[0]
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   model.Micros(start.Add(time.Duration(i+1) * time.Minute)),
			Open:   prev,
			High:   max(prev, c) + 0.5,
			Low:    min(prev, c) - 0.5,
			Close:  c,
			Volume: float64(10 * (i + 1)),
		}
		prev = c
	}
	return bars
}

func TestBars_ReverseChronological(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewBars(testInstrument, model.M1, minuteBars(start, 1, 2, 3))
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	newest, _ := s.Last()
	oldest, _ := s.First()
	if newest.Close != 3 || oldest.Close != 1 {
		t.Errorf("newest close = %v, oldest close = %v", newest.Close, oldest.Close)
	}
	if _, err := s.Get(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Get(3): err = %v", err)
	}
	chron := s.Chronological()
	if chron[0].Close != 1 {
		t.Errorf("Chronological()[0].Close = %v, want 1", chron[0].Close)
	}
	if s.Instrument() != testInstrument || !s.Granularity().Equal(model.M1) {
		t.Error("identity not preserved")
	}
}

func TestBars_Projections(t *testing.T) {
	bars := []model.Bar{
		{Time: 1, Open: 1, High: 4, Low: 0, Close: 3, Volume: 5, OpenInterest: 7},
		{Time: 2, Open: 3, High: 6, Low: 2, Close: 4, Volume: 6, OpenInterest: 8},
	}
	s := NewBars(testInstrument, model.Daily, bars)
	assertValues(t, "opens", s.Opens(), []float64{3, 1})
	assertValues(t, "highs", s.Highs(), []float64{6, 4})
	assertValues(t, "lows", s.Lows(), []float64{2, 0})
	assertValues(t, "closes", s.Closes(), []float64{4, 3})
	assertValues(t, "volumes", s.Volumes(), []float64{6, 5})
	assertValues(t, "oi", s.OpenInterests(), []float64{8, 7})
	assertValues(t, "weighted", s.WeightedClose(), []float64{(8 + 6 + 2) / 4.0, (6 + 4 + 0) / 4.0})
	assertValues(t, "typical", s.TypicalPrice(), []float64{4, 7 / 3.0})
	assertValues(t, "median", s.MedianPrice(), []float64{4, 2})
	assertValues(t, "average", s.AveragePrice(), []float64{15 / 4.0, 2})
}

func TestBars_OpensRefForward(t *testing.T) {
	bars := []model.Bar{
		{Time: 1, Open: 10, Close: 11},
		{Time: 2, Open: 11.5, Close: 12},
		{Time: 3, Open: 12.5, Close: 13},
	}
	s := NewBars(testInstrument, model.Daily, bars)
	opens := s.Opens()
	next, err := opens.Ref(-1)
	if err != nil {
		t.Fatalf("Ref(-1): %v", err)
	}
	// index 0 is filled with the newest close, the rest shift toward the past
	assertValues(t, "next-open", next, []float64{13, 12.5, 11.5})

	plain, _ := opens.Ref(-2)
	assertValues(t, "ref-2", plain, []float64{10})

	closes, _ := s.Closes().Ref(-1)
	assertValues(t, "closes-ref", closes, []float64{12, 11})

	empty, err := EmptyBars(testInstrument, model.Daily).Opens().Ref(-1)
	if err != nil || !empty.IsEmpty() {
		t.Errorf("Ref(-1) on empty opens = %v, %v", empty, err)
	}
}

func TestBars_TrueRange(t *testing.T) {
	bars := []model.Bar{
		{Time: 1, High: 10, Low: 8, Close: 9},
		{Time: 2, High: 11, Low: 9, Close: 10},
	}
	s := NewBars(testInstrument, model.Daily, bars)
	assertValues(t, "tr", s.TrueRange(), []float64{2})

	gap := NewBars(testInstrument, model.Daily, []model.Bar{
		{Time: 1, High: 10, Low: 8, Close: 9},
		{Time: 2, High: 15, Low: 13, Close: 14}, // gap up
	})
	assertValues(t, "tr-gap", gap.TrueRange(), []float64{6})

	single := NewBars(testInstrument, model.Daily, bars[:1])
	if !single.TrueRange().IsEmpty() {
		t.Error("true range of one bar should be empty")
	}
}

func TestBars_ATR(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewBars(testInstrument, model.M1, minuteBars(start, 1, 2, 3, 4, 5, 6))
	atr, err := s.ATR(3)
	if err != nil {
		t.Fatalf("ATR: %v", err)
	}
	want, _ := s.TrueRange().Wilders(3)
	assertValues(t, "atr", atr, want.Values())
	if _, err := s.ATR(0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ATR(0): err = %v", err)
	}
}

func TestBars_FindIndex(t *testing.T) {
	bars := []model.Bar{{Time: 100}, {Time: 200}, {Time: 300}, {Time: 400}}
	s := NewBars(testInstrument, model.Daily, bars)
	tests := []struct {
		ts   int64
		want int
	}{
		{400, 0},
		{300, 1},
		{100, 3},
		{350, -2}, // would insert at index 1
		{500, -1},
		{50, -5},
	}
	for _, tt := range tests {
		if got := s.FindIndex(tt.ts); got != tt.want {
			t.Errorf("FindIndex(%d) = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestBars_TrimToLength(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewBars(testInstrument, model.M1, minuteBars(start, 1, 2, 3, 4))
	if s.TrimToLength(4) != s || s.TrimToLength(10) != s {
		t.Error("TrimToLength(n >= len) should return the receiver")
	}
	trimmed := s.TrimToLength(2)
	if trimmed.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", trimmed.Len())
	}
	newest, _ := trimmed.Last()
	oldest, _ := trimmed.First()
	if newest.Close != 4 || oldest.Close != 3 {
		t.Errorf("trim kept %v..%v, want 3..4", oldest.Close, newest.Close)
	}
}

func TestBars_ProjectionCache(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewBars(testInstrument, model.M1, minuteBars(start, 1, 2, 3))
	a := s.Closes()
	b := s.Closes()
	if a != b {
		t.Error("Closes() should be memoized while referenced")
	}
	runtime.KeepAlive(a)

	// a collected entry is rebuilt with the same values
	runtime.GC()
	assertValues(t, "closes", s.Closes(), []float64{3, 2, 1})
}

func TestBars_IndicatorShortcuts(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewBars(testInstrument, model.M1, minuteBars(start, 5, 4, 6, 8, 7, 9, 10, 12))
	direct, _ := s.Closes().EMA(3)
	short, _ := s.EMA(3)
	assertValues(t, "ema", short, direct.Values())

	hh, err := s.HighestHigh(3)
	if err != nil {
		t.Fatalf("HighestHigh: %v", err)
	}
	if hh.Len() != s.Len()-2 {
		t.Errorf("HighestHigh len = %d", hh.Len())
	}
	ll, _ := s.LowestLow(3)
	if v, _ := ll.Last(); v > 10 {
		t.Errorf("LowestLow newest = %v", v)
	}
}
