// Package resample compresses bar series into coarser granularities.
package resample

import (
	"fmt"
	"time"

	"BarSentinel/internal/model"
	"BarSentinel/internal/series"
)

const (
	// referenceYear anchors month buckets so that quarters and years follow the calendar.
	referenceYear = 2001
	microsPerDay  = int64(86400) * 1_000_000
)

// referenceEpoch anchors duration buckets. 2001-01-01 was a Monday, so weekly
// buckets run Monday to Sunday.
var referenceEpoch = time.Date(referenceYear, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMicro()

// Compress aggregates src into bars of the target granularity.
// Bars whose time goes backwards are dropped.
func Compress(target model.Granularity, src *series.Bars) (*series.Bars, error) {
	from := src.Granularity()
	if target.Equal(from) {
		return src, nil
	}
	if !target.ReachableFrom(from) {
		return nil, fmt.Errorf("%w: %s is not reachable from %s", series.ErrInvalidInput, target, from)
	}
	if target.IsMonthBased() {
		return compressMonths(target, src)
	}
	return compressDuration(target, src), nil
}

// bucketer maps a bar time to its bucket key.
type bucketer func(t int64) int64

func compressDuration(target model.Granularity, src *series.Bars) *series.Bars {
	step := target.Seconds * 1_000_000
	var offset int64
	if src.Granularity().IsIntraday() {
		// a bar closing exactly on a boundary belongs to the bucket it closes
		offset = 1
	}
	key := func(t int64) int64 { return floorDiv(t-referenceEpoch-offset, step) }

	var adjust func(*model.Bar)
	if src.Granularity().IsIntraday() && !target.IsIntraday() {
		adjust = func(b *model.Bar) {
			if floorMod(b.Time-referenceEpoch, microsPerDay) == 0 {
				b.Time--
			}
		}
	}
	return series.NewBars(src.Instrument(), target, aggregate(src.Chronological(), key, adjust))
}

func compressMonths(target model.Granularity, src *series.Bars) (*series.Bars, error) {
	if src.Granularity().IsIntraday() && model.Daily.ReachableFrom(src.Granularity()) {
		daily, err := Compress(model.Daily, src)
		if err != nil {
			return nil, fmt.Errorf("compress to daily: %w", err)
		}
		src = daily
	}
	months := int64(target.Months)
	key := func(t int64) int64 {
		tm := time.UnixMicro(t).UTC()
		elapsed := int64(12*(tm.Year()-referenceYear) + int(tm.Month()) - 1)
		return floorDiv(elapsed, months)
	}
	return series.NewBars(src.Instrument(), target, aggregate(src.Chronological(), key, nil)), nil
}

// aggregate folds oldest-first bars into one bar per bucket, oldest first.
// adjust, when set, is applied to every emitted bar.
func aggregate(bars []model.Bar, key bucketer, adjust func(*model.Bar)) []model.Bar {
	out := make([]model.Bar, 0, len(bars)/2+1)
	if len(bars) == 0 {
		return out
	}
	emit := func(b model.Bar) {
		if adjust != nil {
			adjust(&b)
		}
		out = append(out, b)
	}

	agg := bars[0]
	aggKey := key(agg.Time)
	for _, b := range bars[1:] {
		if b.Time < agg.Time {
			continue
		}
		if k := key(b.Time); k != aggKey {
			emit(agg)
			agg, aggKey = b, k
			continue
		}
		agg.High = max(agg.High, b.High)
		agg.Low = min(agg.Low, b.Low)
		agg.Close = b.Close
		agg.Volume += b.Volume
		agg.OpenInterest = b.OpenInterest
		agg.Time = b.Time
	}
	emit(agg)
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
