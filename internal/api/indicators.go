package api

import (
	"sort"

	"BarSentinel/internal/series"
)

type indicatorDef struct {
	periodic       bool
	defaultPeriods int
	compute        func(b *series.Bars, periods int) (*series.Numeric, error)
}

func closes(f func(*series.Numeric, int) (*series.Numeric, error)) func(*series.Bars, int) (*series.Numeric, error) {
	return func(b *series.Bars, p int) (*series.Numeric, error) { return f(b.Closes(), p) }
}

var indicators = map[string]indicatorDef{
	"sma":     {true, 20, closes((*series.Numeric).SMA)},
	"ema":     {true, 20, closes((*series.Numeric).EMA)},
	"wilders": {true, 14, closes((*series.Numeric).Wilders)},
	"dema":    {true, 20, closes((*series.Numeric).DEMA)},
	"tema":    {true, 20, closes((*series.Numeric).TEMA)},
	"tma":     {true, 20, closes((*series.Numeric).TMA)},
	"rsi":     {true, 14, closes((*series.Numeric).RSI)},
	"atr":     {true, 14, (*series.Bars).ATR},
	"highest": {true, 20, (*series.Bars).HighestHigh},
	"lowest":  {true, 20, (*series.Bars).LowestLow},
	"truerange": {compute: func(b *series.Bars, _ int) (*series.Numeric, error) {
		return b.TrueRange(), nil
	}},
	"differences": {compute: func(b *series.Bars, _ int) (*series.Numeric, error) {
		return b.Closes().Differences(), nil
	}},
}

func indicatorNames() []string {
	names := make([]string, 0, len(indicators))
	for n := range indicators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// warmup is how many extra bars an indicator needs before its first value.
func warmup(name string, periods int) int {
	switch name {
	case "dema":
		return 2 * periods
	case "tema":
		return 3 * periods
	case "tma", "ema", "wilders", "rsi", "atr":
		return 2*periods + 1
	}
	return periods + 1
}
