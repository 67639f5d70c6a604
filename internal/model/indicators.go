package model

// Snapshot holds the latest indicator values of one instrument at one granularity.
type Snapshot struct {
	Instrument  Instrument  `json:"instrument"`
	Granularity Granularity `json:"granularity"`
	Time        int64       `json:"time"` // closing instant of the newest bar
	Bars        int         `json:"bars"`
	Close       float64     `json:"close"`
	SMA         float64     `json:"sma"`
	EMA         float64     `json:"ema"`
	RSI         float64     `json:"rsi"`
	ATR         float64     `json:"atr"`
	RangeHigh   float64     `json:"range_high"`
	RangeLow    float64     `json:"range_low"`
	Position    float64     `json:"position"` // 0.0 ~ 1.0 within [RangeLow, RangeHigh]
}

// IndicatorPeriods configures the windows used to build a Snapshot.
type IndicatorPeriods struct {
	SMA   int `yaml:"sma" validate:"gt=0"`
	EMA   int `yaml:"ema" validate:"gt=0"`
	RSI   int `yaml:"rsi" validate:"gt=0"`
	ATR   int `yaml:"atr" validate:"gt=0"`
	Range int `yaml:"range" validate:"gt=0"`
}

// DefaultIndicatorPeriods mirrors common charting defaults.
func DefaultIndicatorPeriods() IndicatorPeriods {
	return IndicatorPeriods{SMA: 20, EMA: 20, RSI: 14, ATR: 14, Range: 52}
}
