package model

import "time"

// Bar represents a single candlestick.
// Time is the bar's closing instant in UTC microseconds since the epoch.
type Bar struct {
	Time         int64   `json:"time"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       float64 `json:"volume"`
	OpenInterest int64   `json:"open_interest,omitempty"`
}

// ClosedAt returns the closing instant as a UTC time.
func (b Bar) ClosedAt() time.Time {
	return time.UnixMicro(b.Time).UTC()
}

func (b Bar) IsBullish() bool { return b.Close > b.Open }
func (b Bar) IsBearish() bool { return b.Close < b.Open }
func (b Bar) IsDoji() bool    { return b.Close == b.Open }

// Micros converts t to UTC microseconds since the epoch.
func Micros(t time.Time) int64 {
	return t.UnixMicro()
}
