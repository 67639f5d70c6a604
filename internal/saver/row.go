package saver

import "BarSentinel/internal/model"

// row is the file layout of a bar for JSON and Parquet.
type row struct {
	Time         int64   `json:"t" parquet:"t"`
	Open         float64 `json:"o" parquet:"o"`
	High         float64 `json:"h" parquet:"h"`
	Low          float64 `json:"l" parquet:"l"`
	Close        float64 `json:"c" parquet:"c"`
	Volume       float64 `json:"v" parquet:"v"`
	OpenInterest int64   `json:"oi,omitempty" parquet:"oi,optional"`
}

func toRows(bars []model.Bar) []row {
	rows := make([]row, len(bars))
	for i, b := range bars {
		rows[i] = row{b.Time, b.Open, b.High, b.Low, b.Close, b.Volume, b.OpenInterest}
	}
	return rows
}

func fromRows(rows []row) []model.Bar {
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{Time: r.Time, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume, OpenInterest: r.OpenInterest}
	}
	return bars
}
