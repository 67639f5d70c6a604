package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"BarSentinel/internal/model"
)

// CSVSaver writes bars as CSV (header: t,o,h,l,c,v,oi).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(bars []model.Bar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write([]string{"t", "o", "h", "l", "c", "v", "oi"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			strconv.FormatInt(b.Time, 10),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
			strconv.FormatInt(b.OpenInterest, 10),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
