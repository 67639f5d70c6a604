package saver

import (
	"github.com/parquet-go/parquet-go"

	"BarSentinel/internal/model"
)

// ParquetSaver writes bars as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.Bar, path string) error {
	return parquet.WriteFile(path, toRows(bars))
}

// LoadParquet reads bars written by ParquetSaver.
func LoadParquet(path string) ([]model.Bar, error) {
	rows, err := parquet.ReadFile[row](path)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}
