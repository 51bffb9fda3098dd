package output

import (
	"fmt"
	"math"

	"github.com/parquet-go/parquet-go"

	"TechStocks/internal/model"
)

// ProcessedRecord is the Parquet shape of a processed row.
type ProcessedRecord struct {
	Date        string  `parquet:"Date"`
	Ticker      string  `parquet:"Ticker"`
	Open        float64 `parquet:"Open"`
	High        float64 `parquet:"High"`
	Low         float64 `parquet:"Low"`
	Close       float64 `parquet:"Close"`
	Volume      int64   `parquet:"Volume"`
	DailyReturn float64 `parquet:"Daily_Return"`
}

// WriteParquet writes rows to path as a single Parquet file.
func WriteParquet(path string, rows []model.LongRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	records := make([]ProcessedRecord, len(rows))
	for i, r := range rows {
		var vol int64
		if !math.IsNaN(r.Volume) {
			vol = int64(math.Round(r.Volume))
		}
		records[i] = ProcessedRecord{
			Date:        r.Date.Format("2006-01-02"),
			Ticker:      r.Ticker,
			Open:        r.Open,
			High:        r.High,
			Low:         r.Low,
			Close:       r.Close,
			Volume:      vol,
			DailyReturn: r.DailyReturn,
		}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}
