package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ColumnKey addresses one column of a WideTable.
type ColumnKey struct {
	Field  Field
	Ticker string
}

// WideTable holds prices for many tickers with one row per date and one
// column per (field, ticker) pair. Missing cells are NaN.
type WideTable struct {
	Dates   []time.Time
	Tickers []string
	columns map[ColumnKey][]float64
}

// NewWideTable allocates a table with every cell missing.
func NewWideTable(dates []time.Time, tickers []string) *WideTable {
	t := &WideTable{
		Dates:   dates,
		Tickers: tickers,
		columns: make(map[ColumnKey][]float64, len(PriceFields)*len(tickers)),
	}
	for _, f := range PriceFields {
		for _, tk := range tickers {
			col := make([]float64, len(dates))
			for i := range col {
				col[i] = math.NaN()
			}
			t.columns[ColumnKey{Field: f, Ticker: tk}] = col
		}
	}
	return t
}

// Set stores v at (row, field, ticker).
func (t *WideTable) Set(row int, f Field, ticker string, v float64) error {
	col, ok := t.columns[ColumnKey{Field: f, Ticker: ticker}]
	if !ok {
		return fmt.Errorf("unknown column (%s, %s)", f, ticker)
	}
	if row < 0 || row >= len(col) {
		return fmt.Errorf("row %d out of range [0,%d)", row, len(col))
	}
	col[row] = v
	return nil
}

// Value returns the cell at (row, field, ticker) and whether it is present.
func (t *WideTable) Value(row int, f Field, ticker string) (float64, bool) {
	col, ok := t.columns[ColumnKey{Field: f, Ticker: ticker}]
	if !ok || row < 0 || row >= len(col) {
		return math.NaN(), false
	}
	v := col[row]
	return v, !math.IsNaN(v)
}

// Rows returns the number of dates in the table.
func (t *WideTable) Rows() int { return len(t.Dates) }

// WideTableFromSeries assembles per-ticker bar series into one table. Rows are
// the ascending union of trading days across all series (time of day and zone
// dropped) and tickers are sorted ascending. A ticker without a bar on some
// day keeps NaN cells for that row.
func WideTableFromSeries(series map[string][]OHLCV) (*WideTable, error) {
	tickers := make([]string, 0, len(series))
	days := make(map[time.Time]struct{})
	for tk, bars := range series {
		tickers = append(tickers, tk)
		for _, b := range bars {
			days[civilDay(b.Time)] = struct{}{}
		}
	}
	sort.Strings(tickers)

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	rowOf := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		rowOf[d] = i
	}

	t := NewWideTable(dates, tickers)
	for tk, bars := range series {
		for _, b := range bars {
			row := rowOf[civilDay(b.Time)]
			for _, f := range PriceFields {
				if err := t.Set(row, f, tk, b.Value(f)); err != nil {
					return nil, err
				}
			}
		}
	}
	return t, nil
}

func civilDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
