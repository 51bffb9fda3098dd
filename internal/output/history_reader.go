package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"TechStocks/internal/model"
)

// ErrMalformedHistory is returned when the history file has no header or lacks
// a required column.
var ErrMalformedHistory = errors.New("malformed history file")

// History is the per-ticker content of a history file.
type History struct {
	Series  map[string][]model.OHLCV // bars per ticker in file order
	Tickers []string                 // first-seen order
	Skipped int                      // rows that could not be parsed
}

// ReadHistory parses a file written by HistoryWriter. Columns are located by
// header name. Only the calendar day of Date is kept. Rows with a bad date,
// ticker or price are counted in Skipped and otherwise ignored.
func ReadHistory(r io.Reader) (*History, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedHistory)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"Date", "Ticker", "Close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing %s column", ErrMalformedHistory, name)
		}
	}

	h := &History{Series: make(map[string][]model.OHLCV)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		ticker, bar, ok := parseHistoryRow(rec, col)
		if !ok {
			h.Skipped++
			continue
		}
		if _, seen := h.Series[ticker]; !seen {
			h.Tickers = append(h.Tickers, ticker)
		}
		h.Series[ticker] = append(h.Series[ticker], bar)
	}
	return h, nil
}

func parseHistoryRow(rec []string, col map[string]int) (string, model.OHLCV, bool) {
	field := func(name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}
	// Optional columns absent from the header read as NaN.
	number := func(name string) (float64, bool) {
		if _, ok := col[name]; !ok {
			return math.NaN(), true
		}
		s, ok := field(name)
		if !ok {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}

	date, _ := field("Date")
	if len(date) < len("2006-01-02") {
		return "", model.OHLCV{}, false
	}
	day, err := time.Parse("2006-01-02", date[:10])
	if err != nil {
		return "", model.OHLCV{}, false
	}
	ticker, _ := field("Ticker")
	if ticker == "" {
		return "", model.OHLCV{}, false
	}

	bar := model.OHLCV{Time: day}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"Open", &bar.Open},
		{"High", &bar.High},
		{"Low", &bar.Low},
		{"Close", &bar.Close},
		{"Volume", &bar.Volume},
		{"Dividends", &bar.Dividends},
		{"Stock Splits", &bar.StockSplits},
	} {
		v, ok := number(f.name)
		if !ok {
			return "", model.OHLCV{}, false
		}
		*f.dst = v
	}
	return ticker, bar, true
}
