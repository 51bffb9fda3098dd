package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"TechStocks/internal/model"
)

// HistoryHeader is the column set of the per-ticker history file.
var HistoryHeader = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume", "Dividends", "Stock Splits"}

// ProcessedHeader is the column set of the processed returns file.
var ProcessedHeader = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume", "Daily_Return"}

const historyDateLayout = "2006-01-02 15:04:05-07:00"

// CreateTruncated opens path for writing, creating parent directories and
// discarding any previous content.
func CreateTruncated(path string) (*os.File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return nil
}

// HistoryWriter appends ticker blocks to one CSV stream. The header is
// written on the first call to WriteBars only.
type HistoryWriter struct {
	w          *csv.Writer
	firstWrite bool
	rows       int
}

// NewHistoryWriter wraps w.
func NewHistoryWriter(w io.Writer) *HistoryWriter {
	return &HistoryWriter{w: csv.NewWriter(w), firstWrite: true}
}

// WriteBars writes one row per bar with the date followed by the ticker and
// flushes, so a later failure leaves every completed ticker on disk.
func (h *HistoryWriter) WriteBars(ticker string, bars []model.OHLCV) error {
	if h.firstWrite {
		if err := h.w.Write(HistoryHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		h.firstWrite = false
	}
	for _, b := range bars {
		if err := h.w.Write([]string{
			b.Time.Format(historyDateLayout),
			ticker,
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			intStr(b.Volume),
			floatStr(b.Dividends),
			floatStr(b.StockSplits),
		}); err != nil {
			return fmt.Errorf("write %s row: %w", ticker, err)
		}
		h.rows++
	}
	h.w.Flush()
	return h.w.Error()
}

// Rows returns the number of data rows written so far.
func (h *HistoryWriter) Rows() int { return h.rows }

// WriteProcessed writes the processed dataset: no index column, floats with
// six decimals, Volume as an integer and missing cells left empty.
func WriteProcessed(w io.Writer, rows []model.LongRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ProcessedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Date.Format("2006-01-02"),
			r.Ticker,
			fixed6(r.Open),
			fixed6(r.High),
			fixed6(r.Low),
			fixed6(r.Close),
			intStr(r.Volume),
			fixed6(r.DailyReturn),
		}); err != nil {
			return fmt.Errorf("write %s row: %w", r.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func floatStr(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fixed6(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}

func intStr(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatInt(int64(math.Round(f)), 10)
}
