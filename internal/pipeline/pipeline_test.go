package pipeline

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"TechStocks/internal/collector"
	"TechStocks/internal/model"
	"TechStocks/internal/recorder"
	"TechStocks/internal/strategy"
	"TechStocks/internal/tickers"
)

// memRecorder keeps events in memory.
type memRecorder struct {
	runs      []recorder.RunEvent
	tickers   []recorder.TickerFetchEvent
	backtests []recorder.BacktestEvent
}

func (m *memRecorder) RecordRun(run *recorder.RunEvent) error {
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memRecorder) RecordTickerFetch(evt *recorder.TickerFetchEvent) error {
	m.tickers = append(m.tickers, *evt)
	return nil
}

func (m *memRecorder) RecordBacktest(evt *recorder.BacktestEvent) error {
	m.backtests = append(m.backtests, *evt)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func series(closes ...float64) []model.OHLCV {
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{
			Time:   time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

func writeTickers(t *testing.T, dir string, list ...string) string {
	t.Helper()
	path := filepath.Join(dir, "tech_stocks.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(list, "\n")+"\n"), 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func newRunner(t *testing.T, f collector.Fetcher) (*Runner, *memRecorder) {
	rec := &memRecorder{}
	return NewRunner(f, rec, zaptest.NewLogger(t)), rec
}

func TestFetch_HeaderOnceAndTickerOrder(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{Series: map[string][]model.OHLCV{
		"MSFT": series(370, 372),
		"AAPL": series(100, 101, 99),
		"NVDA": series(480),
	}}
	r, rec := newRunner(t, fetcher)

	opts := FetchOptions{
		TickersFile: writeTickers(t, dir, "MSFT", "AAPL", "NVDA"),
		Output:      filepath.Join(dir, "tech_stocks_data.csv"),
		Period:      "1y",
		Interval:    "1d",
	}
	res, err := r.Fetch(t.Context(), opts)
	require.NoError(t, err)
	require.Equal(t, 3, res.Tickers)
	require.Equal(t, 6, res.Rows)
	require.Equal(t, []string{"MSFT", "AAPL", "NVDA"}, fetcher.Calls)

	records := readCSV(t, opts.Output)
	require.Len(t, records, 1+6)
	require.Equal(t, []string{"Date", "Ticker"}, records[0][:2])
	headers := 0
	for _, row := range records {
		if row[1] == "Ticker" {
			headers++
		}
	}
	require.Equal(t, 1, headers)

	var order []string
	for _, row := range records[1:] {
		if len(order) == 0 || order[len(order)-1] != row[1] {
			order = append(order, row[1])
		}
	}
	require.Equal(t, []string{"MSFT", "AAPL", "NVDA"}, order)

	require.Len(t, rec.runs, 1)
	require.Equal(t, recorder.StatusOK, rec.runs[0].Status)
	require.Equal(t, NameFetch, rec.runs[0].Pipeline)
	require.Equal(t, 6, rec.runs[0].RowCount)
	require.Len(t, rec.tickers, 3)
	require.Equal(t, 3, rec.tickers[1].Rows)
}

func TestFetch_RerunOverwrites(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{Series: map[string][]model.OHLCV{"AAPL": series(100, 101)}}
	r, _ := newRunner(t, fetcher)
	opts := FetchOptions{
		TickersFile: writeTickers(t, dir, "AAPL"),
		Output:      filepath.Join(dir, "tech_stocks_data.csv"),
	}

	_, err := r.Fetch(t.Context(), opts)
	require.NoError(t, err)
	first, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	_, err = r.Fetch(t.Context(), opts)
	require.NoError(t, err)
	second, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	require.Equal(t, string(first), string(second))
	require.Len(t, readCSV(t, opts.Output), 3)
}

func TestFetch_ProviderFailureLeavesPrefix(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{
		Series: map[string][]model.OHLCV{"AAPL": series(100, 101)},
		Errors: map[string]error{"BAD": errors.New("delisted")},
	}
	r, rec := newRunner(t, fetcher)
	opts := FetchOptions{
		TickersFile: writeTickers(t, dir, "AAPL", "BAD", "MSFT"),
		Output:      filepath.Join(dir, "tech_stocks_data.csv"),
	}

	_, err := r.Fetch(t.Context(), opts)
	require.ErrorIs(t, err, collector.ErrProvider)
	require.Contains(t, err.Error(), "BAD")
	require.Equal(t, []string{"AAPL", "BAD"}, fetcher.Calls)

	records := readCSV(t, opts.Output)
	require.Len(t, records, 3)
	require.Equal(t, "Date", records[0][0])
	require.Equal(t, "AAPL", records[2][1])

	require.Len(t, rec.runs, 1)
	require.Equal(t, recorder.StatusFailed, rec.runs[0].Status)
	require.Equal(t, 2, rec.runs[0].RowCount)
}

func TestPipelines_MissingTickerFile(t *testing.T) {
	dir := t.TempDir()
	r, rec := newRunner(t, &collector.MockFetcher{Price: 100, Days: 3})
	missing := filepath.Join(dir, "tech_stocks.txt")

	fetchOut := filepath.Join(dir, "tech_stocks_data.csv")
	_, err := r.Fetch(t.Context(), FetchOptions{TickersFile: missing, Output: fetchOut})
	require.ErrorIs(t, err, tickers.ErrNotFound)
	require.NoFileExists(t, fetchOut)

	processOut := filepath.Join(dir, "tech_stocks_processed.csv")
	_, err = r.Process(t.Context(), ProcessOptions{TickersFile: missing, Output: processOut})
	require.ErrorIs(t, err, tickers.ErrNotFound)
	require.NoFileExists(t, processOut)

	require.Len(t, rec.runs, 2)
	for _, run := range rec.runs {
		require.Equal(t, recorder.StatusFailed, run.Status)
	}
}

func TestProcess_ReturnsAndShape(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{Series: map[string][]model.OHLCV{
		"AAPL": series(100, 101, 99),
		"MSFT": series(370, 366.3, 370),
	}}
	r, rec := newRunner(t, fetcher)
	opts := ProcessOptions{
		TickersFile:  writeTickers(t, dir, "MSFT", "AAPL"),
		Output:       filepath.Join(dir, "tech_stocks_processed.csv"),
		ParquetPath:  filepath.Join(dir, "out", "tech_stocks_processed.parquet"),
		Period:       "5y",
		Interval:     "1d",
		SampleTicker: "MSFT",
	}

	res, err := r.Process(t.Context(), opts)
	require.NoError(t, err)
	require.Equal(t, 3*2, res.Rows, "trading days x tickers")
	require.FileExists(t, opts.ParquetPath)

	records := readCSV(t, opts.Output)
	require.Equal(t, []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume", "Daily_Return"}, records[0])
	require.Len(t, records, 1+6)

	returns := map[string][]string{}
	for _, row := range records[1:] {
		returns[row[1]] = append(returns[row[1]], row[7])
	}
	require.Equal(t, []string{"0.000000", "0.010000", "-0.019802"}, returns["AAPL"])
	require.Equal(t, []string{"0.000000", "-0.010000", "0.010101"}, returns["MSFT"])

	require.Equal(t, []string{"2024-01-02", "AAPL", "100.000000", "101.000000", "99.000000", "100.000000", "100", "0.000000"}, records[1])

	require.Len(t, rec.runs, 1)
	require.Equal(t, NameProcess, rec.runs[0].Pipeline)
	require.Equal(t, recorder.StatusOK, rec.runs[0].Status)
}

func TestProcess_ProviderFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{Errors: map[string]error{"AAPL": errors.New("timeout")}}
	r, _ := newRunner(t, fetcher)
	out := filepath.Join(dir, "tech_stocks_processed.csv")

	_, err := r.Process(t.Context(), ProcessOptions{TickersFile: writeTickers(t, dir, "AAPL"), Output: out})
	require.ErrorIs(t, err, collector.ErrProvider)
	require.NoFileExists(t, out)
}

func TestProcess_EmptyTickerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tech_stocks.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))
	r, _ := newRunner(t, &collector.MockFetcher{})

	_, err := r.Process(t.Context(), ProcessOptions{TickersFile: path, Output: filepath.Join(dir, "out.csv")})
	require.ErrorIs(t, err, tickers.ErrEmpty)
}

func TestBacktest_ReadsFetchOutput(t *testing.T) {
	dir := t.TempDir()
	// 2024-01-02 .. 2024-02-02: January closes on day 30 of the series.
	rising := make([]float64, 32)
	flat := make([]float64, 32)
	for i := range rising {
		rising[i] = 100 + float64(i)
		flat[i] = 370
	}
	fetcher := &collector.MockFetcher{Series: map[string][]model.OHLCV{
		"AAPL": series(rising...),
		"MSFT": series(flat...),
	}}
	r, rec := newRunner(t, fetcher)

	history := filepath.Join(dir, "tech_stocks_data.csv")
	_, err := r.Fetch(t.Context(), FetchOptions{TickersFile: writeTickers(t, dir, "MSFT", "AAPL"), Output: history})
	require.NoError(t, err)

	res, err := r.Backtest(t.Context(), BacktestOptions{
		Input:  history,
		Params: strategy.Params{ShortWindow: 2, LongWindow: 3, TopFraction: 0.5},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Tickers)
	require.Equal(t, []string{"AAPL"}, res.Backtest.Holdings())
	require.Equal(t, 2, res.Performance.Days, "held for Feb 1 and Feb 2")
	require.InDelta(t, 131.0/129-1, res.Performance.CumulativeReturn, 1e-12)
	require.Zero(t, res.Performance.MaxDrawdown)

	require.Len(t, rec.backtests, 1)
	require.Equal(t, res.RunID, rec.backtests[0].RunID)
	require.Equal(t, []string{"AAPL"}, rec.backtests[0].Holdings)
	last := rec.runs[len(rec.runs)-1]
	require.Equal(t, NameBacktest, last.Pipeline)
	require.Equal(t, recorder.StatusOK, last.Status)
	require.Equal(t, 2, last.RowCount)
}

func TestBacktest_NoTrades(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{Series: map[string][]model.OHLCV{"AAPL": series(100, 101, 99)}}
	r, rec := newRunner(t, fetcher)
	history := filepath.Join(dir, "tech_stocks_data.csv")
	_, err := r.Fetch(t.Context(), FetchOptions{TickersFile: writeTickers(t, dir, "AAPL"), Output: history})
	require.NoError(t, err)

	_, err = r.Backtest(t.Context(), BacktestOptions{Input: history, Params: strategy.DefaultParams()})
	require.ErrorIs(t, err, strategy.ErrNoTrades)
	require.Empty(t, rec.backtests)
	require.Equal(t, recorder.StatusFailed, rec.runs[len(rec.runs)-1].Status)
}

func TestBacktest_MissingInput(t *testing.T) {
	r, _ := newRunner(t, &collector.MockFetcher{})

	_, err := r.Backtest(t.Context(), BacktestOptions{
		Input:  filepath.Join(t.TempDir(), "tech_stocks_data.csv"),
		Params: strategy.DefaultParams(),
	})
	require.ErrorIs(t, err, fs.ErrNotExist)
}
