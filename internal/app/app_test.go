package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TechStocks/internal/collector"
	"TechStocks/internal/config"
	"TechStocks/internal/output"
	"TechStocks/internal/recorder"
	"TechStocks/internal/strategy"
	"TechStocks/internal/tickers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := config.Load(config.Path())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNew_NoopRecorderByDefault(t *testing.T) {
	a := New(testConfig(t))
	defer a.Close()

	require.Nil(t, a.History)
	require.IsType(t, &recorder.NoopRecorder{}, a.Recorder)
	require.NotNil(t, a.Runner)
	require.Equal(t, "yahoo", a.Runner.Fetcher.Name())

	yf, ok := a.Runner.Fetcher.(*collector.YahooFetcher)
	require.True(t, ok)
	require.Equal(t, 4, yf.Concurrency)
	require.Equal(t, "https://query1.finance.yahoo.com", yf.BaseURL)
}

func TestNew_SQLiteRecorder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "data", "runs.db")

	a := New(cfg)
	defer a.Close()

	require.NotNil(t, a.History)
	require.FileExists(t, cfg.Database.SQLitePath)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: tech_stocks.txt", tickers.ErrNotFound), "ticker file not found"},
		{fmt.Errorf("%w: tech_stocks.txt", tickers.ErrEmpty), "no tickers to process"},
		{fmt.Errorf("fetch AAPL: %w", collector.ErrProvider), "market data request failed"},
		{fmt.Errorf("open history: %w", fs.ErrNotExist), "history file not found, run fetch first"},
		{fmt.Errorf("read x.csv: %w", output.ErrMalformedHistory), "history file is malformed"},
		{strategy.ErrNoTrades, "no trades were made, cannot calculate performance"},
		{errors.New("disk full"), "run failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.err), tt.err.Error())
	}
}
