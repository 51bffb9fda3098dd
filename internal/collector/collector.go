package collector

import (
	"context"
	"fmt"
	"time"

	"TechStocks/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Days   int                      // generated bars per symbol when Series has no entry
	Series map[string][]model.OHLCV // fixed bars per symbol
	Errors map[string]error         // per-symbol failures

	Calls []string // symbols requested, in call order
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) bars(symbol string) ([]model.OHLCV, error) {
	m.Calls = append(m.Calls, symbol)
	if err, ok := m.Errors[symbol]; ok {
		return nil, fmt.Errorf("%w: mock %s: %v", ErrProvider, symbol, err)
	}
	if bars, ok := m.Series[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, m.Days), nil
}

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol, _, _ string) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.bars(symbol)
}

func (m *MockFetcher) FetchBatch(ctx context.Context, symbols []string, _, _ string) (*model.WideTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series := make(map[string][]model.OHLCV, len(symbols))
	for _, s := range symbols {
		if _, done := series[s]; done {
			continue
		}
		bars, err := m.bars(s)
		if err != nil {
			return nil, err
		}
		series[s] = bars
	}
	return model.WideTableFromSeries(series)
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
