package collector

import (
	"context"
	"errors"

	"TechStocks/internal/model"
)

// ErrProvider marks a failed or malformed market-data provider call.
var ErrProvider = errors.New("provider call failed")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns chronological bars for one symbol over period
	// (e.g. "1y") at interval (e.g. "1d").
	FetchHistory(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error)
	// FetchBatch returns history for all symbols as one wide table.
	FetchBatch(ctx context.Context, symbols []string, period, interval string) (*model.WideTable, error)
	Name() string
}
