package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TechStocks/internal/model"
)

func d(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

func TestApplyDailyReturns_InterleavedTickers(t *testing.T) {
	rows := []model.LongRow{
		{Date: d(2), Ticker: "AAPL", Close: 100},
		{Date: d(2), Ticker: "MSFT", Close: 370},
		{Date: d(3), Ticker: "AAPL", Close: 101},
		{Date: d(3), Ticker: "MSFT", Close: 366.3},
		{Date: d(4), Ticker: "AAPL", Close: 99},
		{Date: d(4), Ticker: "MSFT", Close: 370},
	}

	ApplyDailyReturns(rows)

	require.Equal(t, 0.0, rows[0].DailyReturn)
	require.InDelta(t, 0.01, rows[2].DailyReturn, 1e-12)
	require.InDelta(t, -0.0198019801980198, rows[4].DailyReturn, 1e-12)

	require.Equal(t, 0.0, rows[1].DailyReturn)
	require.InDelta(t, -0.01, rows[3].DailyReturn, 1e-12)
}

func TestApplyDailyReturns_IndependentOfRowOrder(t *testing.T) {
	rows := []model.LongRow{
		{Date: d(4), Ticker: "AAPL", Close: 99},
		{Date: d(3), Ticker: "MSFT", Close: 10},
		{Date: d(2), Ticker: "AAPL", Close: 100},
		{Date: d(3), Ticker: "AAPL", Close: 101},
	}

	ApplyDailyReturns(rows)

	require.InDelta(t, -0.0198019801980198, rows[0].DailyReturn, 1e-12)
	require.Equal(t, 0.0, rows[1].DailyReturn)
	require.Equal(t, 0.0, rows[2].DailyReturn)
	require.InDelta(t, 0.01, rows[3].DailyReturn, 1e-12)
}

func TestApplyDailyReturns_NoUndefinedValues(t *testing.T) {
	rows := []model.LongRow{
		{Date: d(2), Ticker: "X", Close: 0},
		{Date: d(3), Ticker: "X", Close: 5},
		{Date: d(4), Ticker: "X", Close: math.NaN()},
		{Date: d(5), Ticker: "X", Close: 6},
	}

	ApplyDailyReturns(rows)

	for i, r := range rows {
		require.False(t, math.IsNaN(r.DailyReturn), "row %d", i)
		require.False(t, math.IsInf(r.DailyReturn, 0), "row %d", i)
	}
	require.Equal(t, 0.0, rows[1].DailyReturn, "zero previous close")
	require.Equal(t, 0.0, rows[2].DailyReturn, "missing close")
	require.InDelta(t, 0.2, rows[3].DailyReturn, 1e-12, "skips the missing close")
}
