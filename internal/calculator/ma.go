package calculator

import (
	"errors"
	"math"

	"TechStocks/internal/model"
)

// RollingSMA returns the simple moving average ending at every index, kept as
// a running sum. Entries before the first full window are NaN, as is any
// window holding a missing price.
func RollingSMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(prices))
	sum := 0.0
	missing := 0
	for i, p := range prices {
		if math.IsNaN(p) {
			missing++
		} else {
			sum += p
		}
		if i >= period {
			if old := prices[i-period]; math.IsNaN(old) {
				missing--
			} else {
				sum -= old
			}
		}
		if i < period-1 || missing > 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out, nil
}

// Momentum returns short/long - 1 per index. It is NaN where either average
// is missing or the long average is not positive.
func Momentum(short, long []float64) []float64 {
	out := make([]float64, len(long))
	for i := range long {
		if i >= len(short) || math.IsNaN(short[i]) || math.IsNaN(long[i]) || long[i] <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = short[i]/long[i] - 1
	}
	return out
}

// Closes extracts the close prices of bars.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
