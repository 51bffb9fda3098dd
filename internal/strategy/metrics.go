package strategy

import (
	"errors"
	"math"
)

// TradingDaysPerYear annualizes daily figures.
const TradingDaysPerYear = 252

// ErrNoTrades is returned by Evaluate when the portfolio never held a position.
var ErrNoTrades = errors.New("no trades were made")

// Performance summarizes a daily return series.
type Performance struct {
	Days                 int
	CumulativeReturn     float64
	AnnualizedReturn     float64 // (1 + mean daily)^252 - 1
	AnnualizedVolatility float64 // population stdev * sqrt(252)
	SharpeRatio          float64 // zero risk-free rate; 0 when volatility is 0
	MaxDrawdown          float64 // largest fall from a running peak, as a fraction of it
}

// Evaluate computes the performance of daily returns.
func Evaluate(returns []float64) (*Performance, error) {
	if len(returns) == 0 {
		return nil, ErrNoTrades
	}
	n := float64(len(returns))

	growth, peak, maxDD, sum := 1.0, 1.0, 0.0, 0.0
	for _, r := range returns {
		sum += r
		growth *= 1 + r
		peak = math.Max(peak, growth)
		maxDD = math.Max(maxDD, (peak-growth)/peak)
	}
	mean := sum / n

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= n

	p := &Performance{
		Days:                 len(returns),
		CumulativeReturn:     growth - 1,
		AnnualizedReturn:     math.Pow(1+mean, TradingDaysPerYear) - 1,
		AnnualizedVolatility: math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear),
		MaxDrawdown:          maxDD,
	}
	if p.AnnualizedVolatility > 0 {
		p.SharpeRatio = p.AnnualizedReturn / p.AnnualizedVolatility
	}
	return p, nil
}
