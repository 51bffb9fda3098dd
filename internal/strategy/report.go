package strategy

import (
	"fmt"
	"strings"
)

// FormatReport renders the performance summary as a plain-text table.
func FormatReport(p *Performance) string {
	var sb strings.Builder
	sb.WriteString("--- Backtest Performance Results ---\n")
	fmt.Fprintf(&sb, "Total Trading Days:      %d\n", p.Days)
	fmt.Fprintf(&sb, "Cumulative Return:       %.4f%%\n", p.CumulativeReturn*100)
	fmt.Fprintf(&sb, "Annualized Return:       %.4f%%\n", p.AnnualizedReturn*100)
	fmt.Fprintf(&sb, "Annualized Volatility:   %.4f%%\n", p.AnnualizedVolatility*100)
	fmt.Fprintf(&sb, "Sharpe Ratio:            %.4f\n", p.SharpeRatio)
	fmt.Fprintf(&sb, "Maximum Drawdown:        %.4f%%\n", p.MaxDrawdown*100)
	sb.WriteString("------------------------------------\n")
	return sb.String()
}
