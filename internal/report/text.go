// Package report renders a finished run for humans: a console summary,
// a trades CSV and an equity-curve HTML page.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jaaknt/turtle-backtest/types"
)

// WriteSummary prints the performance report in a fixed-width layout.
func WriteSummary(w io.Writer, m types.PortfolioMetrics) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Period:                %s .. %s\n",
		m.StartDate.Format(time.DateOnly), m.EndDate.Format(time.DateOnly))
	fmt.Fprintf(w, "Initial Capital:       %.2f\n", m.InitialCapital)
	fmt.Fprintf(w, "Final Value:           %.2f\n", m.FinalValue)

	fmt.Fprintln(w, "\n-- Returns --")
	fmt.Fprintf(w, "Total Return:          %.2f%%\n", m.TotalReturnPct)
	fmt.Fprintf(w, "Annualized Return:     %.2f%%\n", m.AnnualizedReturnPct)
	fmt.Fprintf(w, "Volatility (ann.):     %.2f%%\n", m.VolatilityPct)
	fmt.Fprintf(w, "Max Drawdown:          %.2f%%\n", m.MaxDrawdownPct)

	fmt.Fprintln(w, "\n-- Risk-Adjusted --")
	fmt.Fprintf(w, "Sharpe Ratio:          %.2f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Sortino Ratio:         %.2f\n", m.SortinoRatio)

	fmt.Fprintln(w, "\n-- Trades --")
	fmt.Fprintf(w, "Total Trades:          %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Winning / Losing:      %d / %d\n", m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(w, "Win Rate:              %.1f%%\n", m.WinRate*100)
	fmt.Fprintf(w, "Avg Win:               %s\n", pct(m.AvgWinPct))
	fmt.Fprintf(w, "Avg Loss:              %s\n", pct(m.AvgLossPct))
	fmt.Fprintf(w, "Avg Holding Days:      %.1f\n", m.AvgHoldingDays)
	fmt.Fprintf(w, "Max Positions Held:    %d\n", m.MaxPositionsHeld)

	if len(m.Benchmarks) > 0 {
		fmt.Fprintln(w, "\n-- Benchmarks --")
		for _, b := range m.Benchmarks {
			fmt.Fprintf(w, "%-8s return: %8.2f%%   excess: %8.2f%%\n",
				b.Ticker, b.ReturnPct, b.ExcessReturnPct)
		}
	}
	fmt.Fprintln(w, "===========================")
}

// pct formats a percentage that may be NaN when its trade set is empty.
func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v)
}
