// Package exit implements the pluggable position exit strategies. Each
// evaluator is deterministic: the same position and price path always yield
// the same decision, independent of when or how often it is asked.
package exit

import (
	"time"

	"github.com/jaaknt/turtle-backtest/types"
)

// BarHistory supplies bars before a position's entry date. Indicator-based
// evaluators need a warmup window so the indicator is already settled on the
// first day of the trade.
type BarHistory interface {
	History(ticker string, start, end time.Time) []types.Bar
}

// warmup returns up to `bars` daily bars ending the day before start.
// The calendar window is oversized to absorb weekends and holidays.
func warmup(reader BarHistory, ticker string, start time.Time, bars int) []types.Bar {
	from := start.AddDate(0, 0, -bars*2-14)
	history := reader.History(ticker, from, start.AddDate(0, 0, -1))
	if len(history) > bars {
		history = history[len(history)-bars:]
	}
	return history
}

// combine concatenates warmup and trade-path bars into a fresh slice.
// Both inputs may alias cache storage and must not be appended to in place.
func combine(pre, history []types.Bar) []types.Bar {
	out := make([]types.Bar, 0, len(pre)+len(history))
	out = append(out, pre...)
	return append(out, history...)
}

func closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		out[i] = bar.Close.InexactFloat64()
	}
	return out
}

func highs(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		out[i] = bar.High.InexactFloat64()
	}
	return out
}

func lows(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		out[i] = bar.Low.InexactFloat64()
	}
	return out
}
