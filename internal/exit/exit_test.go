package exit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaaknt/turtle-backtest/types"
)

// stubHistory serves fixed warmup bars regardless of the requested range.
type stubHistory struct {
	bars []types.Bar
}

func (s *stubHistory) History(_ string, start, end time.Time) []types.Bar {
	var out []types.Bar
	for _, bar := range s.bars {
		if !bar.Date.Before(types.Day(start)) && !bar.Date.After(types.Day(end)) {
			out = append(out, bar)
		}
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func bar(ticker string, date time.Time, close float64) types.Bar {
	c := decimal.NewFromFloat(close)
	return types.Bar{
		Ticker: ticker,
		Date:   date,
		Open:   c,
		High:   c.Add(decimal.NewFromFloat(0.5)),
		Low:    c.Sub(decimal.NewFromFloat(0.5)),
		Close:  c,
		Volume: decimal.NewFromInt(1000),
	}
}

// series builds consecutive weekday bars starting at start.
func series(ticker string, start time.Time, closes ...float64) []types.Bar {
	bars := make([]types.Bar, 0, len(closes))
	d := start
	for _, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		bars = append(bars, bar(ticker, d, c))
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

func position(ticker string, entryDate time.Time, entryPrice float64) *types.Position {
	return &types.Position{
		Ticker:       ticker,
		Quantity:     10,
		EntryPrice:   decimal.NewFromFloat(entryPrice),
		EntryDate:    entryDate,
		CurrentPrice: decimal.NewFromFloat(entryPrice),
	}
}

func TestProfitLossHitsTarget(t *testing.T) {
	eval := NewProfitLoss(decimal.NewFromInt(10), decimal.NewFromInt(5))
	pos := position("AAPL", day("2024-01-03"), 100)
	history := series("AAPL", day("2024-01-03"), 100, 104, 111)

	decision, exit := eval.Evaluate(pos, history)
	require.True(t, exit)
	assert.Equal(t, types.ExitProfitTarget, decision.Reason)
	assert.True(t, decision.Price.Equal(decimal.NewFromInt(111)), "price %s", decision.Price)
	assert.Equal(t, history[2].Date, decision.Date)
}

func TestProfitLossHitsStop(t *testing.T) {
	eval := NewProfitLoss(decimal.NewFromInt(10), decimal.NewFromInt(5))
	pos := position("AAPL", day("2024-01-03"), 100)
	history := series("AAPL", day("2024-01-03"), 100, 97, 94)

	decision, exit := eval.Evaluate(pos, history)
	require.True(t, exit)
	assert.Equal(t, types.ExitStopLoss, decision.Reason)
	assert.True(t, decision.Price.Equal(decimal.NewFromInt(94)), "price %s", decision.Price)
}

func TestProfitLossHoldsInsideBand(t *testing.T) {
	eval := NewProfitLoss(decimal.NewFromInt(10), decimal.NewFromInt(5))
	pos := position("AAPL", day("2024-01-03"), 100)
	history := series("AAPL", day("2024-01-03"), 100, 103, 97)

	_, exit := eval.Evaluate(pos, history)
	assert.False(t, exit)
}

func TestProfitLossEmptyHistoryHolds(t *testing.T) {
	eval := NewProfitLoss(decimal.NewFromInt(10), decimal.NewFromInt(5))
	_, exit := eval.Evaluate(position("AAPL", day("2024-01-03"), 100), nil)
	assert.False(t, exit)
}

func TestEMAExitsOnCrossBelow(t *testing.T) {
	entry := day("2024-02-01")
	warm := series("AAPL", day("2024-01-02"), 10, 10.5, 11, 11.5, 12, 12.5, 13, 13.5)
	eval := NewEMA(&stubHistory{bars: warm}, 3)

	pos := position("AAPL", entry, 14)
	history := series("AAPL", entry, 14, 14.5, 6) // sharp break below trend

	decision, exit := eval.Evaluate(pos, history)
	require.True(t, exit)
	assert.Equal(t, types.ExitIndicator, decision.Reason)
	assert.True(t, decision.Price.Equal(decimal.NewFromInt(6)), "price %s", decision.Price)
}

func TestEMAHoldsAboveAverage(t *testing.T) {
	entry := day("2024-02-01")
	warm := series("AAPL", day("2024-01-02"), 10, 10.5, 11, 11.5, 12, 12.5, 13, 13.5)
	eval := NewEMA(&stubHistory{bars: warm}, 3)

	pos := position("AAPL", entry, 14)
	history := series("AAPL", entry, 14, 14.5, 15)

	_, exit := eval.Evaluate(pos, history)
	assert.False(t, exit)
}

func TestEMAInsufficientHistoryHolds(t *testing.T) {
	eval := NewEMA(&stubHistory{}, 10)
	pos := position("AAPL", day("2024-02-01"), 14)
	history := series("AAPL", day("2024-02-01"), 14, 15)

	_, exit := eval.Evaluate(pos, history)
	assert.False(t, exit)
}

func TestMACDExitsOnMomentumFade(t *testing.T) {
	entry := day("2024-02-01")
	warm := series("AAPL", day("2024-01-02"), 10, 11, 12, 13, 14, 15, 16, 17, 18, 19)
	eval := NewMACD(&stubHistory{bars: warm}, 2, 5, 3)

	pos := position("AAPL", entry, 20)
	history := series("AAPL", entry, 20, 19, 17, 14, 10)

	decision, exit := eval.Evaluate(pos, history)
	require.True(t, exit)
	assert.Equal(t, types.ExitIndicator, decision.Reason)
}

func TestMACDHoldsInUptrend(t *testing.T) {
	entry := day("2024-02-01")
	warm := series("AAPL", day("2024-01-02"), 10, 11, 12, 13, 14, 15, 16, 17, 18, 19)
	eval := NewMACD(&stubHistory{bars: warm}, 2, 5, 3)

	pos := position("AAPL", entry, 20)
	history := series("AAPL", entry, 20, 21, 22, 23, 24)

	_, exit := eval.Evaluate(pos, history)
	assert.False(t, exit)
}

func TestATRTrailingStopsOutOnCrash(t *testing.T) {
	entry := day("2024-02-01")
	warm := series("AAPL", day("2024-01-02"), 100, 100.5, 101, 101.5, 102, 102.5)
	eval := NewATRTrailing(&stubHistory{bars: warm}, 3, 2)

	pos := position("AAPL", entry, 103)
	history := series("AAPL", entry, 103, 104, 105, 90)

	decision, exit := eval.Evaluate(pos, history)
	require.True(t, exit)
	assert.Equal(t, types.ExitVolatilityStop, decision.Reason)
	// The exit fills at the stop level, above the crash close.
	assert.True(t, decision.Price.GreaterThan(decimal.NewFromInt(90)), "price %s", decision.Price)
	assert.True(t, decision.Price.LessThan(decimal.NewFromInt(105)), "price %s", decision.Price)
}

func TestATRTrailingHoldsInDrift(t *testing.T) {
	entry := day("2024-02-01")
	warm := series("AAPL", day("2024-01-02"), 100, 100.5, 101, 101.5, 102, 102.5)
	eval := NewATRTrailing(&stubHistory{bars: warm}, 3, 2)

	pos := position("AAPL", entry, 103)
	history := series("AAPL", entry, 103, 103.5, 104, 103.8)

	_, exit := eval.Evaluate(pos, history)
	assert.False(t, exit)
}

func TestBuyHoldNeverExits(t *testing.T) {
	eval := NewBuyHold()
	pos := position("AAPL", day("2024-01-03"), 100)
	history := series("AAPL", day("2024-01-03"), 100, 50, 25, 10)

	_, exit := eval.Evaluate(pos, history)
	assert.False(t, exit)
}
