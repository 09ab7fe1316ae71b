package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/types"
)

// tradingDaysPerYear is the annualization base for return and volatility.
const tradingDaysPerYear = 252

// CalculateMetrics derives the full performance report from a finished run.
// Money stays in decimal until the last step; the statistics themselves are
// float64 so undefined ratios can be expressed as NaN instead of a fake zero.
func CalculateMetrics(state *types.PortfolioState, initialCapital decimal.Decimal, benchmarks map[string][]types.Bar, riskFreeRate float64) types.PortfolioMetrics {
	m := types.PortfolioMetrics{
		InitialCapital: initialCapital.InexactFloat64(),
		FinalValue:     initialCapital.InexactFloat64(),
		AvgWinPct:      math.NaN(),
		AvgLossPct:     math.NaN(),
	}
	if len(state.Snapshots) == 0 {
		return m
	}

	first := state.Snapshots[0]
	last := state.Snapshots[len(state.Snapshots)-1]
	m.StartDate = first.Date
	m.EndDate = last.Date
	m.FinalValue = last.TotalValue().InexactFloat64()
	m.TotalReturnPct = (m.FinalValue/m.InitialCapital - 1) * 100

	m.AnnualizedReturnPct = annualizedReturn(m.TotalReturnPct, len(state.Snapshots))

	daily := dailyReturns(state.Snapshots)
	vol := stddev(daily)
	m.VolatilityPct = vol * math.Sqrt(tradingDaysPerYear) * 100
	m.SharpeRatio = sharpe(daily, vol, riskFreeRate)
	m.SortinoRatio = sortino(daily, riskFreeRate)
	m.MaxDrawdownPct = maxDrawdown(state.Snapshots)
	m.MaxPositionsHeld = maxPositionsHeld(state.Snapshots)

	fillTradeStats(&m, state.Trades)

	for _, ticker := range sortedKeys(benchmarks) {
		if b, ok := benchmarkReturn(ticker, benchmarks[ticker], m.TotalReturnPct); ok {
			m.Benchmarks = append(m.Benchmarks, b)
		}
	}
	return m
}

// dailyReturns is the day-over-day relative change of snapshot total value.
func dailyReturns(snaps []types.DailyPortfolioSnapshot) []float64 {
	if len(snaps) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(snaps)-1)
	prev := snaps[0].TotalValue().InexactFloat64()
	for _, snap := range snaps[1:] {
		cur := snap.TotalValue().InexactFloat64()
		if prev > 0 {
			returns = append(returns, cur/prev-1)
		}
		prev = cur
	}
	return returns
}

// annualizedReturn compounds the whole-period return over the observed
// number of trading days. Undefined for a total loss; reported as -100.
func annualizedReturn(totalPct float64, tradingDays int) float64 {
	if tradingDays == 0 {
		return 0
	}
	growth := 1 + totalPct/100
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, tradingDaysPerYear/float64(tradingDays)) - 1) * 100
}

// sharpe is the annualized excess return per unit of total volatility.
// Zero volatility (flat equity curve) yields 0, not infinity.
func sharpe(daily []float64, dailyVol, riskFreeRate float64) float64 {
	if len(daily) == 0 || dailyVol == 0 {
		return 0
	}
	excess := mean(daily) - riskFreeRate/tradingDaysPerYear
	return excess / dailyVol * math.Sqrt(tradingDaysPerYear)
}

// sortino penalizes only downside deviation. With no losing days the
// denominator is zero and the ratio reports 0.
func sortino(daily []float64, riskFreeRate float64) float64 {
	if len(daily) == 0 {
		return 0
	}
	dailyRf := riskFreeRate / tradingDaysPerYear
	var downside float64
	for _, r := range daily {
		if r < dailyRf {
			d := r - dailyRf
			downside += d * d
		}
	}
	downside = math.Sqrt(downside / float64(len(daily)))
	if downside == 0 {
		return 0
	}
	return (mean(daily) - dailyRf) / downside * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown is the largest peak-to-trough decline of total value,
// reported as a positive percentage.
func maxDrawdown(snaps []types.DailyPortfolioSnapshot) float64 {
	var peak, worst float64
	for _, snap := range snaps {
		v := snap.TotalValue().InexactFloat64()
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst * 100
}

func maxPositionsHeld(snaps []types.DailyPortfolioSnapshot) int {
	var most int
	for _, snap := range snaps {
		if n := len(snap.Positions); n > most {
			most = n
		}
	}
	return most
}

// fillTradeStats aggregates the closed-trade statistics. Win rate over zero
// trades is 0; average win/loss over an empty set stays NaN.
func fillTradeStats(m *types.PortfolioMetrics, trades []types.Position) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var winSum, lossSum, holdSum float64
	for _, trade := range trades {
		ret := trade.ReturnPct().InexactFloat64()
		holdSum += float64(trade.HoldingDays())
		if ret > 0 {
			m.WinningTrades++
			winSum += ret
		} else {
			m.LosingTrades++
			lossSum += ret
		}
	}
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	m.AvgHoldingDays = holdSum / float64(m.TotalTrades)
	if m.WinningTrades > 0 {
		m.AvgWinPct = winSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLossPct = lossSum / float64(m.LosingTrades)
	}
}

// benchmarkReturn is the buy-and-hold return of one reference ticker over
// the same window: first bar's open to last bar's close.
func benchmarkReturn(ticker string, bars []types.Bar, portfolioPct float64) (types.Benchmark, bool) {
	if len(bars) == 0 {
		return types.Benchmark{}, false
	}
	open := bars[0].Open
	if !open.IsPositive() {
		return types.Benchmark{}, false
	}
	ret := bars[len(bars)-1].Close.Sub(open).Div(open).InexactFloat64() * 100
	return types.Benchmark{
		Ticker:          ticker,
		ReturnPct:       ret,
		ExcessReturnPct: portfolioPct - ret,
		StartDate:       bars[0].Date,
		EndDate:         bars[len(bars)-1].Date,
	}, true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := mean(xs)
	var sq float64
	for _, x := range xs {
		sq += (x - mu) * (x - mu)
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

func sortedKeys(m map[string][]types.Bar) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
