package types

import (
	"time"
)

// Benchmark is the total return of a reference ticker over the run's span,
// plus the portfolio's excess return against it.
type Benchmark struct {
	Ticker          string    `json:"ticker"`
	ReturnPct       float64   `json:"returnPct"`
	ExcessReturnPct float64   `json:"excessReturnPct"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
}

// PortfolioMetrics summarizes a finished run. All fields are derived from
// PortfolioState and recomputable at any time. Ratios that are undefined for
// the run (e.g. average win with no winning trades) are NaN, never zero.
type PortfolioMetrics struct {
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	InitialCapital float64   `json:"initialCapital"`
	FinalValue     float64   `json:"finalValue"`

	TotalReturnPct      float64 `json:"totalReturnPct"`
	AnnualizedReturnPct float64 `json:"annualizedReturnPct"`
	VolatilityPct       float64 `json:"volatilityPct"` // annualized stddev of daily returns
	SharpeRatio         float64 `json:"sharpeRatio"`
	SortinoRatio        float64 `json:"sortinoRatio"`
	MaxDrawdownPct      float64 `json:"maxDrawdownPct"` // positive percentage

	TotalTrades      int     `json:"totalTrades"`
	WinningTrades    int     `json:"winningTrades"`
	LosingTrades     int     `json:"losingTrades"`
	WinRate          float64 `json:"winRate"`    // 0..1, 0 when no trades
	AvgWinPct        float64 `json:"avgWinPct"`  // NaN when no winners
	AvgLossPct       float64 `json:"avgLossPct"` // NaN when no losers
	AvgHoldingDays   float64 `json:"avgHoldingDays"`
	MaxPositionsHeld int     `json:"maxPositionsHeld"`

	Benchmarks []Benchmark `json:"benchmarks,omitempty"`
}
