package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason classifies why a position was closed.
type ExitReason string

const (
	ExitPeriodEnd      ExitReason = "period-end"
	ExitProfitTarget   ExitReason = "profit-target"
	ExitStopLoss       ExitReason = "stop-loss"
	ExitIndicator      ExitReason = "indicator-exit"
	ExitVolatilityStop ExitReason = "volatility-stop"
)

// Position is a single long holding. It is created by the ledger when a
// selected signal fills, marked to market daily while open, and becomes
// immutable once the exit fields are set.
type Position struct {
	Ticker       string          `json:"ticker"`
	Quantity     int64           `json:"quantity"`
	EntryPrice   decimal.Decimal `json:"entryPrice"`
	EntryDate    time.Time       `json:"entryDate"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Ranking      int             `json:"ranking"` // signal ranking at entry

	ExitPrice  decimal.Decimal `json:"exitPrice,omitempty"`
	ExitDate   time.Time       `json:"exitDate,omitempty"`
	ExitReason ExitReason      `json:"exitReason,omitempty"`
	Closed     bool            `json:"closed"`
}

// MarketValue is quantity times the latest marked price.
func (p *Position) MarketValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL is the mark-to-market gain over the entry cost.
func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.CurrentPrice.Sub(p.EntryPrice).Mul(decimal.NewFromInt(p.Quantity))
}

// ReturnPct is the realized percentage return. Only meaningful once the
// position is closed.
func (p *Position) ReturnPct() decimal.Decimal {
	if p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return p.ExitPrice.Sub(p.EntryPrice).
		Div(p.EntryPrice).
		Mul(decimal.NewFromInt(100))
}

// HoldingDays is the number of calendar days between entry and exit.
func (p *Position) HoldingDays() int {
	if !p.Closed {
		return 0
	}
	return int(p.ExitDate.Sub(p.EntryDate).Hours() / 24)
}
