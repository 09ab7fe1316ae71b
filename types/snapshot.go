package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionView is a read-only copy of an open position, taken when a daily
// snapshot is recorded. Snapshots never alias live ledger state.
type PositionView struct {
	Ticker       string          `json:"ticker"`
	Quantity     int64           `json:"quantity"`
	EntryPrice   decimal.Decimal `json:"entryPrice"`
	EntryDate    time.Time       `json:"entryDate"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

// MarketValue is quantity times the marked price at snapshot time.
func (v PositionView) MarketValue() decimal.Decimal {
	return v.CurrentPrice.Mul(decimal.NewFromInt(v.Quantity))
}

// DailyPortfolioSnapshot is one row of the equity curve: cash plus the open
// positions as of a single trading day. Append-only, never mutated.
type DailyPortfolioSnapshot struct {
	Date      time.Time       `json:"date"`
	Cash      decimal.Decimal `json:"cash"`
	Positions []PositionView  `json:"positions"`
}

// PositionsValue sums the market value of all open positions.
func (s DailyPortfolioSnapshot) PositionsValue() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.Positions {
		total = total.Add(v.MarketValue())
	}
	return total
}

// TotalValue decomposes strictly into cash plus position market values.
func (s DailyPortfolioSnapshot) TotalValue() decimal.Decimal {
	return s.Cash.Add(s.PositionsValue())
}

// PortfolioState is the complete output of one backtest run: the full
// snapshot history plus every closed trade. Handed read-only to the
// performance analyzer and report renderers.
type PortfolioState struct {
	RunID     uuid.UUID                `json:"runId"`
	Snapshots []DailyPortfolioSnapshot `json:"snapshots"`
	Trades    []Position               `json:"trades"` // closed positions, in close order
}
