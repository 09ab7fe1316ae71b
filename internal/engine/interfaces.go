package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/types"
)

// SignalSource produces entry candidates for one trading day across the
// configured universe. May return an empty slice.
type SignalSource interface {
	Signals(date time.Time, universe []string) []types.Signal
}

// ExitDecision says when, why and at what price an open position closes.
type ExitDecision struct {
	Date   time.Time
	Price  decimal.Decimal
	Reason types.ExitReason
}

// ExitEvaluator decides whether an open position should close, given its
// daily bars from entry through the current day. Must be deterministic for
// identical inputs so runs stay reproducible.
type ExitEvaluator interface {
	Evaluate(pos *types.Position, history []types.Bar) (ExitDecision, bool)
}

// RankFunc scores a signal 0-100 for selection priority.
type RankFunc func(types.Signal) int

// BarReader is the engine's view of pre-fetched price data. All lookups are
// in-memory; the simulation loop never blocks on I/O.
type BarReader interface {
	BarOn(ticker string, date time.Time) (types.Bar, bool)
	History(ticker string, start, end time.Time) []types.Bar
	NextBarAfter(ticker string, date time.Time) (types.Bar, bool)
	LastBarUpTo(ticker string, date time.Time) (types.Bar, bool)
}
