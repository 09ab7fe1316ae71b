package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/types"
)

// Rejection errors: business conditions the simulation loop skips over.
var (
	ErrDuplicatePosition = errors.New("position already open for ticker")
	ErrInsufficientCash  = errors.New("available cash below minimum position amount")
	ErrZeroQuantity      = errors.New("target amount buys less than one share")
)

// Invariant errors: contract violations that abort the run.
var (
	ErrNoOpenPosition = errors.New("no open position for ticker")
	ErrNegativeCash   = errors.New("cash went negative")
)

// isRejection reports whether an openPosition error is a recoverable
// business condition rather than an invariant breach.
func isRejection(err error) bool {
	return errors.Is(err, ErrDuplicatePosition) ||
		errors.Is(err, ErrInsufficientCash) ||
		errors.Is(err, ErrZeroQuantity)
}

// ledger is the sole mutator of cash and open positions. Centralizing every
// cash/position mutation here keeps the "cash never negative" and "one open
// position per ticker" invariants locally checkable.
type ledger struct {
	cash        decimal.Decimal
	positionMin decimal.Decimal
	positionMax decimal.Decimal
	open        map[string]*types.Position
	closed      []types.Position
}

func newLedger(initialCash, positionMin, positionMax decimal.Decimal) *ledger {
	return &ledger{
		cash:        initialCash,
		positionMin: positionMin,
		positionMax: positionMax,
		open:        make(map[string]*types.Position),
	}
}

// openPosition sizes and opens a position for a selected signal at the given
// fill price. Target size is min(positionMax, max(positionMin, cash)) and
// the share count is floored, so the cost never exceeds available cash.
func (l *ledger) openPosition(sig types.Signal, fillDate time.Time, price decimal.Decimal) (*types.Position, error) {
	if _, ok := l.open[sig.Ticker]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePosition, sig.Ticker)
	}
	if l.cash.LessThan(l.positionMin) {
		return nil, fmt.Errorf("%w: cash=%s min=%s", ErrInsufficientCash, l.cash, l.positionMin)
	}

	target := decimal.Max(l.positionMin, l.cash)
	target = decimal.Min(l.positionMax, target)
	quantity := target.Div(price).Floor().IntPart()
	if quantity < 1 {
		return nil, fmt.Errorf("%w: target=%s price=%s", ErrZeroQuantity, target, price)
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	newCash := l.cash.Sub(cost)
	if newCash.IsNegative() {
		return nil, fmt.Errorf("%w: open %s cost=%s cash=%s", ErrNegativeCash, sig.Ticker, cost, l.cash)
	}
	l.cash = newCash

	pos := &types.Position{
		Ticker:       sig.Ticker,
		Quantity:     quantity,
		EntryPrice:   price,
		EntryDate:    fillDate,
		CurrentPrice: price,
		Ranking:      sig.Ranking,
	}
	l.open[sig.Ticker] = pos

	slog.Debug("opened position",
		"ticker", sig.Ticker, "date", fillDate.Format(time.DateOnly),
		"quantity", quantity, "price", price, "cash", l.cash)
	return pos, nil
}

// closePosition realizes an exit. A close for a ticker with no open position
// is a programming-contract violation, not a business condition.
func (l *ledger) closePosition(ticker string, price decimal.Decimal, date time.Time, reason types.ExitReason) (types.Position, error) {
	pos, ok := l.open[ticker]
	if !ok {
		return types.Position{}, fmt.Errorf("%w: %s", ErrNoOpenPosition, ticker)
	}

	l.cash = l.cash.Add(price.Mul(decimal.NewFromInt(pos.Quantity)))
	pos.CurrentPrice = price
	pos.ExitPrice = price
	pos.ExitDate = date
	pos.ExitReason = reason
	pos.Closed = true

	delete(l.open, ticker)
	l.closed = append(l.closed, *pos)

	slog.Debug("closed position",
		"ticker", ticker, "date", date.Format(time.DateOnly),
		"price", price, "reason", reason, "returnPct", pos.ReturnPct(), "cash", l.cash)
	return *pos, nil
}

// markToMarket updates the held price for daily snapshotting. No cash effect.
// Unknown tickers are ignored; the loop only marks positions it holds.
func (l *ledger) markToMarket(ticker string, price decimal.Decimal) {
	if pos, ok := l.open[ticker]; ok {
		pos.CurrentPrice = price
	}
}

func (l *ledger) availableCash() decimal.Decimal {
	return l.cash
}

// openTickers returns the open position tickers in lexical order so that
// per-day iteration stays deterministic.
func (l *ledger) openTickers() []string {
	tickers := make([]string, 0, len(l.open))
	for t := range l.open {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

func (l *ledger) openCount() int {
	return len(l.open)
}

func (l *ledger) position(ticker string) (*types.Position, bool) {
	pos, ok := l.open[ticker]
	return pos, ok
}

// snapshot materializes a defensive copy of the current cash/position view,
// tagged with the given date. Positions are ordered by ticker.
func (l *ledger) snapshot(date time.Time) types.DailyPortfolioSnapshot {
	snap := types.DailyPortfolioSnapshot{
		Date:      date,
		Cash:      l.cash,
		Positions: make([]types.PositionView, 0, len(l.open)),
	}
	for _, ticker := range l.openTickers() {
		pos := l.open[ticker]
		snap.Positions = append(snap.Positions, types.PositionView{
			Ticker:       pos.Ticker,
			Quantity:     pos.Quantity,
			EntryPrice:   pos.EntryPrice,
			EntryDate:    pos.EntryDate,
			CurrentPrice: pos.CurrentPrice,
		})
	}
	return snap
}
