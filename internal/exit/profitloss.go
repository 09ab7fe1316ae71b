package exit

import (
	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/internal/engine"
	"github.com/jaaknt/turtle-backtest/types"
)

// ProfitLoss closes a position once its close crosses a fixed profit target
// or stop loss, both expressed as percentages of the entry price.
type ProfitLoss struct {
	profitPct decimal.Decimal
	stopPct   decimal.Decimal
}

func NewProfitLoss(profitPct, stopPct decimal.Decimal) *ProfitLoss {
	return &ProfitLoss{profitPct: profitPct, stopPct: stopPct}
}

func (p *ProfitLoss) Evaluate(pos *types.Position, history []types.Bar) (engine.ExitDecision, bool) {
	if len(history) == 0 {
		return engine.ExitDecision{}, false
	}
	last := history[len(history)-1]
	hundred := decimal.NewFromInt(100)

	target := pos.EntryPrice.Mul(hundred.Add(p.profitPct)).Div(hundred)
	if last.Close.GreaterThanOrEqual(target) {
		return engine.ExitDecision{Date: last.Date, Price: last.Close, Reason: types.ExitProfitTarget}, true
	}

	stop := pos.EntryPrice.Mul(hundred.Sub(p.stopPct)).Div(hundred)
	if last.Close.LessThanOrEqual(stop) {
		return engine.ExitDecision{Date: last.Date, Price: last.Close, Reason: types.ExitStopLoss}, true
	}
	return engine.ExitDecision{}, false
}
