package exit

import (
	"github.com/markcheno/go-talib"

	"github.com/jaaknt/turtle-backtest/internal/engine"
	"github.com/jaaknt/turtle-backtest/types"
)

// EMA closes a position when its close falls below the exponential moving
// average of the given period. Warmup bars before entry keep the average
// meaningful from the first day of the trade.
type EMA struct {
	reader BarHistory
	period int
}

func NewEMA(reader BarHistory, period int) *EMA {
	return &EMA{reader: reader, period: period}
}

func (e *EMA) Evaluate(pos *types.Position, history []types.Bar) (engine.ExitDecision, bool) {
	if len(history) == 0 {
		return engine.ExitDecision{}, false
	}
	bars := combine(warmup(e.reader, pos.Ticker, pos.EntryDate, e.period*2), history)
	if len(bars) <= e.period {
		return engine.ExitDecision{}, false
	}

	prices := closes(bars)
	ema := talib.Ema(prices, e.period)

	last := len(bars) - 1
	if prices[last] < ema[last] {
		return engine.ExitDecision{
			Date:   bars[last].Date,
			Price:  bars[last].Close,
			Reason: types.ExitIndicator,
		}, true
	}
	return engine.ExitDecision{}, false
}
