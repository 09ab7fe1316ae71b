package exit

import (
	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/internal/engine"
	"github.com/jaaknt/turtle-backtest/types"
)

// ATRTrailing maintains a ratcheting stop a multiple of the average true
// range below the highest close seen since entry. The stop only moves up;
// a close below it exits at the stop level.
type ATRTrailing struct {
	reader     BarHistory
	period     int
	multiplier float64
}

func NewATRTrailing(reader BarHistory, period int, multiplier float64) *ATRTrailing {
	return &ATRTrailing{reader: reader, period: period, multiplier: multiplier}
}

func (a *ATRTrailing) Evaluate(pos *types.Position, history []types.Bar) (engine.ExitDecision, bool) {
	if len(history) == 0 {
		return engine.ExitDecision{}, false
	}
	pre := warmup(a.reader, pos.Ticker, pos.EntryDate, a.period*2)
	bars := combine(pre, history)
	if len(bars) <= a.period {
		return engine.ExitDecision{}, false
	}

	atr := talib.Atr(highs(bars), lows(bars), closes(bars), a.period)
	prices := closes(bars)

	// Replay the trade path so the stop level is a pure function of it.
	stop := 0.0
	for i := len(pre); i < len(bars); i++ {
		if atr[i] == 0 {
			continue
		}
		if level := prices[i] - a.multiplier*atr[i]; level > stop {
			stop = level
		}
	}
	if stop == 0 {
		return engine.ExitDecision{}, false
	}

	last := len(bars) - 1
	if prices[last] < stop {
		return engine.ExitDecision{
			Date:   bars[last].Date,
			Price:  decimal.NewFromFloat(stop).Round(4),
			Reason: types.ExitVolatilityStop,
		}, true
	}
	return engine.ExitDecision{}, false
}
