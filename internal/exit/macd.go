package exit

import (
	"github.com/markcheno/go-talib"

	"github.com/jaaknt/turtle-backtest/internal/engine"
	"github.com/jaaknt/turtle-backtest/types"
)

// MACD closes a position when the MACD line drops below its signal line,
// the classic momentum fade exit.
type MACD struct {
	reader       BarHistory
	fast, slow   int
	signalPeriod int
}

func NewMACD(reader BarHistory, fast, slow, signalPeriod int) *MACD {
	return &MACD{reader: reader, fast: fast, slow: slow, signalPeriod: signalPeriod}
}

func (m *MACD) Evaluate(pos *types.Position, history []types.Bar) (engine.ExitDecision, bool) {
	if len(history) == 0 {
		return engine.ExitDecision{}, false
	}
	// The slow EMA plus the signal EMA dictate how many settled bars MACD needs.
	need := m.slow + m.signalPeriod
	bars := combine(warmup(m.reader, pos.Ticker, pos.EntryDate, need*2), history)
	if len(bars) <= need {
		return engine.ExitDecision{}, false
	}

	macd, signal, _ := talib.Macd(closes(bars), m.fast, m.slow, m.signalPeriod)

	last := len(bars) - 1
	if macd[last] < signal[last] {
		return engine.ExitDecision{
			Date:   bars[last].Date,
			Price:  bars[last].Close,
			Reason: types.ExitIndicator,
		}, true
	}
	return engine.ExitDecision{}, false
}
