package exit

import (
	"github.com/jaaknt/turtle-backtest/internal/engine"
	"github.com/jaaknt/turtle-backtest/types"
)

// BuyHold never volunteers an exit; positions ride until the period-end
// close at the end of the run.
type BuyHold struct{}

func NewBuyHold() *BuyHold { return &BuyHold{} }

func (*BuyHold) Evaluate(*types.Position, []types.Bar) (engine.ExitDecision, bool) {
	return engine.ExitDecision{}, false
}
