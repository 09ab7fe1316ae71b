package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Configuration errors are rejected at run setup, never mid-run.
var (
	ErrInvalidDateRange   = errors.New("end date before start date")
	ErrInvalidCapital     = errors.New("initial capital must be positive")
	ErrInvalidPositionCap = errors.New("max positions must be at least 1")
	ErrInvalidAmounts     = errors.New("position max amount below min amount")
	ErrInvalidRanking     = errors.New("min signal ranking must be in [0,100]")
)

// RunConfig is the full configuration surface of one backtest run.
type RunConfig struct {
	Start            time.Time
	End              time.Time
	InitialCapital   decimal.Decimal
	PositionMin      decimal.Decimal // minimum dollar amount per position
	PositionMax      decimal.Decimal // maximum dollar amount per position
	MaxPositions     int
	MinSignalRanking int
	Universe         []string
	BenchmarkTickers []string
	RiskFreeRate     float64 // annual, e.g. 0.04
}

// Validate fails fast with a descriptive error before the loop starts.
func (c RunConfig) Validate() error {
	if c.End.Before(c.Start) {
		return fmt.Errorf("%w: start=%s end=%s", ErrInvalidDateRange,
			c.Start.Format(time.DateOnly), c.End.Format(time.DateOnly))
	}
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidCapital, c.InitialCapital)
	}
	if !c.PositionMin.IsPositive() {
		return fmt.Errorf("%w: position min amount %s must be positive", ErrInvalidAmounts, c.PositionMin)
	}
	if c.PositionMax.LessThan(c.PositionMin) {
		return fmt.Errorf("%w: min=%s max=%s", ErrInvalidAmounts, c.PositionMin, c.PositionMax)
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPositionCap, c.MaxPositions)
	}
	if c.MinSignalRanking < 0 || c.MinSignalRanking > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidRanking, c.MinSignalRanking)
	}
	return nil
}
