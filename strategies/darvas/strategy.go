// Package darvas emits entry signals on Darvas box breakouts: a close above
// the ceiling of a tight consolidation range.
package darvas

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/types"
)

// Defaults tuned for daily bars.
const (
	defaultBoxBars   = 20
	defaultMaxDepth  = 0.12 // box height as a fraction of its ceiling
	defaultVolFactor = 1.3  // breakout volume vs the box average
)

// BarHistory supplies the lookback bars the strategy scans.
type BarHistory interface {
	History(ticker string, start, end time.Time) []types.Bar
}

// Strategy scans the universe each day for boxes that broke out on that
// day's close. It only reads prices up to and including the signal date.
type Strategy struct {
	reader    BarHistory
	boxBars   int
	maxDepth  decimal.Decimal
	volFactor decimal.Decimal
}

func New(reader BarHistory) *Strategy {
	return &Strategy{
		reader:    reader,
		boxBars:   defaultBoxBars,
		maxDepth:  decimal.NewFromFloat(defaultMaxDepth),
		volFactor: decimal.NewFromFloat(defaultVolFactor),
	}
}

// Signals returns one signal per ticker that closed above its box ceiling
// on the given day. Ranking is left at zero; scoring is the selector's job.
func (s *Strategy) Signals(date time.Time, universe []string) []types.Signal {
	day := types.Day(date)
	var signals []types.Signal
	for _, ticker := range universe {
		if s.brokeOut(ticker, day) {
			signals = append(signals, types.NewSignal(ticker, day, 0))
		}
	}
	return signals
}

// brokeOut reports whether the ticker's close on day beat the ceiling of a
// sufficiently tight box formed over the preceding boxBars bars.
func (s *Strategy) brokeOut(ticker string, day time.Time) bool {
	// Oversized calendar window to cover weekends and holidays.
	from := day.AddDate(0, 0, -s.boxBars*3)
	bars := s.reader.History(ticker, from, day)
	if len(bars) < s.boxBars+1 {
		return false
	}

	last := bars[len(bars)-1]
	if !last.Date.Equal(day) {
		// No bar on the signal day means no tradeable breakout.
		return false
	}

	box := bars[len(bars)-1-s.boxBars : len(bars)-1]
	ceiling, floor := box[0].High, box[0].Low
	volume := decimal.Zero
	for _, bar := range box {
		ceiling = decimal.Max(ceiling, bar.High)
		floor = decimal.Min(floor, bar.Low)
		volume = volume.Add(bar.Volume)
	}
	if !ceiling.IsPositive() {
		return false
	}
	if ceiling.Sub(floor).Div(ceiling).GreaterThan(s.maxDepth) {
		// Range too wide to count as consolidation.
		return false
	}
	if !last.Close.GreaterThan(ceiling) {
		return false
	}
	// Breakouts on thin volume are false starts more often than not.
	avgVolume := volume.Div(decimal.NewFromInt(int64(s.boxBars)))
	return last.Volume.GreaterThanOrEqual(avgVolume.Mul(s.volFactor))
}
