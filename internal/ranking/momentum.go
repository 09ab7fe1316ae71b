// Package ranking scores entry signals so the selector can prefer the
// strongest candidates when slots are scarce.
package ranking

import (
	"time"

	"github.com/markcheno/go-talib"

	"github.com/jaaknt/turtle-backtest/types"
)

// Trading-day offsets for the trend lookbacks.
const (
	oneMonth   = 21
	threeMonth = 63
	sixMonth   = 126

	emaPeriod = 200
	yearBars  = 252

	componentMax = 20
)

// BarHistory supplies the lookback bars the scorer reads.
type BarHistory interface {
	History(ticker string, start, end time.Time) []types.Bar
}

// Momentum scores a signal 0-100 from five components worth 20 points each:
// position inside the 52-week price band, the EMA200 trend over one, three
// and six months, and the freshness of the 52-week closing high. Tickers
// without enough history score 0 and lose ties against established ones.
type Momentum struct {
	reader BarHistory
}

func NewMomentum(reader BarHistory) *Momentum {
	return &Momentum{reader: reader}
}

// Rank satisfies the engine's ranking hook.
func (m *Momentum) Rank(sig types.Signal) int {
	// Oversized calendar window; trimmed to trading bars below.
	from := sig.Date.AddDate(0, 0, -(yearBars+emaPeriod)*2)
	bars := m.reader.History(sig.Ticker, from, sig.Date)
	if len(bars) < emaPeriod+sixMonth {
		return 0
	}

	prices := make([]float64, len(bars))
	for i, bar := range bars {
		prices[i] = bar.Close.InexactFloat64()
	}
	window := prices
	if len(window) > yearBars {
		window = window[len(window)-yearBars:]
	}

	score := priceBandScore(window)
	ema := talib.Ema(prices, emaPeriod)
	last := len(ema) - 1
	for _, lookback := range []int{oneMonth, threeMonth, sixMonth} {
		if ema[last] > ema[last-lookback] {
			score += componentMax
		}
	}
	score += highFreshnessScore(window)
	return score
}

// priceBandScore places the latest close inside the 52-week low/high band.
func priceBandScore(window []float64) int {
	low, high := window[0], window[0]
	for _, p := range window {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	if high == low {
		return 0
	}
	return int((window[len(window)-1] - low) / (high - low) * componentMax)
}

// highFreshnessScore rewards a recent 52-week closing high, fading linearly
// to zero when the high is 100 or more trading days old.
func highFreshnessScore(window []float64) int {
	highIdx := 0
	for i, p := range window {
		if p >= window[highIdx] {
			highIdx = i
		}
	}
	age := len(window) - 1 - highIdx
	score := componentMax - age*componentMax/100
	if score < 0 {
		return 0
	}
	return score
}
