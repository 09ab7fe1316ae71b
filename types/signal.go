package types

import (
	"time"
)

// Signal is a dated entry candidate produced by a trading strategy.
// Signals fire on a completed daily bar and become actionable on the next
// trading day. Immutable once created.
type Signal struct {
	Ticker  string    `json:"ticker"`
	Date    time.Time `json:"date"`
	Ranking int       `json:"ranking"` // 0-100, higher = stronger
}

func NewSignal(ticker string, date time.Time, ranking int) Signal {
	return Signal{
		Ticker:  ticker,
		Date:    Day(date),
		Ranking: ranking,
	}
}
