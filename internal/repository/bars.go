package repository

import (
	"context"
	"time"

	"github.com/jaaknt/turtle-backtest/types"
)

const getBarsQuery = `
SELECT symbol, hdate, open, high, low, close, volume
FROM turtle.bars_history
WHERE symbol = $1 AND hdate BETWEEN $2 AND $3
ORDER BY hdate`

// GetBars returns the daily bars of one ticker inside [start, end],
// ascending by date. ErrNoBars when the range is empty.
func (db *Database) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error) {
	rows, err := db.conn.Query(ctx, getBarsQuery, ticker, types.Day(start), types.Day(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var bar types.Bar
		if err := rows.Scan(&bar.Ticker, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, err
		}
		bar.Date = types.Day(bar.Date)
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}
