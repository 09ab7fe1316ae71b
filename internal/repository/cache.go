package repository

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jaaknt/turtle-backtest/types"
)

// preloadConcurrency caps parallel range queries during cache warmup.
const preloadConcurrency = 8

// BarFetcher is the slice of the datasource the cache needs for warmup.
type BarFetcher interface {
	GetBars(ctx context.Context, ticker string, start, end time.Time) ([]types.Bar, error)
}

// BarCache holds every bar a simulation run can touch, keyed by ticker and
// sorted by date. All reads after Preload are lock-free and allocation-light,
// so the day loop never waits on the database.
type BarCache struct {
	mu   sync.Mutex
	bars map[string][]types.Bar
}

func NewBarCache() *BarCache {
	return &BarCache{bars: make(map[string][]types.Bar)}
}

// Preload fetches the full window for every ticker concurrently. Tickers
// with no data in the window are logged and skipped, not fatal; lookups for
// them simply miss.
func (c *BarCache) Preload(ctx context.Context, source BarFetcher, tickers []string, start, end time.Time) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			bars, err := source.GetBars(ctx, ticker, start, end)
			if err != nil {
				if errors.Is(err, ErrNoBars) {
					slog.Warn("no price history for ticker, skipping",
						"ticker", ticker,
						"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))
					return nil
				}
				return err
			}
			c.Add(bars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("bar cache loaded", "tickers", len(c.bars))
	return nil
}

// Add merges bars into the cache, keeping each ticker's series sorted and
// deduplicated by date. Safe for concurrent use.
func (c *BarCache) Add(bars []types.Bar) {
	if len(bars) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byTicker := make(map[string][]types.Bar)
	for _, bar := range bars {
		bar.Date = types.Day(bar.Date)
		byTicker[bar.Ticker] = append(byTicker[bar.Ticker], bar)
	}
	for ticker, incoming := range byTicker {
		merged := append(c.bars[ticker], incoming...)
		sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
		deduped := merged[:0]
		for _, bar := range merged {
			if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(bar.Date) {
				deduped[n-1] = bar
				continue
			}
			deduped = append(deduped, bar)
		}
		c.bars[ticker] = deduped
	}
}

// Tickers returns the cached tickers in lexical order.
func (c *BarCache) Tickers() []string {
	tickers := make([]string, 0, len(c.bars))
	for t := range c.bars {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// BarOn returns the bar of a ticker on exactly the given day.
func (c *BarCache) BarOn(ticker string, date time.Time) (types.Bar, bool) {
	series := c.bars[ticker]
	day := types.Day(date)
	i := searchDate(series, day)
	if i < len(series) && series[i].Date.Equal(day) {
		return series[i], true
	}
	return types.Bar{}, false
}

// History returns the bars of a ticker inside [start, end], ascending.
// The returned slice aliases the cache and must not be mutated.
func (c *BarCache) History(ticker string, start, end time.Time) []types.Bar {
	series := c.bars[ticker]
	lo := searchDate(series, types.Day(start))
	hi := searchDate(series, types.Day(end).AddDate(0, 0, 1))
	if lo >= hi {
		return nil
	}
	return series[lo:hi]
}

// NextBarAfter returns the first bar strictly after the given day.
func (c *BarCache) NextBarAfter(ticker string, date time.Time) (types.Bar, bool) {
	series := c.bars[ticker]
	i := searchDate(series, types.Day(date).AddDate(0, 0, 1))
	if i < len(series) {
		return series[i], true
	}
	return types.Bar{}, false
}

// LastBarUpTo returns the latest bar on or before the given day.
func (c *BarCache) LastBarUpTo(ticker string, date time.Time) (types.Bar, bool) {
	series := c.bars[ticker]
	i := searchDate(series, types.Day(date).AddDate(0, 0, 1))
	if i > 0 {
		return series[i-1], true
	}
	return types.Bar{}, false
}

// searchDate is the index of the first bar not before day.
func searchDate(series []types.Bar, day time.Time) int {
	return sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(day)
	})
}
