package engine

import (
	"sort"

	"github.com/jaaknt/turtle-backtest/types"
)

// selectSignals turns one day's raw candidates into the ordered subset to
// act on, given the current open tickers and free position slots. Pure
// function of its inputs: identical inputs always yield the identical
// ordered result.
func selectSignals(signals []types.Signal, openTickers []string, rank RankFunc, maxPositions, minRanking int) []types.Signal {
	freeSlots := maxPositions - len(openTickers)
	if freeSlots <= 0 || len(signals) == 0 {
		// All slots taken: skip scoring entirely.
		return nil
	}

	held := make(map[string]struct{}, len(openTickers))
	for _, t := range openTickers {
		held[t] = struct{}{}
	}

	// Deduplicate same-day signals per ticker, keeping the higher-ranked one,
	// and drop tickers we already hold.
	best := make(map[string]types.Signal, len(signals))
	for _, sig := range signals {
		if _, ok := held[sig.Ticker]; ok {
			continue
		}
		score := rank(sig)
		if score < minRanking {
			continue
		}
		sig.Ranking = score
		if prev, ok := best[sig.Ticker]; !ok || score > prev.Ranking {
			best[sig.Ticker] = sig
		}
	}

	selected := make([]types.Signal, 0, len(best))
	for _, sig := range best {
		selected = append(selected, sig)
	}

	// Rank descending, ties broken by ticker for determinism.
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Ranking != selected[j].Ranking {
			return selected[i].Ranking > selected[j].Ranking
		}
		return selected[i].Ticker < selected[j].Ticker
	})

	if len(selected) > freeSlots {
		selected = selected[:freeSlots]
	}
	return selected
}
