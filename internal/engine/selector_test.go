package engine

import (
	"reflect"
	"testing"

	"github.com/jaaknt/turtle-backtest/types"
)

func rankByField(sig types.Signal) int { return sig.Ranking }

func tickersOf(signals []types.Signal) []string {
	out := make([]string, len(signals))
	for i, sig := range signals {
		out[i] = sig.Ticker
	}
	return out
}

func TestSelectSignals(t *testing.T) {
	day := d("2024-03-01")
	tests := []struct {
		name         string
		signals      []types.Signal
		openTickers  []string
		maxPositions int
		minRanking   int
		want         []string
	}{
		{
			name: "ranked descending and truncated to free slots",
			signals: []types.Signal{
				types.NewSignal("AAA", day, 40),
				types.NewSignal("BBB", day, 90),
				types.NewSignal("CCC", day, 70),
				types.NewSignal("DDD", day, 85),
			},
			maxPositions: 2,
			want:         []string{"BBB", "DDD"},
		},
		{
			name: "held tickers excluded before ranking",
			signals: []types.Signal{
				types.NewSignal("AAA", day, 95),
				types.NewSignal("BBB", day, 60),
			},
			openTickers:  []string{"AAA"},
			maxPositions: 3,
			want:         []string{"BBB"},
		},
		{
			name: "no free slots short-circuits",
			signals: []types.Signal{
				types.NewSignal("AAA", day, 95),
			},
			openTickers:  []string{"BBB", "CCC"},
			maxPositions: 2,
			want:         nil,
		},
		{
			name: "minimum ranking filters",
			signals: []types.Signal{
				types.NewSignal("AAA", day, 49),
				types.NewSignal("BBB", day, 50),
			},
			maxPositions: 5,
			minRanking:   50,
			want:         []string{"BBB"},
		},
		{
			name: "equal rank ties break by ticker",
			signals: []types.Signal{
				types.NewSignal("ZZZ", day, 80),
				types.NewSignal("AAA", day, 80),
				types.NewSignal("MMM", day, 80),
			},
			maxPositions: 2,
			want:         []string{"AAA", "MMM"},
		},
		{
			name: "duplicate ticker keeps higher rank",
			signals: []types.Signal{
				types.NewSignal("AAA", day, 30),
				types.NewSignal("AAA", day, 75),
				types.NewSignal("BBB", day, 50),
			},
			maxPositions: 2,
			want:         []string{"AAA", "BBB"},
		},
		{
			name:         "empty signals",
			signals:      nil,
			maxPositions: 2,
			want:         nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectSignals(tt.signals, tt.openTickers, rankByField, tt.maxPositions, tt.minRanking)
			if !reflect.DeepEqual(tickersOf(got), tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("selected = %v, want %v", tickersOf(got), tt.want)
			}
		})
	}
}

func TestSelectSignalsIsDeterministic(t *testing.T) {
	day := d("2024-03-01")
	signals := []types.Signal{
		types.NewSignal("DDD", day, 70),
		types.NewSignal("AAA", day, 70),
		types.NewSignal("CCC", day, 90),
		types.NewSignal("BBB", day, 70),
	}

	first := tickersOf(selectSignals(signals, nil, rankByField, 3, 0))
	for i := 0; i < 50; i++ {
		again := tickersOf(selectSignals(signals, nil, rankByField, 3, 0))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("iteration %d: selected %v, previously %v", i, again, first)
		}
	}
	if want := []string{"CCC", "AAA", "BBB"}; !reflect.DeepEqual(first, want) {
		t.Fatalf("selected = %v, want %v", first, want)
	}
}

func TestSelectSignalsDoesNotMutateInput(t *testing.T) {
	day := d("2024-03-01")
	signals := []types.Signal{
		types.NewSignal("AAA", day, 10),
		types.NewSignal("BBB", day, 20),
	}

	// A rank func that disagrees with the stored ranking must not write back
	// into the caller's slice.
	selectSignals(signals, nil, func(types.Signal) int { return 99 }, 1, 0)
	if signals[0].Ranking != 10 || signals[1].Ranking != 20 {
		t.Fatalf("input mutated: %+v", signals)
	}
}
