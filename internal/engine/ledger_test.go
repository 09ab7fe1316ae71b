package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/types"
)

func d(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLedger() *ledger {
	return newLedger(dec("10000"), dec("1000"), dec("3000"))
}

func TestLedgerOpenPositionSizing(t *testing.T) {
	tests := []struct {
		name         string
		cash         string
		price        string
		wantQuantity int64
		wantCash     string
		wantErr      error
	}{
		{
			name:         "target capped at position max",
			cash:         "10000",
			price:        "50",
			wantQuantity: 60, // 3000 / 50
			wantCash:     "7000",
		},
		{
			name:         "cash below max uses all cash",
			cash:         "2000",
			price:        "50",
			wantQuantity: 40,
			wantCash:     "0",
		},
		{
			name:    "cash below minimum rejects",
			cash:    "999",
			price:   "50",
			wantErr: ErrInsufficientCash,
		},
		{
			name:    "price above target rejects",
			cash:    "10000",
			price:   "3500",
			wantErr: ErrZeroQuantity,
		},
		{
			name:         "fractional shares floored",
			cash:         "10000",
			price:        "70",
			wantQuantity: 42, // floor(3000/70)
			wantCash:     "7060",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(dec(tt.cash), dec("1000"), dec("3000"))
			sig := types.NewSignal("AAPL", d("2024-01-02"), 80)

			pos, err := l.openPosition(sig, d("2024-01-03"), dec(tt.price))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("openPosition error = %v, want %v", err, tt.wantErr)
				}
				if !isRejection(err) {
					t.Fatalf("sizing failure must be a rejection, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("openPosition: %v", err)
			}
			if pos.Quantity != tt.wantQuantity {
				t.Errorf("quantity = %d, want %d", pos.Quantity, tt.wantQuantity)
			}
			if !l.availableCash().Equal(dec(tt.wantCash)) {
				t.Errorf("cash = %s, want %s", l.availableCash(), tt.wantCash)
			}
			if !pos.EntryDate.Equal(d("2024-01-03")) {
				t.Errorf("entry date = %s, want fill date", pos.EntryDate)
			}
		})
	}
}

func TestLedgerRejectsDuplicateTicker(t *testing.T) {
	l := testLedger()
	sig := types.NewSignal("AAPL", d("2024-01-02"), 80)

	if _, err := l.openPosition(sig, d("2024-01-03"), dec("50")); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := l.openPosition(sig, d("2024-01-04"), dec("55"))
	if !errors.Is(err, ErrDuplicatePosition) {
		t.Fatalf("second open error = %v, want ErrDuplicatePosition", err)
	}
	if l.openCount() != 1 {
		t.Errorf("open count = %d, want 1", l.openCount())
	}
}

func TestLedgerClosePosition(t *testing.T) {
	l := testLedger()
	sig := types.NewSignal("AAPL", d("2024-01-02"), 80)
	if _, err := l.openPosition(sig, d("2024-01-03"), dec("50")); err != nil {
		t.Fatalf("open: %v", err)
	}
	// 60 shares at 50, cash now 7000.

	closed, err := l.closePosition("AAPL", dec("45"), d("2024-02-01"), types.ExitStopLoss)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.Closed {
		t.Error("closed position not marked Closed")
	}
	if closed.ExitReason != types.ExitStopLoss {
		t.Errorf("exit reason = %s, want %s", closed.ExitReason, types.ExitStopLoss)
	}
	if want := dec("-10"); !closed.ReturnPct().Equal(want) {
		t.Errorf("return = %s, want %s", closed.ReturnPct(), want)
	}
	if want := dec("9700"); !l.availableCash().Equal(want) {
		t.Errorf("cash = %s, want %s", l.availableCash(), want)
	}
	if l.openCount() != 0 {
		t.Errorf("open count = %d, want 0", l.openCount())
	}
	if len(l.closed) != 1 {
		t.Fatalf("closed trades = %d, want 1", len(l.closed))
	}
}

func TestLedgerCloseUnknownTickerIsInvariantBreach(t *testing.T) {
	l := testLedger()
	_, err := l.closePosition("MSFT", dec("100"), d("2024-02-01"), types.ExitPeriodEnd)
	if !errors.Is(err, ErrNoOpenPosition) {
		t.Fatalf("error = %v, want ErrNoOpenPosition", err)
	}
	if isRejection(err) {
		t.Error("ErrNoOpenPosition must not be a rejection")
	}
}

func TestLedgerSnapshotDecomposition(t *testing.T) {
	l := testLedger()
	if _, err := l.openPosition(types.NewSignal("AAPL", d("2024-01-02"), 80), d("2024-01-03"), dec("50")); err != nil {
		t.Fatalf("open AAPL: %v", err)
	}
	if _, err := l.openPosition(types.NewSignal("MSFT", d("2024-01-02"), 70), d("2024-01-03"), dec("100")); err != nil {
		t.Fatalf("open MSFT: %v", err)
	}
	l.markToMarket("AAPL", dec("55"))

	snap := l.snapshot(d("2024-01-05"))
	if len(snap.Positions) != 2 {
		t.Fatalf("snapshot positions = %d, want 2", len(snap.Positions))
	}
	// Ordered by ticker.
	if snap.Positions[0].Ticker != "AAPL" || snap.Positions[1].Ticker != "MSFT" {
		t.Errorf("snapshot order = %s, %s", snap.Positions[0].Ticker, snap.Positions[1].Ticker)
	}
	// 10000 - 60*50 - 30*100 = 4000 cash; 60*55 + 30*100 = 6300 positions.
	if want := dec("4000"); !snap.Cash.Equal(want) {
		t.Errorf("cash = %s, want %s", snap.Cash, want)
	}
	if want := dec("6300"); !snap.PositionsValue().Equal(want) {
		t.Errorf("positions value = %s, want %s", snap.PositionsValue(), want)
	}
	if want := dec("10300"); !snap.TotalValue().Equal(want) {
		t.Errorf("total value = %s, want %s", snap.TotalValue(), want)
	}
}
