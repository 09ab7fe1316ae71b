package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/jaaknt/turtle-backtest/types"
)

// Engine drives the day-by-day portfolio simulation over the backtest
// window. It owns the ledger and is its only writer; the loop is strictly
// sequential because entry sizing depends on cash freed by the same day's
// exits.
type Engine struct {
	cfg    RunConfig
	source SignalSource
	exit   ExitEvaluator
	rank   RankFunc
	bars   BarReader

	ledger *ledger
	state  *types.PortfolioState
}

// New wires a simulation run. The signal source, exit evaluator and ranking
// function are injected here; the engine never looks implementations up by
// name. Returns a configuration error before any simulation starts.
func New(cfg RunConfig, source SignalSource, exit ExitEvaluator, rank RankFunc, bars BarReader) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("run config: %w", err)
	}
	if rank == nil {
		rank = func(sig types.Signal) int { return sig.Ranking }
	}
	return &Engine{
		cfg:    cfg,
		source: source,
		exit:   exit,
		rank:   rank,
		bars:   bars,
		ledger: newLedger(cfg.InitialCapital, cfg.PositionMin, cfg.PositionMax),
		state:  &types.PortfolioState{RunID: uuid.New()},
	}, nil
}

// Run executes the full backtest window and returns the finished state.
// A run either completes with a full snapshot history (possibly with zero
// trades) or fails on an internal invariant breach; single-day data gaps
// never abort it.
func (e *Engine) Run() (*types.PortfolioState, error) {
	start := types.Day(e.cfg.Start)
	end := types.Day(e.cfg.End)

	slog.Info("starting backtest",
		"runId", e.state.RunID,
		"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly),
		"universe", len(e.cfg.Universe), "maxPositions", e.cfg.MaxPositions)

	bar := initProgressBar(int(end.Sub(start).Hours()/24) + 1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if isTradingDay(d) {
			if err := e.processTradingDay(d, nextTradingDay(d).After(end)); err != nil {
				return nil, err
			}
		}
		bar.Add(1)
	}

	e.state.Trades = append([]types.Position(nil), e.ledger.closed...)

	slog.Info("backtest finished",
		"runId", e.state.RunID,
		"trades", len(e.state.Trades), "snapshots", len(e.state.Snapshots))
	return e.state, nil
}

// processTradingDay applies the per-day state machine in strict order:
// mark-to-market, exits, signal generation, selection, entries, snapshot.
// Exits run before entries so a slot freed today is sized against fresh cash
// and a ticker vacated today cannot be re-entered at a stale price.
func (e *Engine) processTradingDay(d time.Time, last bool) error {
	e.markToMarket(d)

	if err := e.evaluateExits(d); err != nil {
		return err
	}

	signals := e.source.Signals(d, e.cfg.Universe)
	selected := selectSignals(signals, e.ledger.openTickers(), e.rank, e.cfg.MaxPositions, e.cfg.MinSignalRanking)
	if err := e.openEntries(selected); err != nil {
		return err
	}

	if last {
		if err := e.forceCloseAll(d); err != nil {
			return err
		}
	}

	e.state.Snapshots = append(e.state.Snapshots, e.ledger.snapshot(d))
	return nil
}

// markToMarket updates held prices with day d's close. A missing bar leaves
// the last known price in place rather than aborting the run.
func (e *Engine) markToMarket(d time.Time) {
	for _, ticker := range e.ledger.openTickers() {
		pos, _ := e.ledger.position(ticker)
		if d.Before(pos.EntryDate) {
			// Fill is dated after d; nothing to mark yet.
			continue
		}
		dayBar, ok := e.bars.BarOn(ticker, d)
		if !ok {
			slog.Warn("no bar for open position, carrying last price forward",
				"ticker", ticker, "date", d.Format(time.DateOnly))
			continue
		}
		e.ledger.markToMarket(ticker, dayBar.Close)
	}
}

// evaluateExits asks the exit evaluator about every open position using its
// price path from entry through day d.
func (e *Engine) evaluateExits(d time.Time) error {
	for _, ticker := range e.ledger.openTickers() {
		pos, _ := e.ledger.position(ticker)
		if d.Before(pos.EntryDate) {
			continue
		}
		history := e.bars.History(ticker, pos.EntryDate, d)
		if len(history) == 0 {
			continue
		}
		decision, exit := e.exit.Evaluate(pos, history)
		if !exit {
			continue
		}
		if _, err := e.ledger.closePosition(ticker, decision.Price, decision.Date, decision.Reason); err != nil {
			return fmt.Errorf("exit on %s: %w", d.Format(time.DateOnly), err)
		}
	}
	return nil
}

// openEntries fills selected signals at the open of the next trading day
// strictly after the signal date. Signals whose fill day falls outside the
// window, or that no longer clear the ledger's capital constraints, are
// discarded, not raised.
func (e *Engine) openEntries(selected []types.Signal) error {
	for _, sig := range selected {
		fill, ok := e.bars.NextBarAfter(sig.Ticker, sig.Date)
		if !ok {
			slog.Warn("no fill bar after signal date, discarding entry",
				"ticker", sig.Ticker, "signalDate", sig.Date.Format(time.DateOnly))
			continue
		}
		if fill.Date.After(types.Day(e.cfg.End)) {
			slog.Debug("fill day outside backtest window, discarding entry",
				"ticker", sig.Ticker, "fillDate", fill.Date.Format(time.DateOnly))
			continue
		}
		if _, err := e.ledger.openPosition(sig, fill.Date, fill.Open); err != nil {
			if isRejection(err) {
				slog.Debug("entry rejected", "ticker", sig.Ticker, "reason", err)
				continue
			}
			return fmt.Errorf("entry for %s: %w", sig.Ticker, err)
		}
	}
	return nil
}

// forceCloseAll closes every still-open position at its final available
// price so that each trade in the output has a determinate return.
func (e *Engine) forceCloseAll(d time.Time) error {
	for _, ticker := range e.ledger.openTickers() {
		pos, _ := e.ledger.position(ticker)
		price := pos.CurrentPrice
		date := d
		if lastBar, ok := e.bars.LastBarUpTo(ticker, d); ok && !lastBar.Date.Before(pos.EntryDate) {
			price = lastBar.Close
			date = lastBar.Date
		}
		if _, err := e.ledger.closePosition(ticker, price, date, types.ExitPeriodEnd); err != nil {
			return fmt.Errorf("period-end close: %w", err)
		}
	}
	return nil
}

// isTradingDay reports whether d is a weekday. Exchange holidays show up as
// data gaps and are handled by the carry-forward path.
func isTradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func nextTradingDay(d time.Time) time.Time {
	next := d.AddDate(0, 0, 1)
	for !isTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
