package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/jaaknt/turtle-backtest/internal/config"
	"github.com/jaaknt/turtle-backtest/internal/engine"
	"github.com/jaaknt/turtle-backtest/internal/exit"
	"github.com/jaaknt/turtle-backtest/internal/ranking"
	"github.com/jaaknt/turtle-backtest/internal/report"
	"github.com/jaaknt/turtle-backtest/internal/repository"
	"github.com/jaaknt/turtle-backtest/strategies/darvas"
	"github.com/jaaknt/turtle-backtest/types"
)

// preloadLookbackYears extends the cached window back before the run start
// so indicator warmup and the 52-week ranking components have data on day one.
const preloadLookbackYears = 2

func main() {
	if err := run(); err != nil {
		slog.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	})))

	runCfg, err := cfg.ToRunConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	cache := repository.NewBarCache()
	tickers := append(append([]string{}, runCfg.Universe...), runCfg.BenchmarkTickers...)
	preloadStart := runCfg.Start.AddDate(-preloadLookbackYears, 0, 0)
	if err := cache.Preload(ctx, db, tickers, preloadStart, runCfg.End); err != nil {
		return fmt.Errorf("preload bars: %w", err)
	}

	exitEval, err := buildExitEvaluator(cfg.Exit, cache)
	if err != nil {
		return err
	}

	eng, err := engine.New(runCfg, darvas.New(cache), exitEval, ranking.NewMomentum(cache).Rank, cache)
	if err != nil {
		return err
	}
	state, err := eng.Run()
	if err != nil {
		return err
	}

	benchmarks := make(map[string][]types.Bar, len(runCfg.BenchmarkTickers))
	for _, ticker := range runCfg.BenchmarkTickers {
		benchmarks[ticker] = cache.History(ticker, runCfg.Start, runCfg.End)
	}
	metrics := engine.CalculateMetrics(state, runCfg.InitialCapital, benchmarks, runCfg.RiskFreeRate)

	report.WriteSummary(os.Stdout, metrics)
	if path := cfg.Report.TradesCSV; path != "" {
		if err := report.WriteTradesCSVFile(path, state.Trades); err != nil {
			return err
		}
		slog.Info("trades written", "path", path)
	}
	if path := cfg.Report.EquityHTML; path != "" {
		if err := report.WriteEquityCurveFile(path, state); err != nil {
			return err
		}
		slog.Info("equity curve written", "path", path)
	}
	return nil
}

// buildExitEvaluator maps the configured strategy name onto an implementation.
// This is the only place names and implementations meet.
func buildExitEvaluator(cfg config.Exit, cache *repository.BarCache) (engine.ExitEvaluator, error) {
	switch cfg.Strategy {
	case "profit-loss":
		return exit.NewProfitLoss(
			decimal.NewFromFloat(cfg.ProfitPct),
			decimal.NewFromFloat(cfg.StopPct)), nil
	case "ema":
		return exit.NewEMA(cache, cfg.EMAPeriod), nil
	case "macd":
		return exit.NewMACD(cache, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal), nil
	case "atr":
		return exit.NewATRTrailing(cache, cfg.ATRPeriod, cfg.ATRMultiplier), nil
	case "buy-hold":
		return exit.NewBuyHold(), nil
	default:
		return nil, fmt.Errorf("unknown exit strategy %q", cfg.Strategy)
	}
}
