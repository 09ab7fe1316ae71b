// Package config loads the YAML run configuration and applies environment
// overrides for credentials.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jaaknt/turtle-backtest/internal/engine"
)

// Config is the top-level configuration for a backtester invocation.
type Config struct {
	Database Database `yaml:"database"`
	Backtest Backtest `yaml:"backtest"`
	Exit     Exit     `yaml:"exit"`
	Logging  Logging  `yaml:"logging"`
	Report   Report   `yaml:"report"`
}

// Database holds the connection string for the price history store.
type Database struct {
	URL string `yaml:"url"`
}

// Backtest holds the simulation window and portfolio parameters.
type Backtest struct {
	StartDate        string   `yaml:"start_date"` // YYYY-MM-DD
	EndDate          string   `yaml:"end_date"`
	InitialCapital   string   `yaml:"initial_capital"`
	PositionMin      string   `yaml:"position_min"`
	PositionMax      string   `yaml:"position_max"`
	MaxPositions     int      `yaml:"max_positions"`
	MinSignalRanking int      `yaml:"min_signal_ranking"`
	Universe         []string `yaml:"universe"`
	Benchmarks       []string `yaml:"benchmarks"`
	RiskFreeRate     float64  `yaml:"risk_free_rate"`
}

// Exit selects and parameterizes the exit strategy.
type Exit struct {
	Strategy      string  `yaml:"strategy"` // profit-loss | ema | macd | atr | buy-hold
	ProfitPct     float64 `yaml:"profit_pct"`
	StopPct       float64 `yaml:"stop_pct"`
	EMAPeriod     int     `yaml:"ema_period"`
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
	ATRPeriod     int     `yaml:"atr_period"`
	ATRMultiplier float64 `yaml:"atr_multiplier"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Report controls which output artifacts get written.
type Report struct {
	TradesCSV  string `yaml:"trades_csv"`  // path, empty disables
	EquityHTML string `yaml:"equity_html"` // path, empty disables
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// ToRunConfig converts the file representation into the engine's typed
// configuration. Parse failures surface here, before anything connects.
func (c *Config) ToRunConfig() (engine.RunConfig, error) {
	start, err := time.Parse(time.DateOnly, c.Backtest.StartDate)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("parse start_date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, c.Backtest.EndDate)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("parse end_date: %w", err)
	}
	capital, err := decimal.NewFromString(c.Backtest.InitialCapital)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("parse initial_capital: %w", err)
	}
	posMin, err := decimal.NewFromString(c.Backtest.PositionMin)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("parse position_min: %w", err)
	}
	posMax, err := decimal.NewFromString(c.Backtest.PositionMax)
	if err != nil {
		return engine.RunConfig{}, fmt.Errorf("parse position_max: %w", err)
	}

	return engine.RunConfig{
		Start:            start,
		End:              end,
		InitialCapital:   capital,
		PositionMin:      posMin,
		PositionMax:      posMax,
		MaxPositions:     c.Backtest.MaxPositions,
		MinSignalRanking: c.Backtest.MinSignalRanking,
		Universe:         c.Backtest.Universe,
		BenchmarkTickers: c.Backtest.Benchmarks,
		RiskFreeRate:     c.Backtest.RiskFreeRate,
	}, nil
}

// SlogLevel maps the configured level name onto slog, defaulting to info.
func (l Logging) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
