// Package config loads and validates backtest run configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quant/backtest"
)

// Config is the complete configuration for one backtest invocation.
type Config struct {
	Data     DataConfig          `json:"data" yaml:"data"`
	Run      RunConfig           `json:"run" yaml:"run"`
	Costs    backtest.CostConfig `json:"costs" yaml:"costs"`
	Strategy StrategyConfig      `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig       `json:"journal" yaml:"journal"`
}

// DataConfig locates the daily bar store.
type DataConfig struct {
	DB    string `json:"db" yaml:"db"`
	Table string `json:"table" yaml:"table"`
}

// RunConfig holds the simulation window and ledger parameters.
type RunConfig struct {
	Symbol   string  `json:"symbol" yaml:"symbol"`
	Start    string  `json:"start" yaml:"start"` // yyyymmdd
	End      string  `json:"end,omitempty" yaml:"end,omitempty"`
	Cash     float64 `json:"cash" yaml:"cash"`
	TradeLog bool    `json:"trade_log" yaml:"trade_log"`
}

// StrategyConfig names a built-in strategy and its parameters.
type StrategyConfig struct {
	Name string `json:"name" yaml:"name"` // noop | momentum | sma-cross | equal-weight

	// momentum
	Up   float64 `json:"up,omitempty" yaml:"up,omitempty"`
	Down float64 `json:"down,omitempty" yaml:"down,omitempty"`

	// sma-cross
	Fast int `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow int `json:"slow,omitempty" yaml:"slow,omitempty"`

	// equal-weight
	Symbols []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Years   int      `json:"years,omitempty" yaml:"years,omitempty"`
}

// JournalConfig controls result persistence; empty fields disable the
// corresponding output.
type JournalConfig struct {
	DB        string `json:"db,omitempty" yaml:"db,omitempty"`
	EquityCSV string `json:"equity_csv,omitempty" yaml:"equity_csv,omitempty"`
	TradesCSV string `json:"trades_csv,omitempty" yaml:"trades_csv,omitempty"`
}

// LoadFromFile reads a YAML or JSON config and validates it.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		if jerr := json.Unmarshal(raw, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration is runnable.
func (c *Config) Validate() error {
	if c.Data.DB == "" {
		return fmt.Errorf("data.db is required")
	}
	if c.Run.Start == "" {
		return fmt.Errorf("run.start is required")
	}
	if c.Run.Cash <= 0 {
		return fmt.Errorf("run.cash must be positive")
	}
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	switch c.Strategy.Name {
	case "noop":
	case "momentum":
		if c.Run.Symbol == "" {
			return fmt.Errorf("run.symbol is required for the momentum strategy")
		}
	case "sma-cross":
		if c.Run.Symbol == "" {
			return fmt.Errorf("run.symbol is required for the sma-cross strategy")
		}
		if c.Strategy.Fast <= 0 || c.Strategy.Slow <= c.Strategy.Fast {
			return fmt.Errorf("sma-cross windows must satisfy 0 < fast < slow")
		}
	case "equal-weight":
		if len(c.Strategy.Symbols) == 0 {
			return fmt.Errorf("strategy.symbols is required for the equal-weight strategy")
		}
	default:
		return fmt.Errorf("unknown strategy: %q", c.Strategy.Name)
	}
	return nil
}

// Default returns a configuration with sensible defaults; the data store
// path and run window still need to be filled in.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			DB:    "./data/data.sqlite",
			Table: "daily",
		},
		Run: RunConfig{
			Start: "20200101",
			Cash:  1_000_000,
		},
		Costs: backtest.DefaultCosts(),
		Strategy: StrategyConfig{
			Name: "momentum",
			Up:   1.0,
			Down: -1.0,
		},
	}
}
