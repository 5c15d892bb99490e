package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "run.yaml", `
data:
  db: bars.sqlite
  table: daily
run:
  symbol: 600001.SH
  start: "20200102"
  end: "20231229"
  cash: 500000
  trade_log: true
costs:
  commission_rate: 0.0002
  min_commission: 5
  tax_rate: 0.001
  slippage: 0.0001
strategy:
  name: momentum
  up: 2.0
  down: -2.0
journal:
  db: runs.sqlite
  equity_csv: out/equity.csv
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bars.sqlite", cfg.Data.DB)
	assert.Equal(t, "600001.SH", cfg.Run.Symbol)
	assert.Equal(t, 500000.0, cfg.Run.Cash)
	assert.True(t, cfg.Run.TradeLog)
	assert.Equal(t, 0.0002, cfg.Costs.CommissionRate)
	assert.Equal(t, 0.001, cfg.Costs.TaxRate)
	assert.Equal(t, 2.0, cfg.Strategy.Up)
	assert.Equal(t, "runs.sqlite", cfg.Journal.DB)
	assert.Equal(t, "out/equity.csv", cfg.Journal.EquityCSV)
}

func TestLoadFromFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "run.json", `{
  "data": {"db": "bars.sqlite"},
  "run": {"symbol": "600001.SH", "start": "20200102", "cash": 1000000},
  "strategy": {"name": "momentum", "up": 1.0, "down": -1.0}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bars.sqlite", cfg.Data.DB)
	assert.Equal(t, 1_000_000.0, cfg.Run.Cash)
}

func TestLoadFromFile_KeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "run.yaml", `
data:
  db: bars.sqlite
run:
  symbol: 600001.SH
strategy:
  name: momentum
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "daily", cfg.Data.Table)
	assert.Equal(t, "20200101", cfg.Run.Start)
	assert.Equal(t, 1_000_000.0, cfg.Run.Cash)
	assert.Equal(t, 0.00015, cfg.Costs.CommissionRate)
}

func TestLoadFromFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "bad.yaml", "::: not yaml { nor json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		cfg := Default()
		cfg.Run.Symbol = "600001.SH"
		return cfg
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing db", func(c *Config) { c.Data.DB = "" }},
		{"missing start", func(c *Config) { c.Run.Start = "" }},
		{"zero cash", func(c *Config) { c.Run.Cash = 0 }},
		{"bad commission", func(c *Config) { c.Costs.CommissionRate = 1.5 }},
		{"unknown strategy", func(c *Config) { c.Strategy.Name = "hodl" }},
		{"momentum without symbol", func(c *Config) { c.Run.Symbol = "" }},
		{"sma-cross without windows", func(c *Config) { c.Strategy.Name = "sma-cross" }},
		{"sma-cross inverted windows", func(c *Config) {
			c.Strategy.Name = "sma-cross"
			c.Strategy.Fast = 50
			c.Strategy.Slow = 20
		}},
		{"equal-weight without symbols", func(c *Config) {
			c.Strategy.Name = "equal-weight"
			c.Strategy.Symbols = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_SMACross(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Run.Symbol = "600001.SH"
	cfg.Strategy.Name = "sma-cross"
	cfg.Strategy.Fast = 20
	cfg.Strategy.Slow = 60
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EqualWeight(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Strategy.Name = "equal-weight"
	cfg.Strategy.Symbols = []string{"600001.SH", "600002.SH"}
	cfg.Strategy.Years = 2
	assert.NoError(t, cfg.Validate())
}
