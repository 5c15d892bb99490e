// Package runner wires a feed, broker, and strategy into a one-shot
// backtest and bundles the derived statistics with the raw output.
package runner

import (
	"time"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/stats"
)

// DefaultInitialCash is used when Options.InitialCash is zero.
const DefaultInitialCash = 1_000_000

// Options configures a single run.
type Options struct {
	InitialCash    float64
	Symbol         string // default symbol for single-symbol strategies
	Costs          backtest.CostConfig
	TradeLog       bool
	PeriodsPerYear int     // 0 means stats.PeriodsPerYear
	RiskFree       float64 // annual risk-free rate for Sharpe
}

// Result is a completed run plus its performance metrics.
type Result struct {
	InitialCash float64
	FinalEquity float64
	Curve       []backtest.EquityPoint
	Trades      []backtest.TradeRecord
	TotalFees   float64

	CAGR           float64
	AnnualReturns  []stats.YearReturn
	MaxDrawdown    float64
	DrawdownPeak   time.Time
	DrawdownTrough time.Time
	Volatility     float64
	Sharpe         float64
	WinRate        float64
}

// Run executes strategy over bars and computes the summary statistics.
func Run(bars []backtest.Bar, strategy backtest.Strategy, opts Options) (*Result, error) {
	if opts.InitialCash == 0 {
		opts.InitialCash = DefaultInitialCash
	}
	ppy := opts.PeriodsPerYear
	if ppy == 0 {
		ppy = stats.PeriodsPerYear
	}

	broker, err := backtest.NewBroker(opts.InitialCash, opts.Costs, opts.Symbol, opts.TradeLog)
	if err != nil {
		return nil, err
	}
	feed := backtest.NewFeed(bars)
	engine := backtest.NewEngine(feed, broker, strategy)

	curve, err := engine.Run()
	if err != nil {
		return nil, err
	}

	res := &Result{
		InitialCash: opts.InitialCash,
		FinalEquity: opts.InitialCash,
		Curve:       curve,
		Trades:      broker.Trades(),
		TotalFees:   broker.TotalFees(),
	}
	if len(curve) > 0 {
		res.FinalEquity = curve[len(curve)-1].Equity
	}
	res.CAGR = stats.CAGR(curve, ppy)
	res.AnnualReturns = stats.AnnualReturns(curve)
	res.MaxDrawdown, res.DrawdownPeak, res.DrawdownTrough = stats.MaxDrawdown(curve)
	res.Volatility = stats.Volatility(curve, ppy)
	res.Sharpe = stats.Sharpe(curve, opts.RiskFree, ppy)
	res.WinRate = stats.WinRate(res.Trades)
	return res, nil
}
