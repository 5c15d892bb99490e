// Package journal persists completed backtest runs: a summary row per run
// plus its trade log and equity curve.
package journal

import (
	"time"

	"github.com/rustyeddy/quant/backtest"
)

// Run summarizes one completed backtest.
type Run struct {
	RunID    string
	Created  time.Time
	Strategy string
	Symbol   string
	Start    time.Time // first bar date
	End      time.Time // last bar date
	Bars     int

	InitialCash float64
	FinalEquity float64

	CAGR        float64
	MaxDrawdown float64
	Volatility  float64
	Sharpe      float64
	WinRate     float64
	TotalFees   float64
}

// ReturnPct is the full-period return of the run.
func (r Run) ReturnPct() float64 {
	if r.InitialCash <= 0 {
		return 0
	}
	return r.FinalEquity/r.InitialCash - 1
}

type Journal interface {
	RecordRun(run Run) error
	RecordTrade(runID string, t backtest.TradeRecord) error
	RecordEquity(runID string, p backtest.EquityPoint) error
	Close() error
}
