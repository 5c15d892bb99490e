// Package stats derives performance metrics from an equity curve and a
// trade log. Every function is pure; nothing here touches the ledger.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/quant/backtest"
)

// PeriodsPerYear is the usual trading-day annualization factor.
const PeriodsPerYear = 252

// Returns is the period-over-period return series of the curve. Points
// following a non-positive equity are skipped.
func Returns(curve []backtest.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev > 0 {
			rets = append(rets, curve[i].Equity/prev-1)
		}
	}
	return rets
}

// CAGR is the geometric growth from the first to the last equity point,
// annualized by periodsPerYear.
func CAGR(curve []backtest.EquityPoint, periodsPerYear int) float64 {
	if len(curve) < 2 {
		return 0
	}
	first := curve[0].Equity
	last := curve[len(curve)-1].Equity
	if first <= 0 {
		return 0
	}
	periods := float64(len(curve) - 1)
	return math.Pow(last/first, float64(periodsPerYear)/periods) - 1
}

// YearReturn is one calendar year's return.
type YearReturn struct {
	Year   int
	Return float64
}

// AnnualReturns computes per-calendar-year returns. The first year runs
// from its first equity point; later years run from the prior year's last
// point, so the yearly returns compound to the full-period return.
func AnnualReturns(curve []backtest.EquityPoint) []YearReturn {
	if len(curve) == 0 {
		return nil
	}
	yearStart := make(map[int]float64)
	yearEnd := make(map[int]float64)
	for _, pt := range curve {
		y := pt.Date.Year()
		if _, ok := yearStart[y]; !ok {
			yearStart[y] = pt.Equity
		}
		yearEnd[y] = pt.Equity
	}
	years := make([]int, 0, len(yearEnd))
	for y := range yearEnd {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearReturn, 0, len(years))
	var prevEnd float64
	for i, y := range years {
		start := yearStart[y]
		if i > 0 {
			start = prevEnd
		}
		end := yearEnd[y]
		r := 0.0
		if start > 0 {
			r = end/start - 1
		}
		out = append(out, YearReturn{Year: y, Return: r})
		prevEnd = end
	}
	return out
}

// MaxDrawdown scans the curve tracking the running peak and returns the
// largest peak-to-trough relative decline as a non-positive fraction,
// along with the peak and trough dates.
func MaxDrawdown(curve []backtest.EquityPoint) (dd float64, peak, trough time.Time) {
	if len(curve) == 0 {
		return 0, time.Time{}, time.Time{}
	}
	peakEq := curve[0].Equity
	peakDate := curve[0].Date
	peak, trough = peakDate, peakDate
	for _, pt := range curve[1:] {
		if pt.Equity > peakEq {
			peakEq = pt.Equity
			peakDate = pt.Date
		}
		if peakEq <= 0 {
			continue
		}
		d := pt.Equity/peakEq - 1
		if d < dd {
			dd = d
			peak = peakDate
			trough = pt.Date
		}
	}
	return dd, peak, trough
}

// Volatility is the population standard deviation of period returns,
// annualized by the square root of periodsPerYear.
func Volatility(curve []backtest.EquityPoint, periodsPerYear int) float64 {
	rets := Returns(curve)
	if len(rets) < 2 {
		return 0
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	var variance float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets))
	return math.Sqrt(variance) * math.Sqrt(float64(periodsPerYear))
}

// Sharpe is (annualized return - riskFree) / volatility. It is NaN when
// volatility is zero rather than dividing by zero.
func Sharpe(curve []backtest.EquityPoint, riskFree float64, periodsPerYear int) float64 {
	vol := Volatility(curve, periodsPerYear)
	if vol == 0 {
		return math.NaN()
	}
	return (CAGR(curve, periodsPerYear) - riskFree) / vol
}

// WinRate is the fraction of realized round trips with positive profit.
// The trade log is replayed per symbol under average-cost accounting:
// each sell closes one round trip whose profit is the net proceeds minus
// the average cost of the units sold. Returns 0 when nothing was realized.
func WinRate(trades []backtest.TradeRecord) float64 {
	type book struct {
		size int
		avg  float64
	}
	books := make(map[string]*book)
	wins, total := 0, 0
	for _, tr := range trades {
		bk := books[tr.Symbol]
		if bk == nil {
			bk = &book{}
			books[tr.Symbol] = bk
		}
		switch tr.Side {
		case backtest.SideBuy:
			prev := bk.avg * float64(bk.size)
			bk.size += tr.Size
			if bk.size > 0 {
				bk.avg = (prev + tr.Gross) / float64(bk.size)
			}
		case backtest.SideSell:
			if tr.Size == 0 {
				continue
			}
			profit := tr.Gross - tr.Fees - bk.avg*float64(tr.Size)
			total++
			if profit > 0 {
				wins++
			}
			bk.size -= tr.Size
			if bk.size <= 0 {
				bk.size, bk.avg = 0, 0
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
