// Package strategies holds the built-in trading strategies. Each one
// implements backtest.Strategy and keeps its own state; the engine never
// inspects anything beyond the interface.
package strategies

import "time"

// PriceSource supplies execution and valuation prices for symbols outside
// the driving feed, typically backed by the daily bar store. Symbols with
// no price on the date are absent from the returned map.
type PriceSource interface {
	Opens(date time.Time, symbols []string) (map[string]float64, error)
	Closes(date time.Time, symbols []string) (map[string]float64, error)
}
