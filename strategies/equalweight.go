package strategies

import (
	"fmt"

	"github.com/rustyeddy/quant/backtest"
)

// EqualWeight rebalances a fixed universe to equal weights on the first
// trading day of every Years-sized calendar bucket. Execution uses that
// day's opens; valuation marks come from closes. Symbols without a price
// on a rebalance day keep their current weight until the next one.
type EqualWeight struct {
	Symbols []string
	Years   int

	src        PriceSource
	seeded     bool
	lastBucket int
}

func NewEqualWeight(src PriceSource, symbols []string, years int) (*EqualWeight, error) {
	if src == nil {
		return nil, fmt.Errorf("equal-weight: price source is required")
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("equal-weight: symbols must not be empty")
	}
	if years < 1 {
		years = 1
	}
	return &EqualWeight{Symbols: symbols, Years: years, src: src}, nil
}

func (s *EqualWeight) OnBar(bar backtest.Bar, feed *backtest.Feed, broker *backtest.Broker) error {
	bucket := bar.Date.Year() / s.Years
	if s.seeded && bucket == s.lastBucket {
		return nil
	}

	opens, err := s.src.Opens(bar.Date, s.Symbols)
	if err != nil {
		return err
	}
	weight := 1.0 / float64(len(s.Symbols))
	targets := make(map[string]float64, len(s.Symbols))
	prices := make(map[string]float64, len(opens))
	for _, sym := range s.Symbols {
		px, ok := opens[sym]
		if !ok || px <= 0 {
			continue
		}
		targets[sym] = weight
		prices[sym] = px
	}
	if len(targets) == 0 {
		// Nothing tradable today; try again next bar.
		return nil
	}

	broker.RebalanceTargetPercents(bar.Date, prices, targets)
	s.seeded = true
	s.lastBucket = bucket
	return nil
}

// MarkPrices values the book at the universe's closes for the day.
func (s *EqualWeight) MarkPrices(bar backtest.Bar, feed *backtest.Feed, broker *backtest.Broker) (map[string]float64, error) {
	return s.src.Closes(bar.Date, s.Symbols)
}
