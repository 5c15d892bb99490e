package strategies

import (
	"fmt"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/indicators"
)

// SMACross holds the symbol while the fast moving average of closes is
// above the slow one, and is flat otherwise. Orders execute at the next
// decision's bar open, so the averages only ever see completed bars.
type SMACross struct {
	Symbol string

	fast *indicators.SimpleMA
	slow *indicators.SimpleMA
}

// NewSMACross builds a crossover strategy from fast and slow window sizes.
func NewSMACross(symbol string, fast, slow int) (*SMACross, error) {
	if symbol == "" {
		return nil, fmt.Errorf("strategies: sma-cross needs a symbol")
	}
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("strategies: sma-cross windows must satisfy 0 < fast < slow, got fast=%d slow=%d", fast, slow)
	}
	return &SMACross{
		Symbol: symbol,
		fast:   indicators.NewMA(fast),
		slow:   indicators.NewMA(slow),
	}, nil
}

func (s *SMACross) OnBar(bar backtest.Bar, feed *backtest.Feed, broker *backtest.Broker) error {
	// Trade on the signal from bars before today, then fold today's close in.
	if s.slow.Ready() {
		var err error
		if s.fast.Value() > s.slow.Value() {
			_, err = broker.OrderTargetPercent(bar.Date, s.Symbol, bar.Open, 1.0)
		} else {
			_, err = broker.SellAll(bar.Date, s.Symbol, bar.Open)
		}
		if err != nil {
			return err
		}
	}
	s.fast.Update(bar.Close)
	s.slow.Update(bar.Close)
	return nil
}
