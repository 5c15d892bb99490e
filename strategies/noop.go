package strategies

import "github.com/rustyeddy/quant/backtest"

// Noop trades nothing; useful as a baseline and in tests.
type Noop struct{}

func (Noop) OnBar(bar backtest.Bar, feed *backtest.Feed, broker *backtest.Broker) error {
	return nil
}
