package strategies

import "github.com/rustyeddy/quant/backtest"

// PriorDayMomentum goes all-in at the open after the prior bar gained at
// least Up percent, and liquidates at the open after it lost Down percent
// or more. Bars without a prior percent change are held through.
type PriorDayMomentum struct {
	Symbol string
	Up     float64 // e.g. 1.0 for +1%
	Down   float64 // e.g. -1.0 for -1%
}

func NewPriorDayMomentum(symbol string, up, down float64) *PriorDayMomentum {
	return &PriorDayMomentum{Symbol: symbol, Up: up, Down: down}
}

func (s *PriorDayMomentum) OnBar(bar backtest.Bar, feed *backtest.Feed, broker *backtest.Broker) error {
	prev, ok := feed.Prev()
	if !ok || prev.PctChg == nil {
		return nil
	}
	switch {
	case *prev.PctChg >= s.Up:
		_, err := broker.OrderTargetPercent(bar.Date, s.Symbol, bar.Open, 1.0)
		return err
	case *prev.PctChg <= s.Down:
		_, err := broker.SellAll(bar.Date, s.Symbol, bar.Open)
		return err
	}
	return nil
}
