package backtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopStrategy struct{}

func (noopStrategy) OnBar(bar Bar, feed *Feed, broker *Broker) error { return nil }

type buyOnceStrategy struct {
	symbol string
	bought bool
}

func (s *buyOnceStrategy) OnBar(bar Bar, feed *Feed, broker *Broker) error {
	if s.bought {
		return nil
	}
	s.bought = true
	_, err := broker.Buy(bar.Date, s.symbol, bar.Open, 1)
	return err
}

type failingStrategy struct{ err error }

func (s failingStrategy) OnBar(bar Bar, feed *Feed, broker *Broker) error { return s.err }

type hookStrategy struct {
	noopStrategy
	started, ended int
}

func (s *hookStrategy) OnStart(feed *Feed, broker *Broker) error {
	s.started++
	return nil
}

func (s *hookStrategy) OnEnd(feed *Feed, broker *Broker) error {
	s.ended++
	return nil
}

type markStrategy struct {
	noopStrategy
	marks map[string]float64
}

func (s markStrategy) MarkPrices(bar Bar, feed *Feed, broker *Broker) (map[string]float64, error) {
	return s.marks, nil
}

func TestEngine_OnePointPerBar(t *testing.T) {
	t.Parallel()

	bars := testBars(5)
	b := newTestBroker(t, 1_000_000, freeCosts())
	e := NewEngine(NewFeed(bars), b, noopStrategy{})

	curve, err := e.Run()
	require.NoError(t, err)
	require.Len(t, curve, len(bars))
	for i, pt := range curve {
		assert.True(t, pt.Date.Equal(bars[i].Date), "point %d matches feed order", i)
		assert.Equal(t, 1_000_000.0, pt.Equity)
		if i > 0 {
			assert.True(t, curve[i-1].Date.Before(pt.Date), "dates strictly increasing")
		}
	}
}

func TestEngine_NoReentry(t *testing.T) {
	t.Parallel()

	e := NewEngine(NewFeed(testBars(2)), newTestBroker(t, 1000, freeCosts()), noopStrategy{})
	_, err := e.Run()
	require.NoError(t, err)

	_, err = e.Run()
	assert.ErrorIs(t, err, ErrEngineDone)
}

func TestEngine_StrategyErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	e := NewEngine(NewFeed(testBars(3)), newTestBroker(t, 1000, freeCosts()), failingStrategy{err: boom})

	_, err := e.Run()
	assert.ErrorIs(t, err, boom, "strategy failures are not swallowed")
}

func TestEngine_Hooks(t *testing.T) {
	t.Parallel()

	strat := &hookStrategy{}
	e := NewEngine(NewFeed(testBars(3)), newTestBroker(t, 1000, freeCosts()), strat)

	_, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, strat.started)
	assert.Equal(t, 1, strat.ended)
}

func TestEngine_DefaultMarkFallback(t *testing.T) {
	t.Parallel()

	bars := testBars(2)
	b, err := NewBroker(1000, freeCosts(), "TEST.SYM", false)
	require.NoError(t, err)
	e := NewEngine(NewFeed(bars), b, &buyOnceStrategy{symbol: "TEST.SYM"})

	curve, err := e.Run()
	require.NoError(t, err)
	require.Len(t, curve, 2)

	// One unit bought at bar 0's open, valued at each bar's close.
	assert.InDelta(t, 1000-bars[0].Open+bars[0].Close, curve[0].Equity, 1e-9)
	assert.InDelta(t, 1000-bars[0].Open+bars[1].Close, curve[1].Equity, 1e-9)
}

func TestEngine_StrategyMarksOverrideFallback(t *testing.T) {
	t.Parallel()

	bars := testBars(2)
	b, err := NewBroker(1000, freeCosts(), "TEST.SYM", false)
	require.NoError(t, err)
	strat := markStrategy{marks: map[string]float64{"OTHER": 42}}
	e := NewEngine(NewFeed(bars), b, strat)

	_, err = e.Run()
	require.NoError(t, err)

	// The strategy's marks were applied, and the default symbol was still
	// marked at the bar close.
	px, ok := b.Mark("OTHER")
	require.True(t, ok)
	assert.Equal(t, 42.0, px)
	px, ok = b.Mark("TEST.SYM")
	require.True(t, ok)
	assert.Equal(t, bars[1].Close, px)
}

func TestEngine_EmptyFeed(t *testing.T) {
	t.Parallel()

	e := NewEngine(NewFeed(nil), newTestBroker(t, 1000, freeCosts()), noopStrategy{})
	curve, err := e.Run()
	require.NoError(t, err)
	assert.Empty(t, curve)
}

func TestEngine_Determinism(t *testing.T) {
	t.Parallel()

	up, down := 2.0, -2.0
	bars := testBars(6)
	for i := 1; i < len(bars); i++ {
		pct := up
		if i%2 == 0 {
			pct = down
		}
		bars[i].PctChg = &pct
	}

	run := func() ([]EquityPoint, []TradeRecord) {
		b, err := NewBroker(1_000_000, DefaultCosts(), "TEST.SYM", false)
		require.NoError(t, err)
		strat := &flipStrategy{symbol: "TEST.SYM", up: up, down: down}
		curve, err := NewEngine(NewFeed(bars), b, strat).Run()
		require.NoError(t, err)
		return curve, b.Trades()
	}

	curve1, trades1 := run()
	curve2, trades2 := run()
	assert.Equal(t, curve1, curve2, "identical inputs reproduce the equity curve bit for bit")
	assert.Equal(t, trades1, trades2, "identical inputs reproduce the trade log")
	assert.NotEmpty(t, trades1)
}

// flipStrategy trades on the prior bar's percent change, exercising both
// ledger sides during determinism runs.
type flipStrategy struct {
	symbol   string
	up, down float64
}

func (s *flipStrategy) OnBar(bar Bar, feed *Feed, broker *Broker) error {
	prev, ok := feed.Prev()
	if !ok || prev.PctChg == nil {
		return nil
	}
	switch {
	case *prev.PctChg >= s.up:
		_, err := broker.OrderTargetPercent(bar.Date, s.symbol, bar.Open, 1.0)
		return err
	case *prev.PctChg <= s.down:
		_, err := broker.SellAll(bar.Date, s.symbol, bar.Open)
		return err
	}
	return nil
}
