package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/backtest"
)

func pctBar(d time.Time, open float64, pct *float64) backtest.Bar {
	return backtest.Bar{Date: d, Open: open, High: open + 1, Low: open - 1, Close: open + 0.5, PctChg: pct}
}

func newBroker(t *testing.T, cash float64) *backtest.Broker {
	t.Helper()
	b, err := backtest.NewBroker(cash, backtest.CostConfig{}, "", false)
	require.NoError(t, err)
	return b
}

func TestPriorDayMomentum(t *testing.T) {
	t.Parallel()

	up, down, flat := 2.0, -2.0, 0.5
	d := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
	bars := []backtest.Bar{
		pctBar(d, 10, nil),
		pctBar(d.AddDate(0, 0, 1), 11, &up),
		pctBar(d.AddDate(0, 0, 2), 12, &flat),
		pctBar(d.AddDate(0, 0, 3), 13, &down),
		pctBar(d.AddDate(0, 0, 4), 14, &flat),
	}
	feed := backtest.NewFeed(bars)
	broker := newBroker(t, 100_000)
	strat := NewPriorDayMomentum("TEST.SYM", 1.0, -1.0)

	feed.Reset()
	for {
		bar, err := feed.Current()
		require.NoError(t, err)
		require.NoError(t, strat.OnBar(bar, feed, broker))
		if !feed.Advance() {
			break
		}
	}

	trades := broker.Trades()
	require.Len(t, trades, 2, "one entry after +2%%, one exit after -2%%")

	assert.Equal(t, backtest.SideBuy, trades[0].Side)
	assert.True(t, trades[0].Date.Equal(bars[2].Date), "buys the bar after the up move")
	assert.Equal(t, 12.0, trades[0].Price)

	assert.Equal(t, backtest.SideSell, trades[1].Side)
	assert.True(t, trades[1].Date.Equal(bars[4].Date), "sells the bar after the down move")

	_, held := broker.Position("TEST.SYM")
	assert.False(t, held)
}

func TestPriorDayMomentum_HoldsWithoutSignal(t *testing.T) {
	t.Parallel()

	flat := 0.2
	d := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
	bars := []backtest.Bar{
		pctBar(d, 10, nil),
		pctBar(d.AddDate(0, 0, 1), 11, &flat),
	}
	feed := backtest.NewFeed(bars)
	broker := newBroker(t, 100_000)
	strat := NewPriorDayMomentum("TEST.SYM", 1.0, -1.0)

	feed.Reset()
	feed.Advance()
	bar, err := feed.Current()
	require.NoError(t, err)
	require.NoError(t, strat.OnBar(bar, feed, broker))

	assert.Empty(t, broker.Trades())
}
