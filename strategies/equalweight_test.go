package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quant/backtest"
)

// stubPrices serves the same open/close quotes on every date and counts
// how often the strategy asked for opens.
type stubPrices struct {
	opens     map[string]float64
	closes    map[string]float64
	openCalls int
}

func (s *stubPrices) Opens(date time.Time, symbols []string) (map[string]float64, error) {
	s.openCalls++
	return s.opens, nil
}

func (s *stubPrices) Closes(date time.Time, symbols []string) (map[string]float64, error) {
	return s.closes, nil
}

func TestNewEqualWeight_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewEqualWeight(nil, []string{"A"}, 1)
	assert.Error(t, err)

	_, err = NewEqualWeight(&stubPrices{}, nil, 1)
	assert.Error(t, err)

	s, err := NewEqualWeight(&stubPrices{}, []string{"A"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Years, "interval floors at one year")
}

func TestEqualWeight_RebalancesOncePerBucket(t *testing.T) {
	t.Parallel()

	src := &stubPrices{
		opens:  map[string]float64{"A": 100, "B": 50},
		closes: map[string]float64{"A": 101, "B": 51},
	}
	strat, err := NewEqualWeight(src, []string{"A", "B"}, 1)
	require.NoError(t, err)

	broker := newBroker(t, 1_000_000)
	bars := []backtest.Bar{
		{Date: time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2020, time.January, 3, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC)},
	}
	feed := backtest.NewFeed(bars)

	require.NoError(t, strat.OnBar(bars[0], feed, broker))
	assert.Equal(t, 1, src.openCalls)
	firstTrades := len(broker.Trades())
	assert.NotZero(t, firstTrades)

	// Same calendar year: no new orders.
	require.NoError(t, strat.OnBar(bars[1], feed, broker))
	assert.Equal(t, 1, src.openCalls)
	assert.Len(t, broker.Trades(), firstTrades)

	// New year: rebalances again.
	require.NoError(t, strat.OnBar(bars[2], feed, broker))
	assert.Equal(t, 2, src.openCalls)

	// Both symbols hold roughly half the book.
	equity := broker.TotalEquity()
	for sym, px := range src.opens {
		pos, ok := broker.Position(sym)
		require.True(t, ok, sym)
		assert.InDelta(t, 0.5, float64(pos.Size)*px/equity, px/equity, sym)
	}
}

func TestEqualWeight_MarkPricesComeFromCloses(t *testing.T) {
	t.Parallel()

	src := &stubPrices{closes: map[string]float64{"A": 12.5}}
	strat, err := NewEqualWeight(src, []string{"A"}, 1)
	require.NoError(t, err)

	marks, err := strat.MarkPrices(backtest.Bar{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A": 12.5}, marks)
}

func TestEqualWeight_SkipsUntradableDay(t *testing.T) {
	t.Parallel()

	src := &stubPrices{opens: map[string]float64{}}
	strat, err := NewEqualWeight(src, []string{"A"}, 1)
	require.NoError(t, err)

	broker := newBroker(t, 1_000_000)
	bar := backtest.Bar{Date: time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, strat.OnBar(bar, nil, broker))
	assert.Empty(t, broker.Trades())

	// Still unseeded, so the next bar tries again.
	src.opens = map[string]float64{"A": 10}
	bar.Date = bar.Date.AddDate(0, 0, 1)
	require.NoError(t, strat.OnBar(bar, nil, broker))
	assert.NotEmpty(t, broker.Trades())
}
