package backtest

import (
	"errors"
	"time"
)

// ErrEngineDone is returned by Run on re-entry; an engine runs once.
var ErrEngineDone = errors.New("backtest: engine already ran")

// Strategy is invoked once per bar, before valuation. Implementations may
// call any broker operation. A returned error aborts the run and
// propagates unchanged to the caller.
type Strategy interface {
	OnBar(bar Bar, feed *Feed, broker *Broker) error
}

// MarkPricer is an optional Strategy capability supplying symbol marks for
// valuation. When a strategy does not implement it, or returns an empty
// map, the engine falls back to {broker default symbol: bar close}.
type MarkPricer interface {
	MarkPrices(bar Bar, feed *Feed, broker *Broker) (map[string]float64, error)
}

// Starter is an optional hook called once before the first bar.
type Starter interface {
	OnStart(feed *Feed, broker *Broker) error
}

// Ender is an optional hook called once after the last bar.
type Ender interface {
	OnEnd(feed *Feed, broker *Broker) error
}

// EquityPoint is one tick's valuation of the ledger.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

type engineState int

const (
	stateInitialized engineState = iota
	stateRunning
	stateCompleted
)

// Engine drives the tick loop: for each bar it lets the strategy trade
// through the broker, re-marks the book, and records one equity point.
// Single control path, no concurrency.
type Engine struct {
	feed     *Feed
	broker   *Broker
	strategy Strategy
	state    engineState
	curve    []EquityPoint
}

func NewEngine(feed *Feed, broker *Broker, strategy Strategy) *Engine {
	return &Engine{feed: feed, broker: broker, strategy: strategy}
}

// Curve returns the equity points recorded so far.
func (e *Engine) Curve() []EquityPoint { return e.curve }

// Run executes the backtest and returns the equity curve with exactly one
// point per bar, in feed order. An engine cannot be re-run; restarting
// takes a reset feed and a fresh broker.
func (e *Engine) Run() ([]EquityPoint, error) {
	if e.state != stateInitialized {
		return nil, ErrEngineDone
	}
	e.state = stateRunning
	defer func() { e.state = stateCompleted }()

	e.feed.Reset()
	if e.feed.Len() == 0 {
		return nil, nil
	}

	if s, ok := e.strategy.(Starter); ok {
		if err := s.OnStart(e.feed, e.broker); err != nil {
			return nil, err
		}
	}

	// Seed marks from the first bar so the strategy sees a valued book on
	// its first call.
	first, err := e.feed.Current()
	if err != nil {
		return nil, err
	}
	marks, err := e.collectMarks(first)
	if err != nil {
		return nil, err
	}
	e.broker.UpdateMarks(marks)

	for {
		bar, err := e.feed.Current()
		if err != nil {
			return nil, err
		}
		if err := e.strategy.OnBar(bar, e.feed, e.broker); err != nil {
			return nil, err
		}
		marks, err := e.collectMarks(bar)
		if err != nil {
			return nil, err
		}
		e.broker.UpdateMarks(marks)
		e.curve = append(e.curve, EquityPoint{Date: bar.Date, Equity: e.broker.TotalEquity()})
		if !e.feed.Advance() {
			break
		}
	}

	if s, ok := e.strategy.(Ender); ok {
		if err := s.OnEnd(e.feed, e.broker); err != nil {
			return nil, err
		}
	}
	return e.curve, nil
}

func (e *Engine) collectMarks(bar Bar) (map[string]float64, error) {
	if mp, ok := e.strategy.(MarkPricer); ok {
		marks, err := mp.MarkPrices(bar, e.feed, e.broker)
		if err != nil {
			return nil, err
		}
		if len(marks) > 0 {
			if sym := e.broker.Symbol(); sym != "" {
				if _, ok := marks[sym]; !ok {
					marks[sym] = bar.Close
				}
			}
			return marks, nil
		}
	}
	if sym := e.broker.Symbol(); sym != "" {
		return map[string]float64{sym: bar.Close}, nil
	}
	return nil, nil
}
