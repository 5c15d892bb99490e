package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidPrice is returned when a buy or sell is attempted at a
// non-positive price.
var ErrInvalidPrice = errors.New("backtest: price must be positive")

// Side labels a fill in the trade log.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position is a long-only holding at weighted average cost. Size never
// goes negative; the broker removes the entry when size reaches zero.
type Position struct {
	Symbol   string
	Size     int
	AvgPrice float64
}

// CostValue is the position valued at its average cost.
func (p Position) CostValue() float64 {
	return float64(p.Size) * p.AvgPrice
}

// TradeRecord is an immutable audit entry appended on every non-zero fill.
type TradeRecord struct {
	Date          time.Time
	Side          Side
	Symbol        string
	Price         float64 // raw signal price
	ExecPrice     float64 // slippage adjusted
	Size          int     // filled size
	Gross         float64 // ExecPrice * Size
	Fees          float64
	CashAfter     float64
	PositionAfter int
	EquityAfter   float64
}

// Broker is the simulation ledger: cash, positions, last marks, and an
// append-only trade log under an explicit cost model. It is driven from a
// single goroutine and is not safe for concurrent use.
type Broker struct {
	cash      float64
	symbol    string // default symbol for single-symbol runs, may be empty
	positions map[string]*Position
	marks     map[string]float64
	trades    []TradeRecord
	costs     CostConfig
	totalFees float64
	logTrades bool
}

// NewBroker validates the starting cash and cost model and returns a fresh
// ledger. symbol is the default symbol used for mark fallback on
// single-symbol runs; pass "" for multi-symbol strategies. logTrades echoes
// each fill to stdout.
func NewBroker(cash float64, costs CostConfig, symbol string, logTrades bool) (*Broker, error) {
	if cash <= 0 {
		return nil, fmt.Errorf("broker: initial cash must be positive, got %v", cash)
	}
	if err := costs.Validate(); err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}
	return &Broker{
		cash:      cash,
		symbol:    symbol,
		positions: make(map[string]*Position),
		marks:     make(map[string]float64),
		costs:     costs,
		logTrades: logTrades,
	}, nil
}

func (b *Broker) Cash() float64      { return b.cash }
func (b *Broker) Symbol() string     { return b.symbol }
func (b *Broker) Costs() CostConfig  { return b.costs }
func (b *Broker) TotalFees() float64 { return b.totalFees }

// Position returns a copy of the holding for symbol, ok=false when flat.
func (b *Broker) Position(symbol string) (Position, bool) {
	pos, ok := b.positions[symbol]
	if !ok {
		return Position{Symbol: symbol}, false
	}
	return *pos, true
}

// Positions returns a copy of all open holdings keyed by symbol.
func (b *Broker) Positions() map[string]Position {
	out := make(map[string]Position, len(b.positions))
	for sym, pos := range b.positions {
		out[sym] = *pos
	}
	return out
}

// Trades returns the fill log in append order.
func (b *Broker) Trades() []TradeRecord { return b.trades }

// UpdateMarks replaces the last known mark for every listed symbol.
// Symbols not listed keep their previous mark.
func (b *Broker) UpdateMarks(marks map[string]float64) {
	for sym, px := range marks {
		b.marks[sym] = px
	}
}

// Mark returns the last known mark for symbol.
func (b *Broker) Mark(symbol string) (float64, bool) {
	px, ok := b.marks[symbol]
	return px, ok
}

// TotalEquity is cash plus every position valued at its last mark, or at
// average cost when never marked. Positions are summed in symbol order so
// runs stay bit-identical.
func (b *Broker) TotalEquity() float64 {
	equity := b.cash
	for _, sym := range b.sortedPositionSymbols() {
		pos := b.positions[sym]
		px, ok := b.marks[sym]
		if !ok {
			px = pos.AvgPrice
		}
		equity += float64(pos.Size) * px
	}
	return equity
}

// Buy fills up to size whole units of symbol at the slippage-adjusted
// price. When cash cannot cover the request the fill shrinks to the
// largest affordable size (fees recomputed per candidate size); an
// unaffordable single unit fills zero and changes nothing. Returns the
// filled size.
func (b *Broker) Buy(date time.Time, symbol string, price float64, size int) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("buy %s at %v: %w", symbol, price, ErrInvalidPrice)
	}
	if size <= 0 {
		return 0, nil
	}
	exec := b.costs.BuyPrice(price)

	// Jump near the affordable ceiling, then walk down until the exact
	// fee schedule fits. The estimate ignores the commission floor so it
	// never undershoots.
	if est := int(b.cash / (exec * (1 + b.costs.CommissionRate))); est < size {
		size = est
	}
	for size > 0 {
		gross := exec * float64(size)
		if gross+b.costs.BuyFees(gross) <= b.cash {
			break
		}
		size--
	}
	if size <= 0 {
		return 0, nil
	}

	gross := exec * float64(size)
	fees := b.costs.BuyFees(gross)
	b.cash -= gross + fees

	pos := b.positions[symbol]
	if pos == nil {
		pos = &Position{Symbol: symbol}
		b.positions[symbol] = pos
	}
	prevCost := pos.AvgPrice * float64(pos.Size)
	pos.Size += size
	pos.AvgPrice = (prevCost + gross) / float64(pos.Size)
	b.marks[symbol] = exec

	b.record(date, SideBuy, symbol, price, exec, size, gross, fees, pos.Size)
	return size, nil
}

// Sell fills min(size, holding) units at the slippage-adjusted price.
// Selling an unheld symbol is a no-op returning 0. Returns the filled
// size.
func (b *Broker) Sell(date time.Time, symbol string, price float64, size int) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("sell %s at %v: %w", symbol, price, ErrInvalidPrice)
	}
	pos := b.positions[symbol]
	if pos == nil || pos.Size <= 0 || size <= 0 {
		return 0, nil
	}
	if size > pos.Size {
		size = pos.Size
	}

	exec := b.costs.SellPrice(price)
	gross := exec * float64(size)
	fees := b.costs.SellFees(gross)
	b.cash += gross - fees

	pos.Size -= size
	after := pos.Size
	if pos.Size == 0 {
		delete(b.positions, symbol)
	}
	b.marks[symbol] = exec

	b.record(date, SideSell, symbol, price, exec, size, gross, fees, after)
	return size, nil
}

// BuyAll buys as many whole units as cash allows.
func (b *Broker) BuyAll(date time.Time, symbol string, price float64) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("buy %s at %v: %w", symbol, price, ErrInvalidPrice)
	}
	exec := b.costs.BuyPrice(price)
	size := int(b.cash / (exec * (1 + b.costs.CommissionRate)))
	return b.Buy(date, symbol, price, size)
}

// SellAll liquidates the entire holding of symbol; a no-op when flat.
func (b *Broker) SellAll(date time.Time, symbol string, price float64) (int, error) {
	pos := b.positions[symbol]
	if pos == nil {
		if price <= 0 {
			return 0, fmt.Errorf("sell %s at %v: %w", symbol, price, ErrInvalidPrice)
		}
		return 0, nil
	}
	return b.Sell(date, symbol, price, pos.Size)
}

// OrderTargetSize issues the single buy or sell that moves the holding to
// the given size.
func (b *Broker) OrderTargetSize(date time.Time, symbol string, price float64, size int) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("order %s at %v: %w", symbol, price, ErrInvalidPrice)
	}
	cur := 0
	if pos := b.positions[symbol]; pos != nil {
		cur = pos.Size
	}
	delta := size - cur
	switch {
	case delta > 0:
		return b.Buy(date, symbol, price, delta)
	case delta < 0:
		return b.Sell(date, symbol, price, -delta)
	}
	return 0, nil
}

// OrderTargetValue targets a notional value for the holding, sized in
// whole units at the slippage-adjusted price.
func (b *Broker) OrderTargetValue(date time.Time, symbol string, price float64, value float64) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("order %s at %v: %w", symbol, price, ErrInvalidPrice)
	}
	if value < 0 {
		value = 0
	}
	exec := b.costs.SellPrice(price)
	if value > 0 {
		exec = b.costs.BuyPrice(price)
	}
	return b.OrderTargetSize(date, symbol, price, int(value/exec))
}

// OrderTargetPercent issues the single buy or sell that moves the symbol
// toward target as a fraction of total equity. The target is clamped to
// [0, 1]; sizing floors toward zero whole units. One shot, no iterative
// convergence.
func (b *Broker) OrderTargetPercent(date time.Time, symbol string, price float64, target float64) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("order %s at %v: %w", symbol, price, ErrInvalidPrice)
	}
	if target < 0 {
		target = 0
	} else if target > 1 {
		target = 1
	}
	if _, ok := b.marks[symbol]; !ok {
		b.marks[symbol] = price
	}
	equity := b.TotalEquity()

	exec := b.costs.SellPrice(price)
	if target > 0 {
		exec = b.costs.BuyPrice(price)
	}
	targetSize := int(equity * target / exec)

	cur := 0
	if pos := b.positions[symbol]; pos != nil {
		cur = pos.Size
	}
	delta := targetSize - cur
	switch {
	case delta > 0:
		return b.Buy(date, symbol, price, delta)
	case delta < 0:
		return b.Sell(date, symbol, price, -delta)
	}
	return 0, nil
}

// RebalanceTargetPercents moves the whole book toward the target weights.
// Held symbols absent from targets are liquidated (weight 0). Every sell
// executes before any buy so freed cash can fund the buys; both passes run
// in symbol order to keep runs reproducible. Symbols without a positive
// price in prices are skipped.
func (b *Broker) RebalanceTargetPercents(date time.Time, prices map[string]float64, targets map[string]float64) {
	clean := make(map[string]float64, len(targets))
	for sym, w := range targets {
		if w <= 0 {
			continue
		}
		if w > 1 {
			w = 1
		}
		clean[sym] = w
	}

	union := make(map[string]struct{}, len(b.positions)+len(clean))
	for sym := range b.positions {
		union[sym] = struct{}{}
	}
	for sym := range clean {
		union[sym] = struct{}{}
	}

	// Seed marks for symbols we have never seen so equity reflects them.
	for sym, px := range prices {
		if px <= 0 {
			continue
		}
		if _, ok := b.marks[sym]; !ok {
			b.marks[sym] = px
		}
	}
	equity := b.TotalEquity()

	type order struct {
		symbol string
		size   int
		price  float64
	}
	var sells, buys []order

	syms := make([]string, 0, len(union))
	for sym := range union {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	for _, sym := range syms {
		w := clean[sym]
		px, ok := prices[sym]
		if !ok || px <= 0 {
			continue // no executable price today
		}
		exec := b.costs.SellPrice(px)
		if w > 0 {
			exec = b.costs.BuyPrice(px)
		}
		targetSize := int(equity * w / exec)
		cur := 0
		if pos := b.positions[sym]; pos != nil {
			cur = pos.Size
		}
		delta := targetSize - cur
		switch {
		case delta < 0:
			sells = append(sells, order{sym, -delta, px})
		case delta > 0:
			buys = append(buys, order{sym, delta, px})
		}
	}

	// Prices are pre-filtered positive, so Buy/Sell cannot fail here.
	for _, o := range sells {
		_, _ = b.Sell(date, o.symbol, o.price, o.size)
	}
	for _, o := range buys {
		_, _ = b.Buy(date, o.symbol, o.price, o.size)
	}
}

func (b *Broker) record(date time.Time, side Side, symbol string, price, exec float64, size int, gross, fees float64, posAfter int) {
	rec := TradeRecord{
		Date:          date,
		Side:          side,
		Symbol:        symbol,
		Price:         price,
		ExecPrice:     exec,
		Size:          size,
		Gross:         gross,
		Fees:          fees,
		CashAfter:     b.cash,
		PositionAfter: posAfter,
		EquityAfter:   b.TotalEquity(),
	}
	b.trades = append(b.trades, rec)
	b.totalFees += fees
	if b.logTrades {
		fmt.Printf("TRADE %s %s %s px=%.2f exec=%.4f size=%d gross=%.2f fees=%.2f cash=%.2f pos=%d eq=%.2f\n",
			date.Format("2006-01-02"), side, symbol, price, exec, size, gross, fees, b.cash, posAfter, rec.EquityAfter)
	}
}

func (b *Broker) sortedPositionSymbols() []string {
	syms := make([]string, 0, len(b.positions))
	for sym := range b.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
