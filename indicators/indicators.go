// Package indicators provides streaming technical indicators over daily
// close prices.
package indicators

// Indicator computes a single streaming value from a price series.
// It is deterministic: the same sequence of updates yields the same value.
type Indicator interface {
	// Name returns a stable identifier like "MA(20)" or "EMA(12)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closing price.
	Update(close float64)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready() it returns 0;
	// callers should always check Ready().
	Value() float64
}
