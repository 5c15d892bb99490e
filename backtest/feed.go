package backtest

import (
	"errors"
	"time"
)

// ErrOutOfRange is returned by Current before traversal has started.
var ErrOutOfRange = errors.New("backtest: feed cursor out of range")

// Bar is one daily OHLC record. PctChg is the prior day's percent change
// (1.25 means +1.25%) when the upstream store provides it, nil otherwise.
// Bars are produced externally and never mutated.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	PctChg *float64
}

// Feed is a read-only cursor over a date-ordered bar sequence. Bars are
// trusted to be sorted ascending with unique dates; the feed does not
// validate calendar gaps.
type Feed struct {
	bars []Bar
	i    int
}

// NewFeed returns an unpositioned feed; call Reset or Advance before
// Current.
func NewFeed(bars []Bar) *Feed {
	return &Feed{bars: bars, i: -1}
}

func (f *Feed) Len() int { return len(f.bars) }

// Index is the cursor position, -1 before traversal starts.
func (f *Feed) Index() int { return f.i }

// Current returns the bar under the cursor.
func (f *Feed) Current() (Bar, error) {
	if f.i < 0 || f.i >= len(f.bars) {
		return Bar{}, ErrOutOfRange
	}
	return f.bars[f.i], nil
}

// Prev returns the bar immediately before the cursor; ok is false on the
// first bar or before traversal starts.
func (f *Feed) Prev() (Bar, bool) {
	if f.i <= 0 || f.i > len(f.bars) {
		return Bar{}, false
	}
	return f.bars[f.i-1], true
}

// Advance moves the cursor forward one bar and reports whether a bar
// remains. The cursor never moves past the last bar.
func (f *Feed) Advance() bool {
	if f.i+1 >= len(f.bars) {
		return false
	}
	f.i++
	return true
}

// Reset rewinds to the first bar so the same feed can drive repeated runs
// without reconstruction.
func (f *Feed) Reset() {
	if len(f.bars) == 0 {
		f.i = -1
		return
	}
	f.i = 0
}
