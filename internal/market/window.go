// Package market resolves the currently active 15-minute up/down market,
// quotes both of its sides with a documented fallback chain, and renders the
// result for chat delivery.
package market

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

const (
	// WindowSize is the duration of one up/down market instance.
	WindowSize = 15 * time.Minute

	// MaxLookupAttempts caps how many successive windows are probed when
	// the current one is not published yet or has already expired.
	MaxLookupAttempts = 3
)

// CurrentWindowStart floors now to the start of its 15-minute UTC bucket.
func CurrentWindowStart(now time.Time) time.Time {
	return now.UTC().Truncate(WindowSize)
}

// Windows yields the candidate window starts for a lookup beginning at now:
// the current window and then each following one, at most attempts values.
// The sequence can be ranged over any number of times.
func Windows(now time.Time, attempts int) iter.Seq[time.Time] {
	start := CurrentWindowStart(now)
	return func(yield func(time.Time) bool) {
		for i := 0; i < attempts; i++ {
			if !yield(start.Add(time.Duration(i) * WindowSize)) {
				return
			}
		}
	}
}

// Slug composes the Gamma slug of the market for symbol starting at window.
func Slug(symbol string, window time.Time) string {
	return fmt.Sprintf("%s-updown-15m-%d", strings.ToLower(symbol), window.Unix())
}
