// Package usage accumulates token counts reported by model providers.
package usage

import (
	"fmt"
	"sync"
)

// TokenCount holds input and output token counts for a single model call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

func (tc TokenCount) String() string {
	return fmt.Sprintf("in=%d out=%d", tc.InputTokens, tc.OutputTokens)
}

// Tracker keeps running totals across model calls.
// It is safe for concurrent use; the zero value is ready to use.
type Tracker struct {
	mu    sync.Mutex
	calls int
	last  TokenCount
	total TokenCount
}

// Add records the token count of one call.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	t.last = tc
	t.total.InputTokens += tc.InputTokens
	t.total.OutputTokens += tc.OutputTokens
}

// Last returns the most recent token count.
// The bool is false when nothing has been recorded.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the aggregate token count.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded calls.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}
