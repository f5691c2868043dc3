package ratelimit

import (
	"sync"
	"time"

	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
)

// FixedWindow is an in-process limiter for public endpoints that must
// work without redis. Counters reset at window boundaries.
type FixedWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  clock.Clock
	hits   map[string]windowState
}

type windowState struct {
	start time.Time
	count int
}

func NewFixedWindow(limit int, window time.Duration, clk clock.Clock) *FixedWindow {
	return &FixedWindow{
		limit:  limit,
		window: window,
		clock:  clk,
		hits:   make(map[string]windowState),
	}
}

func (f *FixedWindow) Allow(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	state, ok := f.hits[key]
	if !ok || now.Sub(state.start) >= f.window {
		f.hits[key] = windowState{start: now, count: 1}
		return true
	}
	if state.count >= f.limit {
		return false
	}
	state.count++
	f.hits[key] = state
	return true
}
