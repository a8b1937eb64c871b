// Package ratelimit provides fixed-window call counters for upstream quotas.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Message is the user-facing text for a rejected call.
func (d Decision) Message() string {
	return fmt.Sprintf("Rate limit exceeded. Please wait %d seconds", int(math.Ceil(d.RetryAfter.Seconds())))
}

// Limiter counts one call against key. A non-nil error means the limiter
// itself failed and says nothing about the quota.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	start time.Time
	count int
}

// FixedWindow is an in-process limiter: at most limit calls per window,
// the window opening on the first call after the previous one lapsed.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	now     func() time.Time
	windows map[string]*window
}

func NewFixedWindow(limit int, period time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// WithClock is for tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

func (l *FixedWindow) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > l.period {
		w = &window{start: now}
		l.windows[key] = w
	}
	if w.count >= l.limit {
		return Decision{RetryAfter: l.period - now.Sub(w.start)}, nil
	}
	w.count++
	return Decision{Allowed: true}, nil
}
