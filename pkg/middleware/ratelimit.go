package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"krishi/pkg/apperr"
	"krishi/pkg/metrics"
)

// ClientLimiter throttles each client (user id when signed in, else IP)
// with its own token bucket.
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientEntry
	rate     rate.Limit
	burst    int
	metrics  *metrics.Metrics
	now      func() time.Time
}

type clientEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(perSecond float64, burst int, m *metrics.Metrics) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*clientEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		metrics:  m,
		now:      time.Now,
	}
}

func (l *ClientLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[key]
	if !ok {
		e = &clientEntry{lim: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = l.now()
	return e.lim
}

// Prune drops clients idle for longer than idle.
func (l *ClientLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for k, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, k)
			n++
		}
	}
	return n
}

func (l *ClientLimiter) Middleware(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if u, ok := CurrentUser(c); ok {
				key = "user:" + u.UserID
			}
			if !l.get(scope + "|" + key).Allow() {
				l.metrics.RateLimited(scope)
				return apperr.RateLimited("Too many requests. Please slow down", time.Second)
			}
			return next(c)
		}
	}
}
