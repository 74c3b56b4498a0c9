package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused per-chat limiter is kept.
const limiterIdleTTL = 30 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// chatLimiter throttles updates per chat with one token bucket each.
type chatLimiter struct {
	mu      sync.Mutex
	entries map[int64]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// newChatLimiter returns nil when perSecond <= 0, which disables throttling.
func newChatLimiter(perSecond float64, burst int) *chatLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &chatLimiter{
		entries: make(map[int64]*limiterEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether chatID may be served now.
func (l *chatLimiter) Allow(chatID int64) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[chatID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[chatID] = e
	}
	e.lastUse = now
	return e.limiter.AllowN(now, 1)
}

// Prune drops limiters idle for longer than limiterIdleTTL and returns how many were removed.
func (l *chatLimiter) Prune() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-limiterIdleTTL)
	removed := 0
	for id, e := range l.entries {
		if e.lastUse.Before(cutoff) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}
