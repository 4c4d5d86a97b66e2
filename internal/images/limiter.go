package images

import (
	"context"
	"sync"
	"time"
)

// limiter spaces request starts evenly across all workers. A nil limiter never waits.
type limiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func newLimiter(requestsPerSecond int) *limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return &limiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// wait blocks until this caller's slot comes up or ctx is done. A caller that gives up
// still consumes its slot.
func (l *limiter) wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	now := time.Now()
	scheduled := now
	if l.nextAllowedAt.After(now) {
		scheduled = l.nextAllowedAt
	}
	l.nextAllowedAt = scheduled.Add(l.interval)
	l.mu.Unlock()

	return sleep(ctx, time.Until(scheduled))
}
