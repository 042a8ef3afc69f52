package ratelimit

import (
	"sync"
	"time"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/logger"
)

// epsilon pads the computed sleep to guard against timer-resolution and
// clock boundary races when a caller wakes exactly at window edge.
const epsilon = 100 * time.Millisecond

// Limiter enforces "at most capacity calls per rolling window" for one
// named external API using a sliding-window log of call timestamps.
// It is safe for concurrent use; Gate blocks the calling goroutine.
type Limiter struct {
	name     domain.APIName
	capacity int
	window   time.Duration

	mu      sync.Mutex
	history []time.Time
}

// NewLimiter creates a limiter for the named API. Panics if the quota is
// not positive: quotas are compiled-in or config-validated, so a bad one
// is a programming error, not a runtime condition.
func NewLimiter(name domain.APIName, quota domain.Quota) *Limiter {
	if quota.Capacity <= 0 {
		panic("ratelimit: capacity must be positive")
	}
	if quota.Window <= 0 {
		panic("ratelimit: window must be positive")
	}
	return &Limiter{
		name:     name,
		capacity: quota.Capacity,
		window:   quota.Window,
		history:  make([]time.Time, 0, quota.Capacity),
	}
}

// Gate blocks until issuing one more call would not exceed capacity
// within the trailing window, then records the call and returns.
//
// The lock is held across the sleep. That serializes contending callers
// once the limit is hit, which keeps the quota invariant exact; the
// remote API's own quota already caps achievable throughput at
// capacity/window, so nothing is lost.
func (l *Limiter) Gate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.evict(now)

	if len(l.history) < l.capacity {
		l.history = append(l.history, now)
		return
	}

	sleep := l.window - now.Sub(l.history[0]) + epsilon
	if sleep < 0 {
		sleep = 0
	}
	logger.Debug("rate limiter %s saturated, sleeping %.2fs", l.name, sleep.Seconds())
	time.Sleep(sleep)

	now = time.Now()
	l.evict(now)
	l.history = append(l.history, now)
}

// RemainingCalls returns how many calls could be issued right now
// without blocking.
func (l *Limiter) RemainingCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(time.Now())
	return l.capacity - len(l.history)
}

// TimeUntilNextCall returns how long a Gate call issued right now would
// block. Zero when a call would proceed immediately.
func (l *Limiter) TimeUntilNextCall() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.evict(now)

	if len(l.history) < l.capacity {
		return 0
	}

	wait := l.window - now.Sub(l.history[0])
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Reset clears the recorded history. A Gate immediately afterwards
// never blocks, even if the limiter was saturated.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = l.history[:0]
}

// Name returns the API name this limiter guards.
func (l *Limiter) Name() domain.APIName {
	return l.name
}

// Capacity returns the maximum calls per window.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// Window returns the rolling window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// evict drops timestamps older than now-window. Caller must hold the lock.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.history) && !l.history[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.history = append(l.history[:0], l.history[idx:]...)
	}
}
