package rate

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count       int64
	windowStart time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. State is held in a
// mutex-guarded map with no cross-process coordination: multiple server
// instances each count independently, which is accepted.
//
// Expired entries are pruned opportunistically on each call; there is no
// background sweeper.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	now func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Amortized cleanup: drop every entry whose window already closed.
	cutoff := now.Add(-window)
	for k, e := range l.entries {
		if e.windowStart.Before(cutoff) {
			delete(l.entries, k)
		}
	}

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		e = &memoryEntry{count: 0, windowStart: now}
		l.entries[key] = e
	}
	e.count++

	allowed := e.count <= int64(limit)
	remaining := int64(limit) - e.count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: e.count,
	}
	if !allowed {
		res.RetryAfter = window - now.Sub(e.windowStart)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
	}
	return res, nil
}
