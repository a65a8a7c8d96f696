package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type bucket struct {
	events []time.Time
}

// MemoryLimiter is an in-process sliding-window Limiter. It is the default
// admission backend and the fallback when Redis is unavailable.
type MemoryLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	log     *slog.Logger
}

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		log:     log,
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	bkt, ok := m.buckets[key]
	if !ok {
		bkt = &bucket{events: make([]time.Time, 0, 8)}
		m.buckets[key] = bkt
	}

	bkt.events = keepRecent(bkt.events, windowStart)
	count := len(bkt.events)

	allowed := count < limit
	if allowed {
		bkt.events = append(bkt.events, now)
		count++
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Cleanup removes buckets that have been inactive for more than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, bkt := range m.buckets {
		if len(bkt.events) == 0 || bkt.events[len(bkt.events)-1].Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}

// RunCleanup evicts idle buckets periodically until ctx is canceled.
func (m *MemoryLimiter) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("admission cleanup stopped")
			return
		case <-ticker.C:
			m.Cleanup(maxAge)
		}
	}
}

func keepRecent(events []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(events) && events[firstIdx].Before(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return events
	}

	if firstIdx >= len(events) {
		return events[:0]
	}

	copy(events, events[firstIdx:])
	return events[:len(events)-firstIdx]
}
