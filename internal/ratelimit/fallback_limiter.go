package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// FallbackLimiter delegates to a primary (Redis) limiter and falls back to an
// in-memory limiter when the primary fails, so a Redis outage degrades
// admission control instead of blocking the dialogue.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*FallbackLimiter)(nil)

// NewFallbackLimiter creates a limiter that prefers primary and degrades to fallback.
func NewFallbackLimiter(primary, fallback Limiter, log *slog.Logger) Limiter {
	if log == nil {
		log = slog.Default()
	}

	return &FallbackLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Check evaluates the primary limiter and falls back on infrastructure errors.
func (l *FallbackLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.primary != nil {
		result, err := l.primary.Check(ctx, key, limit, window)
		if err == nil || errors.Is(err, ErrLimitExceeded) {
			return result, err
		}

		l.log.Warn("primary admission limiter failed, using fallback", slog.String("key", key), slog.Any("error", err))
	}

	if l.fallback == nil {
		// No safety net left; admit rather than wedge the chat.
		return &Result{Allowed: true, Remaining: 0, ResetAt: time.Now().Add(window)}, nil
	}

	return l.fallback.Check(ctx, key, limit, window)
}
