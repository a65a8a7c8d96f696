// Package ratelimit implements inbound admission control: per-chat limits on
// how fast incoming events reach the dialogue engine.
package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Result captures the outcome of an admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects one event under a per-key sliding window.
// Implementations return ErrLimitExceeded alongside the Result when the
// window is full, and any other error when the check itself failed; the
// caller decides whether a failed check admits or drops.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ErrLimitExceeded indicates the admission limit has been reached for the key.
var ErrLimitExceeded = errors.New("admission limit exceeded")

// ChatKey builds the limiter key for a chat.
func ChatKey(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}
