// Package idempotency drops Telegram updates the bot has already processed.
// Long-poll reconnects and webhook retries can replay updates; replaying one
// through the state machine would double-advance the dialogue.
package idempotency

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Store remembers update keys for a bounded time. Seen reports whether the
// key was recorded before, recording it as a side effect.
type Store interface {
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Deduper answers whether an update was already handled. Store failures fail
// open: a rare duplicate beats dropping real messages while Redis is down.
type Deduper struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

func NewDeduper(store Store, ttl time.Duration, log *slog.Logger) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &Deduper{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// IsDuplicate reports whether the update was processed before.
func (d *Deduper) IsDuplicate(ctx context.Context, updateID int) bool {
	if d == nil || d.store == nil {
		return false
	}

	seen, err := d.store.Seen(ctx, strconv.Itoa(updateID), d.ttl)
	if err != nil {
		d.log.Warn("update dedupe check failed", slog.Int("update_id", updateID), slog.Any("error", err))
		return false
	}

	return seen
}
