package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func redisFixture(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStore(client)
}

func TestDeduperMarksReplays(t *testing.T) {
	_, store := redisFixture(t)
	deduper := NewDeduper(store, time.Minute, testLogger())

	assert.False(t, deduper.IsDuplicate(context.Background(), 1001))
	assert.True(t, deduper.IsDuplicate(context.Background(), 1001))
	assert.False(t, deduper.IsDuplicate(context.Background(), 1002))
}

func TestDeduperForgetsAfterTTL(t *testing.T) {
	mr, store := redisFixture(t)
	deduper := NewDeduper(store, time.Minute, testLogger())

	require.False(t, deduper.IsDuplicate(context.Background(), 1001))
	mr.FastForward(2 * time.Minute)
	assert.False(t, deduper.IsDuplicate(context.Background(), 1001))
}

type failingStore struct{}

func (failingStore) Seen(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestDeduperFailsOpen(t *testing.T) {
	deduper := NewDeduper(failingStore{}, time.Minute, testLogger())

	assert.False(t, deduper.IsDuplicate(context.Background(), 1001))
}
