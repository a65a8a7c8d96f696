package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatSessionKeyPattern = "chat:session:%d"

	// sessionTTL bounds how long an abandoned flow survives. An active chat
	// refreshes the TTL on every step.
	sessionTTL = 24 * time.Hour
)

// RedisStore persists session records in Redis.
type RedisStore struct {
	client redis.Cmdable
	log    *slog.Logger
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client redis.Cmdable, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

// Get returns the stored session record or ErrNotFound when absent.
func (s *RedisStore) Get(ctx context.Context, chatID int64) (*Record, error) {
	key := chatSessionKey(chatID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get session from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.log.Error("failed to decode session record", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &record, nil
}

// Save persists the record and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		s.log.Error("failed to encode session record", "chat_id", record.ChatID, "error", err)
		return err
	}

	key := chatSessionKey(record.ChatID)
	if err := s.client.Set(ctx, key, data, sessionTTL).Err(); err != nil {
		s.log.Error("failed to save session in redis", "chat_id", record.ChatID, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored session for the given chat.
func (s *RedisStore) Clear(ctx context.Context, chatID int64) error {
	key := chatSessionKey(chatID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to clear session", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

func chatSessionKey(chatID int64) string {
	return fmt.Sprintf(chatSessionKeyPattern, chatID)
}
