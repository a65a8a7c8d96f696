// Package session persists per-chat dialogue state and the key/value bag of
// an in-progress flow.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates that no session record exists for the chat.
	ErrNotFound = errors.New("session not found")
	// ErrMissingKey indicates a read of a session key that no earlier dialogue
	// step wrote. This is a contract violation, not a user error.
	ErrMissingKey = errors.New("session key not set")
)

// Record is one chat's session: the current dialogue state plus the opaque
// values accumulated by the flow that leads up to it.
type Record struct {
	ChatID    int64                      `json:"chat_id"`
	State     string                     `json:"state"`
	Data      map[string]json.RawMessage `json:"data,omitempty"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// NewRecord creates an empty session record for the chat.
func NewRecord(chatID int64, state string) *Record {
	return &Record{
		ChatID: chatID,
		State:  state,
	}
}

// Set stores a value under key, JSON-encoded.
func (r *Record) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session value %q: %w", key, err)
	}

	if r.Data == nil {
		r.Data = make(map[string]json.RawMessage)
	}
	r.Data[key] = data
	return nil
}

// Get decodes the value stored under key into dst. A key no prior state wrote
// yields ErrMissingKey; callers must treat that as a dialogue defect.
func (r *Record) Get(key string, dst any) error {
	raw, ok := r.Data[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingKey, key)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode session value %q: %w", key, err)
	}
	return nil
}

// Has reports whether key was written by an earlier step.
func (r *Record) Has(key string) bool {
	_, ok := r.Data[key]
	return ok
}

// Store is the persistence contract for session records. One logical session
// exists per chat; it is created lazily on first save.
type Store interface {
	// Get returns the chat's session record or ErrNotFound.
	Get(ctx context.Context, chatID int64) (*Record, error)
	// Save persists the record for its chat.
	Save(ctx context.Context, record *Record) error
	// Clear removes the chat's session record.
	Clear(ctx context.Context, chatID int64) error
}
