package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory. It serves tests and
// redis-less development; records do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]*Record
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]*Record)}
}

// Get returns a copy of the chat's record or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, chatID int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[chatID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *record
	return &copied, nil
}

// Save stores a copy of the record.
func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.ChatID] = &copied
	return nil
}

// Clear removes the chat's record.
func (s *MemoryStore) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, chatID)
	return nil
}
