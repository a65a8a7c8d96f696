package bot

import "sync"

// chatLocks serializes dialogue steps per chat. telebot dispatches every
// update in its own goroutine, so two quick messages from the same chat
// would otherwise run their steps concurrently against the same session
// record. A later event waits behind the in-flight step; other chats are
// unaffected.
type chatLocks struct {
	mu    sync.Mutex
	chats map[int64]*chatLock
}

type chatLock struct {
	sync.Mutex
	holders int
}

func newChatLocks() *chatLocks {
	return &chatLocks{chats: make(map[int64]*chatLock)}
}

// acquire blocks until the chat's lock is free and returns the entry to
// pass back to release.
func (l *chatLocks) acquire(chatID int64) *chatLock {
	l.mu.Lock()
	entry, ok := l.chats[chatID]
	if !ok {
		entry = &chatLock{}
		l.chats[chatID] = entry
	}
	entry.holders++
	l.mu.Unlock()

	entry.Lock()
	return entry
}

// release unlocks the entry and drops it from the map once nobody is
// holding or waiting on it, so idle chats do not accumulate.
func (l *chatLocks) release(chatID int64, entry *chatLock) {
	entry.Unlock()

	l.mu.Lock()
	entry.holders--
	if entry.holders == 0 {
		delete(l.chats, chatID)
	}
	l.mu.Unlock()
}
