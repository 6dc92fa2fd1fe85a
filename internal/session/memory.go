package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps blobs in process memory. Suitable for tests and
// single-binary development runs; sessions do not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sid string, blob []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deadline time.Time
	if ttl > 0 {
		deadline = s.now().Add(ttl)
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[sid] = memoryEntry{data: cp, expiresAt: deadline}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sid string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.blobs[sid]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.blobs, sid)
		return nil, ErrNotFound
	}
	cp := make([]byte, len(entry.data))
	copy(cp, entry.data)
	return cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, sid)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
