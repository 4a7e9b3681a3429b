package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps escrowed passwords in process memory. Suitable for
// single-process deployments and tests; anything running more than one
// API process needs the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	sealer  sealer
}

type memoryEntry struct {
	payload   string
	expiresAt time.Time
}

func NewMemory(siteSecret string) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		sealer:  newSealer(siteSecret),
	}
}

func (s *MemoryStore) Put(_ context.Context, accountID, password string, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	payload, err := s.sealer.seal(accountID, password)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	return token, nil
}

func (s *MemoryStore) Take(_ context.Context, token, accountID string) (string, error) {
	s.mu.Lock()
	e, ok := s.entries[token]
	if ok {
		delete(s.entries, token)
	}
	s.mu.Unlock()

	if !ok || time.Now().After(e.expiresAt) {
		return "", ErrNotFound
	}
	return s.sealer.open(e.payload, accountID)
}
