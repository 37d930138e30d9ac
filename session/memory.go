package session

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte, 2),
	}
}

// Load describes the load operation and its observable behavior.
//
// Load does not mutate shared global state and can be used concurrently.
func (s *MemoryStore) Load(_ context.Context) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return decodeRecord(s.entries[KeyCredential], s.entries[KeyPrincipal]), nil
}

// Save writes both entries through. A nil principal clears the principal
// entry so that a partially-populated tuple never lingers.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	principal, err := encodePrincipal(rec.Principal)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Token == "" {
		delete(s.entries, KeyCredential)
	} else {
		s.entries[KeyCredential] = []byte(rec.Token)
	}
	if principal == nil {
		delete(s.entries, KeyPrincipal)
	} else {
		s.entries[KeyPrincipal] = principal
	}
	return nil
}

// Clear removes both entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, KeyCredential)
	delete(s.entries, KeyPrincipal)
	return nil
}

// SeedEntry writes a raw entry directly, bypassing the codec. Intended
// for tests that need to stage partially-populated or corrupt storage.
func (s *MemoryStore) SeedEntry(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = append([]byte(nil), value...)
}
