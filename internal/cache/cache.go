package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLStore is an in-process cache with per-entry expiry and explicit
// invalidation. Reads past the TTL behave as misses.
type TTLStore struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
}

func NewTTLStore(ttl time.Duration) *TTLStore {
	return &TTLStore{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

func (s *TTLStore) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *TTLStore) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	}
}

// Invalidate removes a key immediately. Settlement hooks call this so the
// next profile read recomputes from storage.
func (s *TTLStore) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Sweep drops expired entries. Callers run it periodically; correctness does
// not depend on it since Get checks expiry.
func (s *TTLStore) Sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *TTLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
