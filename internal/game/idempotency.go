package game

import (
	"sync"
	"time"
)

// IdempotencyStore maps action keys to previously committed results.
// Put must be insert-if-absent: when two retries with the same token race,
// only the first result is kept. Implementations may expire old entries.
type IdempotencyStore interface {
	TryGet(key string) (ActionResult, bool)
	Put(key string, res ActionResult) bool
}

// MemoryIdempotencyStore is an in-process IdempotencyStore with TTL expiry.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
	ttl     time.Duration
}

type idemEntry struct {
	res     ActionResult
	savedAt time.Time
}

// NewMemoryIdempotencyStore creates a store whose entries expire after ttl.
// A ttl of zero disables expiry.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		entries: make(map[string]idemEntry),
		ttl:     ttl,
	}
	if ttl > 0 {
		// Periodic cleanup of expired entries.
		go func() {
			for {
				time.Sleep(ttl)
				s.cleanup()
			}
		}()
	}
	return s
}

// TryGet returns the stored result for key, if present and not expired.
func (s *MemoryIdempotencyStore) TryGet(key string) (ActionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return ActionResult{}, false
	}
	if s.ttl > 0 && time.Since(e.savedAt) > s.ttl {
		delete(s.entries, key)
		return ActionResult{}, false
	}
	return e.res, true
}

// Put stores res under key unless the key already exists. Returns whether
// the entry was inserted.
func (s *MemoryIdempotencyStore) Put(key string, res ActionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		return false
	}
	s.entries[key] = idemEntry{res: res, savedAt: time.Now()}
	return true
}

func (s *MemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.Sub(e.savedAt) > s.ttl {
			delete(s.entries, key)
		}
	}
}
