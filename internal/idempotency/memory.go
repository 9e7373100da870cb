package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// MemoryStore keeps keys in process. Expired entries are dropped lazily.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

func (s *MemoryStore) lookup(key string) (entry, bool) {
	e, ok := s.entries[key]
	if ok && !s.now().Before(e.expires) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, ok
}

func (s *MemoryStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.lookup(key); ok {
		if e.value == pendingMarker {
			return "", false, ErrInFlight
		}
		return e.value, false, nil
	}
	s.entries[key] = entry{value: pendingMarker, expires: s.now().Add(PendingLease)}
	return "", true, nil
}

func (s *MemoryStore) Complete(ctx context.Context, key, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: result, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.value == pendingMarker {
		delete(s.entries, key)
	}
	return nil
}
