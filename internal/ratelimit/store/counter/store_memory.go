package counter

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"gatekeeper/internal/ratelimit/ports"
	"gatekeeper/pkg/platform/sync"
)

// MemoryStore is the in-process fallback used when no shared store is configured.
// It is bounded. To admit a new key at capacity it drops, in order of
// preference, the oldest expired counter, then the least recently used counter
// that is not saturated. Live saturated counters are never dropped: when
// nothing else can go, the new key is refused with ports.ErrStoreFull.
// Read-modify-write sequences are serialized per key.
type MemoryStore struct {
	locks    *sync.KeyedMutex
	cache    *lru.Cache[string, counterEntry]
	capacity int
	now      func() time.Time

	// admitMu guards every cache write so the cache never evicts on its own.
	admitMu stdsync.Mutex
}

type counterEntry struct {
	count     int
	expiresAt time.Time
	// limit is the ceiling last enforced through IncrementBelow; 0 if unknown.
	limit int
}

func (e counterEntry) saturated() bool {
	return e.limit > 0 && e.count >= e.limit
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(capacity int, opts ...MemoryOption) (*MemoryStore, error) {
	cache, err := lru.New[string, counterEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create memory counter store: %w", err)
	}
	s := &MemoryStore{locks: sync.NewKeyedMutex(0), cache: cache, capacity: capacity, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// live returns the unexpired entry for key, dropping it if expired. Caller holds key's lock.
func (s *MemoryStore) live(key string, now time.Time) (counterEntry, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return counterEntry{}, false
	}
	if !now.Before(e.expiresAt) {
		s.cache.Remove(key)
		return counterEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Get(_ context.Context, key string) (int, bool, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	e, ok := s.live(key, s.now())
	return e.count, ok, nil
}

func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, ttl time.Duration) (int, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	return s.incrementLocked(key, ttl, 0, s.now())
}

func (s *MemoryStore) IncrementBelow(_ context.Context, key string, limit int, ttl time.Duration) (int, bool, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	now := s.now()
	if e, ok := s.live(key, now); ok && e.count >= limit {
		return e.count, false, nil
	}
	n, err := s.incrementLocked(key, ttl, limit, now)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *MemoryStore) incrementLocked(key string, ttl time.Duration, limit int, now time.Time) (int, error) {
	e, ok := s.live(key, now)
	if !ok {
		e = counterEntry{expiresAt: now.Add(ttl)}
	}
	e.count++
	if limit > 0 {
		e.limit = limit
	}
	if err := s.store(key, e, now); err != nil {
		return 0, err
	}
	return e.count, nil
}

// store writes e, making room first when key is new and the cache is full.
func (s *MemoryStore) store(key string, e counterEntry, now time.Time) error {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()
	if !s.cache.Contains(key) && s.cache.Len() >= s.capacity {
		if !s.evictOne(now) {
			return fmt.Errorf("%w: %d live saturated counters", ports.ErrStoreFull, s.capacity)
		}
	}
	s.cache.Add(key, e)
	return nil
}

// evictOne drops the oldest expired counter, or failing that the least
// recently used unsaturated one. Caller holds admitMu.
func (s *MemoryStore) evictOne(now time.Time) bool {
	victim, found := "", false
	for _, k := range s.cache.Keys() {
		e, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		if !now.Before(e.expiresAt) {
			s.cache.Remove(k)
			return true
		}
		if !found && !e.saturated() {
			victim, found = k, true
		}
	}
	if found {
		s.cache.Remove(victim)
	}
	return found
}

func (s *MemoryStore) Decrement(_ context.Context, key string) (int, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	now := s.now()
	e, ok := s.live(key, now)
	if !ok {
		return 0, nil
	}
	if e.count <= 1 {
		s.cache.Remove(key)
		return 0, nil
	}
	e.count--
	if err := s.store(key, e, now); err != nil {
		return 0, err
	}
	return e.count, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	_, ok := s.live(key, s.now())
	s.cache.Remove(key)
	return ok, nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	now := s.now()
	e, ok := s.live(key, now)
	if !ok {
		return 0, false, nil
	}
	return e.expiresAt.Sub(now), true, nil
}

// Len returns the number of tracked counters, including not-yet-pruned expired ones.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
