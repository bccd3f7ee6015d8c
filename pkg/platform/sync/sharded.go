package sync

import (
	"hash/maphash"
	"sync"
)

const defaultShards = 64

// KeyedMutex serializes work per key without a single global lock.
// Keys are spread over a fixed set of shards, so unrelated keys may share a
// shard; callers must not hold two keys at once.
type KeyedMutex struct {
	seed   maphash.Seed
	shards []sync.Mutex
}

// NewKeyedMutex returns a KeyedMutex with n shards. n <= 0 selects the default.
func NewKeyedMutex(n int) *KeyedMutex {
	if n <= 0 {
		n = defaultShards
	}
	return &KeyedMutex{seed: maphash.MakeSeed(), shards: make([]sync.Mutex, n)}
}

func (m *KeyedMutex) Lock(key string)   { m.shard(key).Lock() }
func (m *KeyedMutex) Unlock(key string) { m.shard(key).Unlock() }

// With runs fn while holding key's shard.
func (m *KeyedMutex) With(key string, fn func()) {
	mu := m.shard(key)
	mu.Lock()
	defer mu.Unlock()
	fn()
}

func (m *KeyedMutex) shard(key string) *sync.Mutex {
	return &m.shards[maphash.String(m.seed, key)%uint64(len(m.shards))]
}
