package cache

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// shardCount must be a power of two so shard selection is a cheap mask.
const shardCount = 64

// Entry holds a stored value plus the recency metadata the eviction
// engine works with. The flag and sequence are atomics so readers can
// refresh them without taking the shard lock; the value itself is an
// immutable string and only replaced under the shard write lock.
type Entry struct {
	value      string
	referenced atomic.Bool
	lastAccess atomic.Uint64
}

// Referenced reports whether the entry was touched since the last
// clock sweep.
func (e *Entry) Referenced() bool {
	return e.referenced.Load()
}

// ClearReferenced removes the entry's second-chance protection. Only
// the eviction engine calls this.
func (e *Entry) ClearReferenced() {
	e.referenced.Store(false)
}

// LastAccess returns the global sequence number recorded on the
// entry's most recent Put or Get.
func (e *Entry) LastAccess() uint64 {
	return e.lastAccess.Load()
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Store is a sharded concurrent key-value map. Keys hash to one of
// shardCount buckets, each guarded by its own RWMutex, so operations
// on unrelated keys never serialize. A single process-wide access
// counter, shared by every shard, totally orders all Put and Get
// operations for LRU comparison without consulting wall-clock time.
type Store struct {
	shards [shardCount]*shard
	seq    atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)&(shardCount-1)]
}

// Put inserts or overwrites the entry for key. The new entry is marked
// recently used and stamped with a fresh access sequence.
func (s *Store) Put(key, value string) {
	seq := s.seq.Add(1)
	sh := s.shardFor(key)

	sh.mu.Lock()
	entry, ok := sh.entries[key]
	if ok {
		entry.value = value
	} else {
		entry = &Entry{value: value}
		sh.entries[key] = entry
	}
	entry.referenced.Store(true)
	entry.lastAccess.Store(seq)
	sh.mu.Unlock()
}

// Get returns the value for key and refreshes the entry's recency
// metadata. The second return is false when the key is absent; a miss
// has no side effects.
func (s *Store) Get(key string) (string, bool) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	entry, ok := sh.entries[key]
	if !ok {
		sh.mu.RUnlock()
		return "", false
	}
	value := entry.value
	sh.mu.RUnlock()

	entry.referenced.Store(true)
	entry.lastAccess.Store(s.seq.Add(1))
	return value, true
}

// Remove deletes the entry for key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
}

// Len returns the current entry count across all shards.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}

// ForEach visits every entry once, one shard at a time under that
// shard's read lock. Iteration order is unspecified. Puts and Gets on
// other shards proceed concurrently; the eviction engine tolerates
// entries appearing or disappearing mid-scan.
func (s *Store) ForEach(fn func(key string, entry *Entry)) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key, entry := range sh.entries {
			fn(key, entry)
		}
		sh.mu.RUnlock()
	}
}

// Sequence exposes the current value of the global access counter.
func (s *Store) Sequence() uint64 {
	return s.seq.Load()
}
