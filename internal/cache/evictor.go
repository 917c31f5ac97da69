package cache

import (
	"context"
	"sort"
	"time"

	"pressurecache/internal/logging"
	"pressurecache/internal/stats"
)

// CriticalMemoryPercent is the utilization level at which writers run
// an emergency eviction pass before inserting.
const CriticalMemoryPercent = 95

// DefaultEvictionInterval is the cadence of the background eviction loop.
const DefaultEvictionInterval = time.Second

// MemoryUsage reports current system memory utilization as a
// percentage in [0,100]. Sampling may be slow (it can hit procfs), so
// the evictor never calls it while holding any store lock.
type MemoryUsage interface {
	UsagePercent() int
}

// Evictor reconciles the store's entry count against the capacity
// planner's target using a two-pass algorithm: a clock sweep that
// clears second-chance flags and collects unflagged entries, then a
// true-LRU fallback that sorts remaining entries by access sequence
// when the sweep under-selects under real memory pressure.
type Evictor struct {
	store     *Store
	planner   CapacityPlanner
	memory    MemoryUsage
	collector stats.Collector
}

// NewEvictor wires an evictor to its store, planner and memory signal.
// A nil collector disables stats reporting.
func NewEvictor(store *Store, planner CapacityPlanner, memory MemoryUsage, collector stats.Collector) *Evictor {
	if collector == nil {
		collector = stats.Noop{}
	}
	return &Evictor{store: store, planner: planner, memory: memory, collector: collector}
}

// Evict runs one eviction pass and returns the number of entries
// removed. The common case, size at or under target with memory below
// threshold, exits without touching any entry.
func (e *Evictor) Evict(ctx context.Context) int {
	memoryPct := e.memory.UsagePercent()
	target := e.planner.TargetCapacity(memoryPct)
	size := e.store.Len()

	threshold := e.planner.ThresholdPct
	if threshold == 0 {
		threshold = MemoryThresholdPercent
	}

	if size <= target && memoryPct < threshold {
		return 0
	}

	toEvict := size - target
	if toEvict <= 0 {
		return 0
	}

	// Phase 1: clock sweep. Recently used entries lose their flag and
	// survive this cycle; entries that went a full cycle untouched
	// become candidates.
	candidates := make([]string, 0, toEvict)
	marked := make(map[string]struct{})
	e.store.ForEach(func(key string, entry *Entry) {
		if entry.Referenced() {
			entry.ClearReferenced()
			return
		}
		candidates = append(candidates, key)
		marked[key] = struct{}{}
	})

	// Phase 2: LRU fallback, paid for only under genuine pressure.
	// Oldest access sequence goes first.
	if len(candidates) < toEvict && memoryPct >= threshold {
		type aged struct {
			key string
			seq uint64
		}
		remaining := make([]aged, 0, size-len(candidates))
		e.store.ForEach(func(key string, entry *Entry) {
			if _, ok := marked[key]; ok {
				return
			}
			remaining = append(remaining, aged{key: key, seq: entry.LastAccess()})
		})
		sort.Slice(remaining, func(i, j int) bool {
			return remaining[i].seq < remaining[j].seq
		})

		needed := toEvict - len(candidates)
		if needed > len(remaining) {
			needed = len(remaining)
		}
		for _, a := range remaining[:needed] {
			candidates = append(candidates, a.key)
		}
	}

	for _, key := range candidates {
		e.store.Remove(key)
	}

	evicted := len(candidates)
	e.collector.RecordEvictions(evicted)
	e.collector.SetSize(e.store.Len())
	logging.Info(ctx, logging.ComponentEvictor, logging.ActionEvict, "Eviction pass completed", map[string]interface{}{
		"memory_pct": memoryPct,
		"size":       size,
		"target":     target,
		"evicted":    evicted,
	})
	return evicted
}

// Run drives Evict on a fixed interval until ctx is cancelled. It is
// meant to run as a single background goroutine for the process
// lifetime, independent of request traffic.
func (e *Evictor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultEvictionInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Evict(ctx)
		case <-ctx.Done():
			logging.Info(ctx, logging.ComponentEvictor, logging.ActionStop, "Eviction loop stopping")
			return
		}
	}
}
