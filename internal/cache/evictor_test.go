package cache_test

import (
	"context"
	"fmt"
	"testing"

	"pressurecache/internal/cache"
	"pressurecache/internal/memory"
)

func TestEvictor(t *testing.T) {
	ctx := context.Background()

	t.Run("Noop_Below_Threshold_And_Target", func(t *testing.T) {
		store := cache.NewStore()
		planner := cache.NewCapacityPlanner()
		evictor := cache.NewEvictor(store, planner, memory.Static(50), nil)

		store.Put("a", "1")
		store.Put("b", "2")
		store.Get("a")

		if evicted := evictor.Evict(ctx); evicted != 0 {
			t.Fatalf("Evict should be a no-op, removed %d", evicted)
		}

		// No flags mutated, both keys still retrievable.
		store.ForEach(func(key string, e *cache.Entry) {
			if !e.Referenced() {
				t.Errorf("No-op pass must not clear flag on %q", key)
			}
		})
		for key, want := range map[string]string{"a": "1", "b": "2"} {
			if v, ok := store.Get(key); !ok || v != want {
				t.Errorf("Get(%q) = %q,%v after no-op pass", key, v, ok)
			}
		}
	})

	t.Run("Clock_Sweep_Two_Cycle_Eviction", func(t *testing.T) {
		store := cache.NewStore()
		planner := cache.CapacityPlanner{MaxEntries: 5, ThresholdPct: 70}
		evictor := cache.NewEvictor(store, planner, memory.Static(50), nil)

		for i := 0; i < 10; i++ {
			store.Put(fmt.Sprintf("k%d", i), "v")
		}

		// First cycle: everything was just written, so the sweep only
		// strips second-chance flags. Memory is below threshold, so
		// no LRU fallback kicks in.
		if evicted := evictor.Evict(ctx); evicted != 0 {
			t.Fatalf("First cycle should only clear flags, removed %d", evicted)
		}
		if store.Len() != 10 {
			t.Fatalf("Len = %d after first cycle, want 10", store.Len())
		}

		// Keep k3 alive between cycles.
		store.Get("k3")

		// Second cycle: everything untouched since the first sweep is
		// now unflagged and gets removed.
		if evicted := evictor.Evict(ctx); evicted != 9 {
			t.Fatalf("Second cycle removed %d entries, want 9", evicted)
		}
		if _, ok := store.Get("k3"); !ok {
			t.Errorf("Recently read key must survive the sweep")
		}
		if store.Len() != 1 {
			t.Errorf("Len = %d after second cycle, want 1", store.Len())
		}
	})

	t.Run("LRU_Fallback_Under_Pressure", func(t *testing.T) {
		store := cache.NewStore()
		// target_capacity(80) = round(750 * 2/3) = 500
		planner := cache.CapacityPlanner{MaxEntries: 750, ThresholdPct: 70}
		evictor := cache.NewEvictor(store, planner, memory.Static(80), nil)

		for i := 0; i < 1000; i++ {
			store.Put(fmt.Sprintf("k%04d", i), "v")
		}

		// All entries are freshly flagged, so the clock sweep finds no
		// candidates and the LRU fallback must cover the whole quota,
		// oldest access sequence first.
		if evicted := evictor.Evict(ctx); evicted != 500 {
			t.Fatalf("Evicted %d entries, want 500", evicted)
		}
		if store.Len() != 500 {
			t.Fatalf("Len = %d, want 500", store.Len())
		}
		for i := 0; i < 500; i++ {
			if _, ok := store.Get(fmt.Sprintf("k%04d", i)); ok {
				t.Fatalf("k%04d was written earliest and should be gone", i)
			}
		}
		for i := 500; i < 1000; i++ {
			if _, ok := store.Get(fmt.Sprintf("k%04d", i)); !ok {
				t.Fatalf("k%04d was written latest and should survive", i)
			}
		}
	})

	t.Run("Sweep_Candidates_Take_Priority", func(t *testing.T) {
		store := cache.NewStore()
		planner := cache.CapacityPlanner{MaxEntries: 6, ThresholdPct: 70}
		evictor := cache.NewEvictor(store, planner, memory.Static(80), nil)

		for i := 0; i < 8; i++ {
			store.Put(fmt.Sprintf("k%d", i), "v")
		}

		// Strip protection from two specific entries so the sweep
		// marks exactly those; the fallback then fills the shortfall
		// from the oldest of the rest.
		store.ForEach(func(key string, e *cache.Entry) {
			if key == "k6" || key == "k7" {
				e.ClearReferenced()
			}
		})

		// target_capacity(80) = round(6 * 2/3) = 4, so 4 must go:
		// k6,k7 via the sweep, then k0,k1 via LRU order.
		if evicted := evictor.Evict(ctx); evicted != 4 {
			t.Fatalf("Evicted %d entries, want 4", evicted)
		}
		for _, key := range []string{"k6", "k7", "k0", "k1"} {
			if _, ok := store.Get(key); ok {
				t.Errorf("%s should have been evicted", key)
			}
		}
		for _, key := range []string{"k2", "k3", "k4", "k5"} {
			if _, ok := store.Get(key); !ok {
				t.Errorf("%s should have survived", key)
			}
		}
	})

	t.Run("Shortfall_Is_Not_An_Error", func(t *testing.T) {
		store := cache.NewStore()
		planner := cache.CapacityPlanner{MaxEntries: 2, ThresholdPct: 70}
		// Below threshold: over target but no fallback allowed, and
		// everything is protected, so the pass removes nothing.
		evictor := cache.NewEvictor(store, planner, memory.Static(60), nil)

		for i := 0; i < 5; i++ {
			store.Put(fmt.Sprintf("k%d", i), "v")
		}

		if evicted := evictor.Evict(ctx); evicted != 0 {
			t.Fatalf("Protected entries must survive below threshold, removed %d", evicted)
		}
		if store.Len() != 5 {
			t.Errorf("Len = %d, want 5 (over target until next cycle)", store.Len())
		}
	})
}
