package cache

import "math"

// Reference capacity constants. The cache holds up to DefaultMaxEntries
// while system memory stays at or below MemoryThresholdPercent.
const (
	DefaultMaxEntries      = 100_000
	MemoryThresholdPercent = 70

	// minCapacityFactor floors the shrink factor so the cache never
	// drops below 20% of its default capacity, no matter how extreme
	// memory pressure gets. The cache stays usable under sustained
	// pressure at the cost of not fully honoring hard memory limits
	// in pathological cases.
	minCapacityFactor = 0.2
)

// CapacityPlanner maps a memory-utilization percentage to a target
// maximum entry count: a fixed default below the threshold, linear
// decay above it with a floor at 20% of the default. The planner is
// pure and stateless; callers sample memory fresh for every call.
//
// The zero value uses the reference constants. Tests shrink the fields
// to exercise eviction without six-figure entry counts.
type CapacityPlanner struct {
	MaxEntries   int
	ThresholdPct int
}

// NewCapacityPlanner returns a planner with the reference constants.
func NewCapacityPlanner() CapacityPlanner {
	return CapacityPlanner{MaxEntries: DefaultMaxEntries, ThresholdPct: MemoryThresholdPercent}
}

// TargetCapacity computes the target maximum entry count for the given
// memory utilization percentage.
func (p CapacityPlanner) TargetCapacity(memoryPct int) int {
	maxEntries := p.MaxEntries
	if maxEntries == 0 {
		maxEntries = DefaultMaxEntries
	}
	threshold := p.ThresholdPct
	if threshold == 0 {
		threshold = MemoryThresholdPercent
	}

	if memoryPct <= threshold {
		return maxEntries
	}

	factor := float64(100-memoryPct) / float64(100-threshold)
	factor = math.Max(minCapacityFactor, factor)
	return int(math.Round(float64(maxEntries) * factor))
}
