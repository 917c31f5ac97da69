// Package stats collects cache operation metrics behind a small
// interface so callers never depend on a particular metrics backend.
package stats

// Collector receives cache events. Implementations must be safe for
// concurrent use; every request handler and the eviction loop report
// through the same collector.
type Collector interface {
	// RecordHit counts a Get that found its key.
	RecordHit()

	// RecordMiss counts a Get for an absent key.
	RecordMiss()

	// RecordPut counts a Put.
	RecordPut()

	// RecordEvictions counts entries removed by an eviction pass.
	RecordEvictions(n int)

	// SetSize records the current entry count.
	SetSize(n int)

	// SetMemoryPercent records the last sampled memory utilization.
	SetMemoryPercent(pct int)
}

// Noop discards all events. Used when metrics are disabled and as the
// default for components constructed with a nil collector.
type Noop struct{}

func (Noop) RecordHit()           {}
func (Noop) RecordMiss()          {}
func (Noop) RecordPut()           {}
func (Noop) RecordEvictions(int)  {}
func (Noop) SetSize(int)          {}
func (Noop) SetMemoryPercent(int) {}
