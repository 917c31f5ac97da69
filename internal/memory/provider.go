// Package memory samples system memory utilization for the capacity
// planner and eviction engine. Sampling must never be fatal: when the
// real measurement fails, providers fall back to a deterministic
// estimate so callers always receive a usable percentage.
package memory

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Estimation constants for the fallback path, sized for a small cloud
// instance: assumed per-entry footprint and total host memory.
const (
	avgKeyBytes        = 32
	avgValueBytes      = 64
	entryOverhead      = 32
	assumedTotalMem    = 2 * 1024 * 1024 * 1024
	defaultProcMemInfo = "/proc/meminfo"
)

// UsageProvider reports current system memory utilization as an
// integer percentage in [0,100].
type UsageProvider interface {
	UsagePercent() int
}

// SystemProvider reads utilization from procfs (MemTotal and
// MemAvailable in /proc/meminfo). When the read or parse fails it
// estimates utilization from the cache's entry count and the assumed
// per-entry footprint, so the eviction engine keeps working on hosts
// without procfs.
type SystemProvider struct {
	// Path of the meminfo file, overridable for tests.
	Path string

	// EntryCount supplies the current cache size for the fallback
	// estimate. Must not be nil.
	EntryCount func() int
}

var _ UsageProvider = (*SystemProvider)(nil)

// NewSystemProvider builds a provider backed by /proc/meminfo with the
// given entry-count source for its fallback estimate.
func NewSystemProvider(entryCount func() int) *SystemProvider {
	return &SystemProvider{Path: defaultProcMemInfo, EntryCount: entryCount}
}

// UsagePercent returns the measured utilization, or the deterministic
// estimate when measurement fails. The result is clamped to [0,100].
func (p *SystemProvider) UsagePercent() int {
	if pct, ok := p.readProcMemInfo(); ok {
		return clampPercent(pct)
	}
	return clampPercent(EstimatePercent(p.EntryCount()))
}

// readProcMemInfo parses MemTotal and MemAvailable and derives the
// used percentage. Returns false on any read or parse problem.
func (p *SystemProvider) readProcMemInfo() (int, bool) {
	path := p.Path
	if path == "" {
		path = defaultProcMemInfo
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var totalKB, availKB int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.ParseInt(fields[1], 10, 64)
		case "MemAvailable:":
			availKB, _ = strconv.ParseInt(fields[1], 10, 64)
		}
		if totalKB > 0 && availKB > 0 {
			break
		}
	}
	if totalKB <= 0 || availKB <= 0 || availKB > totalKB {
		return 0, false
	}

	used := totalKB - availKB
	return int(float64(used) / float64(totalKB) * 100), true
}

// EstimatePercent derives a utilization percentage from the entry
// count alone: entries times the assumed per-entry footprint over the
// assumed total memory. Deterministic, so the eviction engine behaves
// reproducibly when measurement is unavailable.
func EstimatePercent(entryCount int) int {
	estimated := int64(entryCount) * (avgKeyBytes + avgValueBytes + entryOverhead)
	return int(float64(estimated) / float64(assumedTotalMem) * 100)
}

func clampPercent(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Static always reports a fixed percentage. Tests drive the eviction
// engine through specific pressure levels with it.
type Static int

func (s Static) UsagePercent() int { return int(s) }
