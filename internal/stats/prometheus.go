package stats

import "github.com/prometheus/client_golang/prometheus"

// Prometheus implements Collector on top of a Prometheus registry.
type Prometheus struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	puts      prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
	memoryPct prometheus.Gauge
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus registers the cache metrics with the given registerer.
// A nil registerer falls back to prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressurecache_hits_total",
			Help: "Number of Get operations that found their key.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressurecache_misses_total",
			Help: "Number of Get operations for absent keys.",
		}),
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressurecache_puts_total",
			Help: "Number of Put operations.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pressurecache_evictions_total",
			Help: "Number of entries removed by eviction passes.",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pressurecache_entries",
			Help: "Current number of cached entries.",
		}),
		memoryPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pressurecache_memory_percent",
			Help: "Last sampled system memory utilization percentage.",
		}),
	}

	for _, c := range []prometheus.Collector{p.hits, p.misses, p.puts, p.evictions, p.size, p.memoryPct} {
		// Tolerate duplicate registration: the unregistered metric
		// still works, the scrape just sees the first one.
		_ = reg.Register(c)
	}
	return p
}

func (p *Prometheus) RecordHit()               { p.hits.Inc() }
func (p *Prometheus) RecordMiss()              { p.misses.Inc() }
func (p *Prometheus) RecordPut()               { p.puts.Inc() }
func (p *Prometheus) RecordEvictions(n int)    { p.evictions.Add(float64(n)) }
func (p *Prometheus) SetSize(n int)            { p.size.Set(float64(n)) }
func (p *Prometheus) SetMemoryPercent(pct int) { p.memoryPct.Set(float64(pct)) }
