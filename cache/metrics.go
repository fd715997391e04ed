package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/teranos/taxon/errors"
)

// cacheMetrics holds Prometheus metrics for document cache operations.
type cacheMetrics struct {
	hits       prometheus.Counter
	misses     prometheus.Counter
	loads      prometheus.Counter
	loadErrors prometheus.Counter
	evictions  prometheus.Counter

	size prometheus.Gauge
}

func newCacheMetrics(name string) *cacheMetrics {
	labels := prometheus.Labels{"cache": name}
	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "taxon",
			Subsystem:   "vocabulary_cache",
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}

	return &cacheMetrics{
		hits:       counter("hits_total", "Total number of cache hits"),
		misses:     counter("misses_total", "Total number of cache misses"),
		loads:      counter("loads_total", "Total number of documents loaded from source"),
		loadErrors: counter("load_errors_total", "Total number of failed document loads"),
		evictions:  counter("evictions_total", "Total number of evicted documents, expired or removed"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "taxon",
			Subsystem:   "vocabulary_cache",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of documents in cache",
		}),
	}
}

// register adds every metric to reg. A nil registerer leaves the metrics
// unregistered but still usable.
func (m *cacheMetrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range []prometheus.Collector{m.hits, m.misses, m.loads, m.loadErrors, m.evictions, m.size} {
		if err := reg.Register(c); err != nil {
			return errors.Wrap(err, "register cache metrics")
		}
	}
	return nil
}

func (m *cacheMetrics) recordHit()       { m.hits.Inc() }
func (m *cacheMetrics) recordMiss()      { m.misses.Inc() }
func (m *cacheMetrics) recordLoad()      { m.loads.Inc() }
func (m *cacheMetrics) recordLoadError() { m.loadErrors.Inc() }

// recordEviction runs inside the LRU eviction callback, so it must not
// call back into the cache.
func (m *cacheMetrics) recordEviction() {
	m.evictions.Inc()
	m.size.Dec()
}

// updateSize sets the current cache size.
func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
