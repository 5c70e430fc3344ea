package redis

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Cache operation labels
const (
	opGet        = "get"
	opSet        = "set"
	opDelete     = "delete"
	opInvalidate = "invalidate"
)

// Metrics tracks cache performance statistics as Prometheus collectors.
// They are usable before Register is called; registering exports them.
type Metrics struct {
	lookups       *prometheus.CounterVec
	errors        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	invalidations prometheus.Counter
	invalidated   prometheus.Counter
}

// NewMetrics creates the cache collectors
func NewMetrics() *Metrics {
	return &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relmap",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relmap",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Failed cache operations.",
		}, []string{"operation"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relmap",
			Subsystem: "cache",
			Name:      "operation_duration_seconds",
			Help:      "Duration of cache round trips.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relmap",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Pattern invalidations.",
		}),
		invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relmap",
			Subsystem: "cache",
			Name:      "invalidated_keys_total",
			Help:      "Keys removed by pattern invalidations.",
		}),
	}
}

// Register exports the collectors through reg. Collectors another manager
// already registered there are adopted instead.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var err error
	if m.lookups, err = register(reg, m.lookups); err != nil {
		return err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return err
	}
	if m.latency, err = register(reg, m.latency); err != nil {
		return err
	}
	if m.invalidations, err = register(reg, m.invalidations); err != nil {
		return err
	}
	m.invalidated, err = register(reg, m.invalidated)
	return err
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

// RecordCacheHit increments cache hit counter
func (m *Metrics) RecordCacheHit() {
	m.lookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss increments cache miss counter
func (m *Metrics) RecordCacheMiss() {
	m.lookups.WithLabelValues("miss").Inc()
}

// RecordCacheError counts a failed operation
func (m *Metrics) RecordCacheError(op string) {
	m.errors.WithLabelValues(op).Inc()
}

// RecordGet records a get operation with latency
func (m *Metrics) RecordGet(duration time.Duration) {
	m.latency.WithLabelValues(opGet).Observe(duration.Seconds())
}

// RecordSet records a set operation with latency
func (m *Metrics) RecordSet(duration time.Duration) {
	m.latency.WithLabelValues(opSet).Observe(duration.Seconds())
}

// RecordDelete records a delete operation with latency
func (m *Metrics) RecordDelete(duration time.Duration) {
	m.latency.WithLabelValues(opDelete).Observe(duration.Seconds())
}

// RecordInvalidation counts one pattern invalidation and the keys it removed
func (m *Metrics) RecordInvalidation(keys int) {
	m.invalidations.Inc()
	m.invalidated.Add(float64(keys))
}

// GetSnapshot reads the collectors back into a MetricsSnapshot
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	hits := counterValue(m.lookups.WithLabelValues("hit"))
	misses := counterValue(m.lookups.WithLabelValues("miss"))

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	var cacheErrors uint64
	for _, op := range []string{opGet, opSet, opDelete, opInvalidate} {
		cacheErrors += counterValue(m.errors.WithLabelValues(op))
	}

	getOps, avgGet := histogramAverage(m.latency.WithLabelValues(opGet))
	setOps, avgSet := histogramAverage(m.latency.WithLabelValues(opSet))
	deleteOps, avgDelete := histogramAverage(m.latency.WithLabelValues(opDelete))

	return MetricsSnapshot{
		CacheHits:         hits,
		CacheMisses:       misses,
		CacheErrors:       cacheErrors,
		CacheHitRate:      hitRate,
		GetOperations:     getOps,
		SetOperations:     setOps,
		DeleteOperations:  deleteOps,
		AvgGetLatency:     avgGet,
		AvgSetLatency:     avgSet,
		AvgDeleteLatency:  avgDelete,
		InvalidationCount: counterValue(m.invalidations),
		InvalidatedKeys:   counterValue(m.invalidated),
	}
}

func counterValue(c prometheus.Counter) uint64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return uint64(pb.GetCounter().GetValue())
}

func histogramAverage(o prometheus.Observer) (uint64, time.Duration) {
	h, ok := o.(prometheus.Metric)
	if !ok {
		return 0, 0
	}
	var pb dto.Metric
	if err := h.Write(&pb); err != nil {
		return 0, 0
	}
	count := pb.GetHistogram().GetSampleCount()
	if count == 0 {
		return 0, 0
	}
	avg := pb.GetHistogram().GetSampleSum() / float64(count)
	return count, time.Duration(avg * float64(time.Second))
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	// Cache metrics
	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheErrors  uint64  `json:"cache_errors"`
	CacheHitRate float64 `json:"cache_hit_rate"` // Percentage

	// Operation counts
	GetOperations    uint64 `json:"get_operations"`
	SetOperations    uint64 `json:"set_operations"`
	DeleteOperations uint64 `json:"delete_operations"`

	// Latency metrics
	AvgGetLatency    time.Duration `json:"avg_get_latency"`
	AvgSetLatency    time.Duration `json:"avg_set_latency"`
	AvgDeleteLatency time.Duration `json:"avg_delete_latency"`

	// Invalidation metrics
	InvalidationCount uint64 `json:"invalidation_count"`
	InvalidatedKeys   uint64 `json:"invalidated_keys"`
}
