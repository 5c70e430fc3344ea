package repository

import (
	"errors"
	"time"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records repository operation latency and failures. A nil *Metrics
// records nothing.
type Metrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the repository collectors with reg. Registering twice
// against the same registry reuses the collectors already there.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relmap",
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of repository operations, transaction included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entity", "operation"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relmap",
		Subsystem: "repository",
		Name:      "operation_failures_total",
		Help:      "Failed repository operations by error kind.",
	}, []string{"entity", "operation", "kind"})

	if err := reg.Register(duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	if err := reg.Register(failures); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		failures = are.ExistingCollector.(*prometheus.CounterVec)
	}

	return &Metrics{duration: duration, failures: failures}, nil
}

func (m *Metrics) observe(entity, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(entity, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failures.WithLabelValues(entity, op, mapping.KindName(err)).Inc()
	}
}
