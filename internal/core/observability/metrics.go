// Package observability holds the Prometheus collectors shared by the engine,
// the cellset cache and the HTTP boundary.
package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	analyticsOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_ops_total",
			Help: "Analytic operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	analyticsOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_op_duration_seconds",
			Help:    "Duration of analytic operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"op"},
	)

	cellsetLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellset_cache_results_total",
			Help: "Cellset cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	cellsetEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cellset_cache_evictions_total",
			Help: "Cellset cache entries evicted by the LRU bound.",
		},
	)

	cellsetEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cellset_cache_entries",
			Help: "Cellset cache entries currently held (including not yet purged expired ones).",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		analyticsOps,
		analyticsOpDurationSeconds,
		cellsetLookups,
		cellsetEvictions,
		cellsetEntries,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	}
}

// Init registers the collectors with reg. Registering twice is a no-op.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func ObserveOp(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	analyticsOps.WithLabelValues(op, outcome).Inc()
	analyticsOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func ObserveCellsetLookup(outcome string) {
	cellsetLookups.WithLabelValues(outcome).Inc()
}

func IncCellsetEvictions() {
	cellsetEvictions.Inc()
}

func SetCellsetEntries(n int) {
	cellsetEntries.Set(float64(n))
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}
