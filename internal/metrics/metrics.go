package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Core request/hit/miss counters
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_requests_total",
			Help: "Total number of resource requests",
		},
		[]string{"resource"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"resource"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_misses_total",
			Help: "Total number of cache misses, by reason",
		},
		[]string{"resource", "reason"}, // absent, forced, corrupt, unavailable
	)

	// Keys removed by prefix sweeps
	SweptKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_swept_keys_total",
			Help: "Total number of stale keys deleted by sweeps",
		},
		[]string{"resource"},
	)

	ProducerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcache_producer_duration_seconds",
			Help:    "Duration of producer calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "outcome"},
	)

	ProducerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_producer_errors_total",
			Help: "Total number of failed producer calls",
		},
		[]string{"resource"},
	)

	// Coalesced waiters that shared another request's producer call
	SharedProductions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_shared_productions_total",
			Help: "Total number of misses served by a concurrent producer call",
		},
		[]string{"resource"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_store_errors_total",
			Help: "Total number of store errors by operation",
		},
		[]string{"level", "operation"},
	)

	WarmRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcache_warm_runs_total",
			Help: "Total number of warm runs by outcome",
		},
		[]string{"resource", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcache_store_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// L1 capacity metrics only (if L1 is in-memory)
	CacheCapacity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcache_store_capacity_bytes",
			Help: "L1 store capacity in bytes",
		},
		[]string{"level"},
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcache_store_keys",
			Help: "Number of keys held by a store level",
		},
		[]string{"level"},
	)
)

// RecordRequest records a resource request
func RecordRequest(resource string) {
	CacheRequests.WithLabelValues(resource).Inc()
}

// RecordHit records a cache hit
func RecordHit(resource string) {
	CacheHits.WithLabelValues(resource).Inc()
}

// RecordMiss records a cache miss and why it happened
func RecordMiss(resource, reason string) {
	CacheMisses.WithLabelValues(resource, reason).Inc()
}

// RecordSweep records how many stale keys a sweep deleted
func RecordSweep(resource string, deleted int) {
	SweptKeys.WithLabelValues(resource).Add(float64(deleted))
}

// RecordSharedProduction records a waiter served by a coalesced producer call
func RecordSharedProduction(resource string) {
	SharedProductions.WithLabelValues(resource).Inc()
}

// RecordProducerError records a failed producer call
func RecordProducerError(resource string) {
	ProducerErrors.WithLabelValues(resource).Inc()
}

// RecordStoreError records a store failure for an operation
func RecordStoreError(level, operation string) {
	StoreErrors.WithLabelValues(level, operation).Inc()
}

// RecordWarm records the outcome of a warm run
func RecordWarm(resource string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	WarmRuns.WithLabelValues(resource, outcome).Inc()
}

// UpdateL1CacheCapacity updates L1 capacity metrics
func UpdateL1CacheCapacity(capacity int64) {
	CacheCapacity.WithLabelValues("l1").Set(float64(capacity))
}

// UpdateCacheKeys updates the number of keys held by a level
func UpdateCacheKeys(level string, count int64) {
	CacheKeys.WithLabelValues(level).Set(float64(count))
}

// TimeProducer returns a function that observes producer duration with the outcome of err
func TimeProducer(resource string) func(err error) {
	start := time.Now()
	return func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		ProducerDuration.WithLabelValues(resource, outcome).Observe(time.Since(start).Seconds())
	}
}

// TimeStoreOperation returns a timer function for measuring a store operation
func TimeStoreOperation(operation string) func() {
	timer := prometheus.NewTimer(StoreOperationDuration.WithLabelValues(operation))
	return func() {
		timer.ObserveDuration()
	}
}
