package common

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PerformanceMetrics defines the interface for performance tracking
type PerformanceMetrics interface {
	GetMetrics() map[string]interface{}
}

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// updateBaseMetricsLocked updates common metrics fields. Callers hold Mu.
func (bm *BaseMetrics) updateBaseMetricsLocked(success bool) {
	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]interface{} {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// ExtractionMetrics tracks preview extraction attempts and mirrors them into
// Prometheus collectors on a private registry.
type ExtractionMetrics struct {
	BaseMetrics
	FailuresByKind map[string]int64
	LastDuration   time.Duration
	AverageTime    time.Duration

	registry  *prometheus.Registry
	attempts  *prometheus.CounterVec
	durations prometheus.Histogram
}

// NewExtractionMetrics creates metrics backed by a fresh registry
func NewExtractionMetrics() *ExtractionMetrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clipwatch",
		Name:      "extractions_total",
		Help:      "Preview extraction attempts by outcome and error kind.",
	}, []string{"status", "kind"})
	durations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clipwatch",
		Name:      "extraction_duration_seconds",
		Help:      "Wall time of a single preview extraction attempt.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(attempts, durations)

	return &ExtractionMetrics{
		FailuresByKind: make(map[string]int64),
		registry:       registry,
		attempts:       attempts,
		durations:      durations,
	}
}

// Registry exposes the Prometheus registry for an HTTP handler
func (em *ExtractionMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// Observe records one extraction attempt that started at start and ended
// with err (nil on success).
func (em *ExtractionMetrics) Observe(start time.Time, err error) {
	duration := time.Since(start)

	em.Mu.Lock()
	em.updateBaseMetricsLocked(err == nil)
	kind := KindOf(err)
	if err != nil {
		em.FailuresByKind[kind]++
	}
	em.LastDuration = duration
	// Calculate rolling average
	if em.TotalOperations == 1 {
		em.AverageTime = duration
	} else {
		em.AverageTime = (em.AverageTime*time.Duration(em.TotalOperations-1) + duration) / time.Duration(em.TotalOperations)
	}
	em.Mu.Unlock()

	status := "success"
	if err != nil {
		status = "failure"
	}
	em.attempts.WithLabelValues(status, kind).Inc()
	em.durations.Observe(duration.Seconds())
}

// GetMetrics returns extraction metrics as a map
func (em *ExtractionMetrics) GetMetrics() map[string]interface{} {
	metrics := em.GetBaseMetrics()
	em.Mu.RLock()
	defer em.Mu.RUnlock()

	failures := make(map[string]int64, len(em.FailuresByKind))
	for k, v := range em.FailuresByKind {
		failures[k] = v
	}
	metrics["failures_by_kind"] = failures
	metrics["last_duration"] = em.LastDuration
	metrics["average_time"] = em.AverageTime
	return metrics
}
