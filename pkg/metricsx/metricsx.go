// Package metricsx registers Prometheus metrics for the catalog, blob
// store, and mutex scheduler layers. Collection is opt-in: callers that
// never call InitRegistry get a nil *Metrics, and every recording
// method on *Metrics is nil-safe, so an unconfigured process pays no
// instrumentation cost.
package metricsx

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registry *prometheus.Registry
	enabled  bool
	initOnce sync.Once
)

// InitRegistry creates the process-wide Prometheus registry that
// New registers against. Safe to call more than once; only the
// first call takes effect.
func InitRegistry() *prometheus.Registry {
	initOnce.Do(func() {
		registry = prometheus.NewRegistry()
		enabled = true
	})
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool { return enabled }

// GetRegistry returns the process-wide registry, or nil if InitRegistry
// has not been called.
func GetRegistry() *prometheus.Registry { return registry }

// Metrics holds every counter and histogram bucketfs exposes. A nil
// *Metrics is valid and every method on it is a no-op, so components
// can unconditionally hold a *Metrics field without a feature-flag
// branch at each call site.
type Metrics struct {
	catalogOperations *prometheus.CounterVec
	catalogDuration   *prometheus.HistogramVec

	blobBytesWritten prometheus.Counter
	blobBytesRead    prometheus.Counter
	blobOperations   *prometheus.CounterVec
	blobDuration     *prometheus.HistogramVec

	mutexQueueDepth *prometheus.GaugeVec
	mutexWaitTime   *prometheus.HistogramVec
}

var durationBuckets = []float64{
	0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000,
}

// New registers bucketfs's metrics against reg and returns them.
// Returns nil if metrics are not enabled (InitRegistry not called).
func New() *Metrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &Metrics{
		catalogOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketfs_catalog_operations_total",
				Help: "Total number of catalog operations by kind and outcome",
			},
			[]string{"operation", "outcome"}, // create, read, update, delete, search, list; ok, error
		),
		catalogDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bucketfs_catalog_operation_duration_milliseconds",
				Help:    "Duration of catalog operations in milliseconds",
				Buckets: durationBuckets,
			},
			[]string{"operation"},
		),
		blobBytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "bucketfs_blob_bytes_written_total",
			Help: "Total bytes written to blob storage",
		}),
		blobBytesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "bucketfs_blob_bytes_read_total",
			Help: "Total bytes read from blob storage",
		}),
		blobOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bucketfs_blob_operations_total",
				Help: "Total number of blob store operations by kind, backend and outcome",
			},
			[]string{"operation", "backend", "outcome"}, // put, get, delete, stat; fs, s3, cache
		),
		blobDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bucketfs_blob_operation_duration_milliseconds",
				Help:    "Duration of blob store operations in milliseconds",
				Buckets: durationBuckets,
			},
			[]string{"operation", "backend"},
		),
		mutexQueueDepth: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bucketfs_mutex_queue_depth",
				Help: "Number of goroutines currently waiting on a scheduler's mutex",
			},
			[]string{"bucket"},
		),
		mutexWaitTime: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bucketfs_mutex_wait_duration_milliseconds",
				Help:    "Time spent waiting to acquire the scheduler's mutex",
				Buckets: durationBuckets,
			},
			[]string{"bucket", "mode"}, // read, write
		),
	}
}

// ObserveCatalogOperation records a completed catalog operation.
func (m *Metrics) ObserveCatalogOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.catalogOperations.WithLabelValues(operation, outcome).Inc()
	m.catalogDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

// ObserveBlobOperation records a completed blob store operation and,
// for put/get operations, the number of bytes transferred.
func (m *Metrics) ObserveBlobOperation(operation, backend string, bytes int64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.blobOperations.WithLabelValues(operation, backend, outcome).Inc()
	m.blobDuration.WithLabelValues(operation, backend).Observe(float64(duration.Milliseconds()))

	if err == nil && bytes > 0 {
		switch operation {
		case "put":
			m.blobBytesWritten.Add(float64(bytes))
		case "get":
			m.blobBytesRead.Add(float64(bytes))
		}
	}
}

// RecordMutexQueueDepth records how many goroutines are currently
// waiting on bucket's scheduler.
func (m *Metrics) RecordMutexQueueDepth(bucket string, depth int) {
	if m == nil {
		return
	}
	m.mutexQueueDepth.WithLabelValues(bucket).Set(float64(depth))
}

// ObserveMutexWait records how long a caller waited to acquire
// bucket's scheduler in the given mode ("read" or "write").
func (m *Metrics) ObserveMutexWait(bucket, mode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mutexWaitTime.WithLabelValues(bucket, mode).Observe(float64(duration.Milliseconds()))
}
