package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	VectorOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vector_operation_duration_seconds",
			Help:    "Duration of vector index and embedding calls",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	RecordOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_operations_total",
			Help: "Total number of bookmark and note operations",
		},
		[]string{"kind", "operation"}, // save, update, search, delete
	)

	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retried calls to external services",
		},
		[]string{"service"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, access/refresh/login
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type", "source"},
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

func TrackVectorOperation(operation string) *prometheus.Timer {
	return prometheus.NewTimer(VectorOperationDuration.WithLabelValues(operation))
}

func TrackRecordOperation(kind, operation string) {
	RecordOperationsTotal.WithLabelValues(kind, operation).Inc()
}

func TrackRetryAttempt(service string) {
	RetryAttemptsTotal.WithLabelValues(service).Inc()
}

// TrackAuthAttempt records authentication attempts
func TrackAuthAttempt(status, authType string) {
	AuthAttempts.WithLabelValues(status, authType).Inc()
}

// TrackError increments the error counter by type
func TrackError(errorType, source string) {
	ErrorsTotal.WithLabelValues(errorType, source).Inc()
}
