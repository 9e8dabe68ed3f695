package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	JobReasonDeadlineExceeded     = "deadline_exceeded"
	JobReasonDBLockTimeout        = "db_lock_timeout"
	JobReasonSerializationFailure = "serialization_failure"
	JobReasonUniqueViolation      = "unique_violation"
	JobReasonUnknown              = "unknown"
)

const (
	JobPartsSync   = "parts_sync"
	JobMetricsPush = "metrics_push"
	JobInventory   = "inventory_sync"
)

// JobMetrics tracks background and multi-step operations such as parts
// synchronization and metrics pushes.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	applied  *prometheus.CounterVec
}

var (
	jobMetricsOnce sync.Once
	jobMetrics     *JobMetrics
)

// Jobs returns the process-wide job metrics.
func Jobs() *JobMetrics {
	return JobsWithConfig(Config{})
}

// JobsWithConfig returns the process-wide job metrics labelled from cfg.
func JobsWithConfig(cfg Config) *JobMetrics {
	jobMetricsOnce.Do(func() {
		jobMetrics = newJobMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return jobMetrics
}

func newJobMetrics(registerer prometheus.Registerer, cfg Config) *JobMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabelsFor(cfg)

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "carhouse_job_runs_total",
		Help:        "Job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "carhouse_job_duration_seconds",
		Help:        "Job latency in seconds.",
		ConstLabels: constLabels,
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"job"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "carhouse_job_errors_total",
		Help:        "Job errors by classified reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "carhouse_job_items_applied_total",
		Help:        "Items written by a job, by operation.",
		ConstLabels: constLabels,
	}, []string{"job", "op"})

	runs = registerOrExisting(registerer, runs).(*prometheus.CounterVec)
	duration = registerOrExisting(registerer, duration).(*prometheus.HistogramVec)
	errs = registerOrExisting(registerer, errs).(*prometheus.CounterVec)
	applied = registerOrExisting(registerer, applied).(*prometheus.CounterVec)

	return &JobMetrics{runs: runs, duration: duration, errors: errs, applied: applied}
}

// Observe records one run of job, its latency and, when err is set, its failure reason.
func (m *JobMetrics) Observe(job string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job).Inc()
	m.duration.WithLabelValues(job).Observe(time.Since(started).Seconds())
	if err != nil {
		m.errors.WithLabelValues(job, ClassifyJobReason(err)).Inc()
	}
}

// AddApplied adds count to the items written by job for op.
func (m *JobMetrics) AddApplied(job, op string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.applied.WithLabelValues(job, op).Add(float64(count))
}

// ClassifyJobReason maps job errors to low-cardinality reasons.
func ClassifyJobReason(err error) string {
	if err == nil {
		return JobReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return JobReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return JobReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return JobReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return JobReasonUniqueViolation
	}
	return JobReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
