package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifyJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: JobReasonDeadlineExceeded},
		{name: "canceled_wrapped", err: fmt.Errorf("sync: %w", context.Canceled), want: JobReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: JobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: JobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: JobReasonUniqueViolation},
		{name: "pg_unique_violation", err: &pgconn.PgError{Code: "23505"}, want: JobReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: JobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestJobMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newJobMetrics(registry, Config{ServiceName: "carhouse", Environment: "test"})

	m.Observe(JobPartsSync, time.Now(), nil)
	m.Observe(JobPartsSync, time.Now(), &pgconn.PgError{Code: "55P03"})
	m.AddApplied(JobPartsSync, "upsert", 3)
	m.AddApplied(JobPartsSync, "delete", 0)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(JobPartsSync)); got != 2 {
		t.Fatalf("expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues(JobPartsSync, JobReasonDBLockTimeout)); got != 1 {
		t.Fatalf("expected 1 lock timeout, got %v", got)
	}
	if got := testutil.ToFloat64(m.applied.WithLabelValues(JobPartsSync, "upsert")); got != 3 {
		t.Fatalf("expected 3 upserts, got %v", got)
	}
}

func TestHTTPMetricsRegistersOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newHTTPMetrics(registry, Config{})
	second := newHTTPMetrics(registry, Config{})
	if first.requests != second.requests {
		t.Fatalf("expected existing collector to be reused")
	}
}
