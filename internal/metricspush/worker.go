package metricspush

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dashboard "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	"github.com/smallbiznis/carhouse/internal/observability/metrics"
	"go.uber.org/zap"
)

const defaultInterval = time.Minute

// Worker refreshes the catalog gauges and pushes the registry on a ticker.
type Worker struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	gauges   *CatalogGauges
	stats    dashboard.Service
	jobs     *metrics.JobMetrics
	log      *zap.Logger
	interval time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	failing atomic.Bool
}

func NewWorker(pusher Pusher, gatherer prometheus.Gatherer, gauges *CatalogGauges, stats dashboard.Service, jobs *metrics.JobMetrics, log *zap.Logger, interval time.Duration) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{
		pusher:   pusher,
		gatherer: gatherer,
		gauges:   gauges,
		stats:    stats,
		jobs:     jobs,
		log:      log.Named("metrics.push"),
		interval: interval,
	}
}

func (w *Worker) Start() {
	if w == nil || w.stopCh != nil {
		return
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go func() {
		defer close(w.doneCh)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.RunOnce(context.Background())
		for {
			select {
			case <-ticker.C:
				w.RunOnce(context.Background())
			case <-w.stopCh:
				return
			}
		}
	}()
}

func (w *Worker) Stop(ctx context.Context) error {
	if w == nil || w.stopCh == nil {
		return nil
	}
	close(w.stopCh)
	select {
	case <-w.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single refresh and push. Failures are logged once per
// failing streak and never returned to callers.
func (w *Worker) RunOnce(ctx context.Context) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()

	if err := w.gauges.Refresh(ctx, w.stats); err != nil {
		w.log.Warn("catalog gauges refresh failed", zap.Error(err))
	}

	var err error
	if w.pusher != nil {
		err = w.pusher.Push(ctx, w.gatherer)
	}
	w.jobs.Observe(metrics.JobMetricsPush, started, err)

	if err != nil {
		if w.failing.CompareAndSwap(false, true) {
			w.log.Warn("metrics push failed", zap.Error(err))
		}
		return
	}
	if w.failing.CompareAndSwap(true, false) {
		w.log.Info("metrics push recovered")
	}
}
