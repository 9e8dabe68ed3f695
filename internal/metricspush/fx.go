package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/carhouse/internal/config"
	dashboard "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	"github.com/smallbiznis/carhouse/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Provide(func() *CatalogGauges {
		return NewCatalogGauges(prometheus.DefaultRegisterer)
	}),
	fx.Invoke(startWorker),
)

type workerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Pusher    Pusher `optional:"true"`
	Gauges    *CatalogGauges
	Stats     dashboard.Service
	Jobs      *metrics.JobMetrics `optional:"true"`
	Log       *zap.Logger
}

// startWorker keeps the catalog gauges fresh for /metrics and, when an
// exporter is configured, pushes the default registry on each tick.
func startWorker(p workerParams) {
	interval := time.Duration(p.Config.MetricsPush.IntervalSeconds) * time.Second
	w := NewWorker(p.Pusher, prometheus.DefaultGatherer, p.Gauges, p.Stats, p.Jobs, p.Log, interval)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return w.Stop(ctx)
		},
	})
}
