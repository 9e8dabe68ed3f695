package metricspush

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	dashboard "github.com/smallbiznis/carhouse/internal/dashboard/domain"
)

// CatalogGauges mirrors catalog and workshop counts into the registry so
// they are scraped and pushed with the request metrics.
type CatalogGauges struct {
	products        prometheus.Gauge
	lowStock        prometheus.Gauge
	pendingBookings prometheus.Gauge
	pendingOrders   prometheus.Gauge
}

func NewCatalogGauges(registerer prometheus.Registerer) *CatalogGauges {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	g := &CatalogGauges{
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carhouse_products",
			Help: "Products in the catalog.",
		}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carhouse_products_low_stock",
			Help: "Products below the low-stock threshold.",
		}),
		pendingBookings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carhouse_bookings_pending",
			Help: "Bookings that are scheduled or pending.",
		}),
		pendingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carhouse_orders_pending",
			Help: "Orders waiting to be processed.",
		}),
	}
	g.products = registerOrExisting(registerer, g.products).(prometheus.Gauge)
	g.lowStock = registerOrExisting(registerer, g.lowStock).(prometheus.Gauge)
	g.pendingBookings = registerOrExisting(registerer, g.pendingBookings).(prometheus.Gauge)
	g.pendingOrders = registerOrExisting(registerer, g.pendingOrders).(prometheus.Gauge)
	return g
}

// Refresh loads the current statistics and updates the gauges.
func (g *CatalogGauges) Refresh(ctx context.Context, stats dashboard.Service) error {
	if g == nil || stats == nil {
		return nil
	}
	s, err := stats.Statistics(ctx)
	if err != nil {
		return err
	}
	g.products.Set(float64(s.TotalProducts))
	g.lowStock.Set(float64(s.LowStockProducts))
	g.pendingBookings.Set(float64(s.PendingBookings))
	g.pendingOrders.Set(float64(s.PendingOrders))
	return nil
}

func registerOrExisting(registerer prometheus.Registerer, collector prometheus.Collector) prometheus.Collector {
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector
		}
		panic(err)
	}
	return collector
}
