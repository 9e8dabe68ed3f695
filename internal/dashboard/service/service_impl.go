package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/internal/cache"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/config"
	dashboard "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	"github.com/smallbiznis/carhouse/internal/pricing"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statisticsKey = "statistics"
	statisticsTTL = 30 * time.Second
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Formatter *pricing.Formatter
	Cache     cache.Cache[dashboard.Statistics] `optional:"true"`
	Pricing   *config.PricingConfigHolder       `optional:"true"`
	Config    config.Config                     `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	formatter *pricing.Formatter
	cache     cache.Cache[dashboard.Statistics]
	ttl       time.Duration
	threshold int
}

func NewService(p Params) dashboard.Service {
	threshold := productdomain.DefaultLowStockThreshold
	if p.Pricing != nil {
		if v := p.Pricing.Get().LowStockThreshold; v > 0 {
			threshold = v
		}
	}
	ttl := statisticsTTL
	if p.Config.Redis.CacheTTLSeconds > 0 {
		ttl = time.Duration(p.Config.Redis.CacheTTLSeconds) * time.Second
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("dashboard.service"),
		clock:     p.Clock,
		formatter: p.Formatter,
		cache:     p.Cache,
		ttl:       ttl,
		threshold: threshold,
	}
}

type statisticsRow struct {
	TotalProducts    int64           `gorm:"column:total_products"`
	LowStockProducts int64           `gorm:"column:low_stock_products"`
	TotalCategories  int64           `gorm:"column:total_categories"`
	TotalOrders      int64           `gorm:"column:total_orders"`
	PendingOrders    int64           `gorm:"column:pending_orders"`
	TotalRevenue     decimal.Decimal `gorm:"column:total_revenue"`
	TotalUsers       int64           `gorm:"column:total_users"`
	TotalBookings    int64           `gorm:"column:total_bookings"`
	PendingBookings  int64           `gorm:"column:pending_bookings"`
	TotalReviews     int64           `gorm:"column:total_reviews"`
	AverageRating    float64         `gorm:"column:average_rating"`
}

// Statistics serves from the cache when it holds a fresh snapshot. Cache
// failures fall through to the database.
func (s *Service) Statistics(ctx context.Context) (dashboard.Statistics, error) {
	if s.cache != nil {
		stats, ok, err := s.cache.Get(ctx, statisticsKey)
		if err != nil {
			s.log.Warn("statistics cache read failed", zap.Error(err))
		} else if ok {
			return stats, nil
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return dashboard.Statistics{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statisticsKey, stats, s.ttl); err != nil {
			s.log.Warn("statistics cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, statisticsKey)
}

func (s *Service) compute(ctx context.Context) (dashboard.Statistics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products) AS total_products,
			(SELECT COUNT(*) FROM products WHERE stock < ?) AS low_stock_products,
			(SELECT COUNT(*) FROM categories) AS total_categories,
			(SELECT COUNT(*) FROM orders) AS total_orders,
			(SELECT COUNT(*) FROM orders WHERE status = 'pending') AS pending_orders,
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders) AS total_revenue,
			(SELECT COUNT(*) FROM profiles) AS total_users,
			(SELECT COUNT(*) FROM bookings) AS total_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status IN ('scheduled', 'pending')) AS pending_bookings,
			(SELECT COUNT(*) FROM reviews) AS total_reviews,
			(SELECT COALESCE(AVG(rating), 0) FROM reviews) AS average_rating`

	var row statisticsRow
	if err := s.db.WithContext(ctx).Raw(query, s.threshold).Scan(&row).Error; err != nil {
		return dashboard.Statistics{}, err
	}

	revenue := pricing.RoundMoney(row.TotalRevenue)
	return dashboard.Statistics{
		TotalProducts:    row.TotalProducts,
		LowStockProducts: row.LowStockProducts,
		TotalCategories:  row.TotalCategories,
		TotalOrders:      row.TotalOrders,
		PendingOrders:    row.PendingOrders,
		TotalUsers:       row.TotalUsers,
		TotalBookings:    row.TotalBookings,
		PendingBookings:  row.PendingBookings,
		TotalReviews:     row.TotalReviews,
		AverageRating:    decimal.NewFromFloat(row.AverageRating).Round(1),
		TotalRevenue:     revenue,
		RevenueDisplay:   s.formatter.Money(revenue),
		GeneratedAt:      s.clock.Now(),
	}, nil
}
