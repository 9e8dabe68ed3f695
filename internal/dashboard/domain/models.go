package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Statistics summarises the store and the workshop for the admin home page.
type Statistics struct {
	TotalProducts    int64           `json:"total_products"`
	LowStockProducts int64           `json:"low_stock_products"`
	TotalCategories  int64           `json:"total_categories"`
	TotalOrders      int64           `json:"total_orders"`
	PendingOrders    int64           `json:"pending_orders"`
	TotalUsers       int64           `json:"total_users"`
	TotalBookings    int64           `json:"total_bookings"`
	PendingBookings  int64           `json:"pending_bookings"`
	TotalReviews     int64           `json:"total_reviews"`
	AverageRating    decimal.Decimal `json:"average_rating"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	RevenueDisplay   string          `json:"total_revenue_display"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

type Service interface {
	Statistics(ctx context.Context) (Statistics, error)
	// Invalidate drops the cached statistics.
	Invalidate(ctx context.Context) error
}
