package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/carhouse/internal/booking/domain"
	"github.com/smallbiznis/carhouse/internal/cache"
	categorydomain "github.com/smallbiznis/carhouse/internal/category/domain"
	"github.com/smallbiznis/carhouse/internal/clock"
	dashboard "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	orderdomain "github.com/smallbiznis/carhouse/internal/order/domain"
	"github.com/smallbiznis/carhouse/internal/pricing"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	reviewdomain "github.com/smallbiznis/carhouse/internal/review/domain"
	userdomain "github.com/smallbiznis/carhouse/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&productdomain.Product{},
		&categorydomain.Category{},
		&orderdomain.Order{},
		&userdomain.Profile{},
		&bookingdomain.Booking{},
		&reviewdomain.Review{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return db, node
}

func seed(t *testing.T, db *gorm.DB, node *snowflake.Node) {
	t.Helper()
	for _, stock := range []int{2, 15, 30} {
		require.NoError(t, db.Create(&productdomain.Product{
			ID: node.Generate(), Name: "Spark plug", Brand: "NGK", Price: decimal.NewFromInt(5),
			Stock: stock, CreatedAt: now, UpdatedAt: now,
		}).Error)
	}
	require.NoError(t, db.Create(&categorydomain.Category{
		ID: node.Generate(), Name: "Engine", Icon: categorydomain.DefaultIcon, CreatedAt: now, UpdatedAt: now,
	}).Error)
	for _, o := range []struct {
		status orderdomain.Status
		total  string
	}{
		{orderdomain.StatusPending, "102.60"},
		{orderdomain.StatusDelivered, "57.00"},
	} {
		require.NoError(t, db.Create(&orderdomain.Order{
			ID: node.Generate(), Status: o.status, TotalAmount: decimal.RequireFromString(o.total),
			CreatedAt: now, UpdatedAt: now,
		}).Error)
	}
	require.NoError(t, db.Create(&userdomain.Profile{
		ID: node.Generate(), Email: "admin@example.com", Role: userdomain.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	}).Error)
	for _, status := range []bookingdomain.Status{
		bookingdomain.StatusScheduled,
		bookingdomain.StatusPending,
		bookingdomain.StatusCompleted,
	} {
		require.NoError(t, db.Create(&bookingdomain.Booking{
			ID: node.Generate(), ServiceType: "Oil Change", ScheduledDate: now, Status: status,
			CreatedAt: now, UpdatedAt: now,
		}).Error)
	}
	var product productdomain.Product
	require.NoError(t, db.First(&product).Error)
	for i, rating := range []int{5, 4, 4} {
		require.NoError(t, db.Create(&reviewdomain.Review{
			ID: node.Generate(), ProductID: product.ID, Rating: rating, IsVisible: i != 2,
			CreatedAt: now, UpdatedAt: now,
		}).Error)
	}
}

func newService(db *gorm.DB, c cache.Cache[dashboard.Statistics]) dashboard.Service {
	return NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(now),
		Formatter: pricing.NewFormatter("EGP"),
		Cache:     c,
	})
}

func TestStatistics(t *testing.T) {
	db, node := setupDB(t)
	seed(t, db, node)

	stats, err := newService(db, nil).Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockProducts)
	assert.Equal(t, int64(1), stats.TotalCategories)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(2), stats.PendingBookings)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("159.6")), stats.TotalRevenue.String())
	assert.Equal(t, int64(3), stats.TotalReviews)
	assert.Equal(t, "4.3", stats.AverageRating.StringFixed(1))
	assert.Equal(t, now, stats.GeneratedAt)
}

func TestStatisticsEmptyStore(t *testing.T) {
	db, _ := setupDB(t)

	stats, err := newService(db, nil).Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Zero(t, stats.TotalReviews)
	assert.True(t, stats.AverageRating.IsZero())
}

func TestStatisticsServedFromCache(t *testing.T) {
	db, node := setupDB(t)
	seed(t, db, node)
	ctx := context.Background()
	svc := newService(db, cache.NewTTLCache[dashboard.Statistics]())

	first, err := svc.Statistics(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Exec("DELETE FROM products").Error)
	cached, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalProducts, cached.TotalProducts)

	require.NoError(t, svc.Invalidate(ctx))
	fresh, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, fresh.TotalProducts)
}
