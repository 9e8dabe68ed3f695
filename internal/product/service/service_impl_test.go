package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/carhouse/internal/category/domain"
	categoryrepo "github.com/smallbiznis/carhouse/internal/category/repository"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/internal/product/domain"
	"github.com/smallbiznis/carhouse/internal/product/repository"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	recorder *events.Recorder
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&categorydomain.Category{}, &domain.Product{}, &domain.ProductImage{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	recorder := events.NewRecorder()
	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)),
		Repo:         repository.Provide(),
		CategoryRepo: categoryrepo.Provide(),
		Publisher:    recorder,
		Formatter:    pricing.NewFormatter("EGP"),
	})
	return fixture{svc: svc, db: db, recorder: recorder}
}

func validRequest() domain.CreateRequest {
	return domain.CreateRequest{
		Name:   "Brake pads",
		Brand:  "Bosch",
		Price:  decimal.RequireFromString("450.00"),
		Stock:  25,
		Rating: 4.5,
	}
}

func TestCreateAndGet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "450.00 EGP", created.PriceDisplay)
	assert.False(t, created.LowStock)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brake pads", got.Name)
	assert.True(t, decimal.RequireFromString("450").Equal(got.Price))
	assert.Empty(t, got.Images)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.CreateRequest)
		want   error
	}{
		{"missing name", func(r *domain.CreateRequest) { r.Name = " " }, domain.ErrInvalidName},
		{"missing brand", func(r *domain.CreateRequest) { r.Brand = "" }, domain.ErrInvalidBrand},
		{"negative price", func(r *domain.CreateRequest) { r.Price = decimal.NewFromInt(-1) }, domain.ErrInvalidPrice},
		{"negative stock", func(r *domain.CreateRequest) { r.Stock = -1 }, domain.ErrInvalidStock},
		{"rating above five", func(r *domain.CreateRequest) { r.Rating = 5.5 }, domain.ErrInvalidRating},
		{"unknown category", func(r *domain.CreateRequest) { r.CategoryID = "12345" }, domain.ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := f.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateStockPublishesEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	stock := 3
	updated, err := f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Stock: &stock})
	require.NoError(t, err)
	assert.True(t, updated.LowStock)
	assert.Equal(t, []events.EventType{events.EventTypeProductStockChanged}, f.recorder.Types())

	name := "Ceramic brake pads"
	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &name})
	require.NoError(t, err)
	assert.Len(t, f.recorder.Events(), 1)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, name := range []string{"Oil filter", "Air filter", "Spark plug"} {
		req := validRequest()
		req.Name = name
		if name == "Spark plug" {
			req.Stock = 2
		}
		_, err := f.svc.Create(ctx, req)
		require.NoError(t, err)
	}

	filters, err := f.svc.List(ctx, domain.ListRequest{Name: "FILTER", SortBy: "name", OrderBy: "asc"})
	require.NoError(t, err)
	require.Len(t, filters.Products, 2)
	assert.Equal(t, "Air filter", filters.Products[0].Name)

	low, err := f.svc.List(ctx, domain.ListRequest{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low.Products, 1)
	assert.Equal(t, "Spark plug", low.Products[0].Name)

	page, err := f.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.True(t, page.HasMore)
}

func TestAddImageAndDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = f.svc.AddImage(ctx, domain.AddImageRequest{ProductID: created.ID, URL: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidImageURL)

	_, err = f.svc.AddImage(ctx, domain.AddImageRequest{ProductID: created.ID, URL: "https://cdn.example.com/b.png", Position: 1})
	require.NoError(t, err)
	_, err = f.svc.AddImage(ctx, domain.AddImageRequest{ProductID: created.ID, URL: "https://cdn.example.com/a.png"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", got.Images[0].URL)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var images int64
	require.NoError(t, f.db.Model(&domain.ProductImage{}).Count(&images).Error)
	assert.Zero(t, images)
}

func TestListByIDsSkipsMissing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validRequest())
	require.NoError(t, err)

	items, err := f.svc.ListByIDs(ctx, []string{created.ID, "999"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID.String())

	_, err = f.svc.ListByIDs(ctx, []string{"x"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
