package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/internal/association"
	"github.com/smallbiznis/carhouse/internal/clock"
	"github.com/smallbiznis/carhouse/internal/events"
	"github.com/smallbiznis/carhouse/internal/inventory/domain"
	"github.com/smallbiznis/carhouse/internal/inventory/repository"
	productdomain "github.com/smallbiznis/carhouse/internal/product/domain"
	productrepo "github.com/smallbiznis/carhouse/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

// flakyRepo fails the upsert of one store.
type flakyRepo struct {
	domain.Repository
	failOn snowflake.ID
}

func (r *flakyRepo) UpsertLevel(ctx context.Context, db *gorm.DB, productID, storeID snowflake.ID, quantity int64, now time.Time) error {
	if storeID == r.failOn {
		return errBoom
	}
	return r.Repository.UpsertLevel(ctx, db, productID, storeID, quantity, now)
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	repo     *flakyRepo
	recorder *events.Recorder
	svc      domain.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&productdomain.Product{},
		&domain.Store{},
		&domain.Level{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		node:     node,
		repo:     &flakyRepo{Repository: repository.Provide()},
		recorder: events.NewRecorder(),
	}
	f.svc = New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:        f.repo,
		ProductRepo: productrepo.Provide(),
		Publisher:   f.recorder,
	})
	return f
}

func (f *fixture) product(t *testing.T, stock int) string {
	t.Helper()
	p := &productdomain.Product{
		ID:        f.node.Generate(),
		Name:      "Oil filter",
		Brand:     "Mann",
		Price:     decimal.RequireFromString("120"),
		Stock:     stock,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, productrepo.Provide().Create(context.Background(), f.db, p))
	return p.ID.String()
}

func (f *fixture) store(t *testing.T, name string) string {
	t.Helper()
	resp, err := f.svc.CreateStore(context.Background(), domain.CreateStoreRequest{Name: name, Address: "Cairo"})
	require.NoError(t, err)
	return resp.ID
}

func levelQuantities(levels []domain.LevelResponse) map[string]int {
	out := make(map[string]int, len(levels))
	for _, level := range levels {
		out[level.StoreID] = level.Quantity
	}
	return out
}

func TestCreateStore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp, err := f.svc.CreateStore(ctx, domain.CreateStoreRequest{Name: "  Nasr City  "})
	require.NoError(t, err)
	assert.Equal(t, "Nasr City", resp.Name)

	_, err = f.svc.CreateStore(ctx, domain.CreateStoreRequest{Name: "Nasr City"})
	assert.ErrorIs(t, err, domain.ErrStoreNameTaken)

	_, err = f.svc.CreateStore(ctx, domain.CreateStoreRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidStoreName)

	stores, err := f.svc.ListStores(ctx)
	require.NoError(t, err)
	assert.Len(t, stores, 1)
}

func TestUpdateLevelUpsertsOneStoreAndRefreshesStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	product := f.product(t, 0)
	maadi := f.store(t, "Maadi")
	zamalek := f.store(t, "Zamalek")

	_, err := f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: maadi, Quantity: 4})
	require.NoError(t, err)
	resp, err := f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: zamalek, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.TotalStock)
	assert.True(t, resp.LowStock)
	assert.Equal(t, map[string]int{maadi: 4, zamalek: 3}, levelQuantities(resp.Levels))

	resp, err = f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: maadi, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, 13, resp.TotalStock)
	assert.False(t, resp.LowStock)
	assert.Equal(t, map[string]int{maadi: 10, zamalek: 3}, levelQuantities(resp.Levels))

	stored, err := productrepo.Provide().FindByID(ctx, f.db, mustParse(t, product))
	require.NoError(t, err)
	assert.Equal(t, 13, stored.Stock)

	evts := f.recorder.Events()
	require.Len(t, evts, 3)
	var payload stockChanged
	require.NoError(t, json.Unmarshal(evts[2].Data, &payload))
	assert.Equal(t, stockChanged{ProductID: product, Previous: 7, Current: 13, LowStock: false}, payload)
}

func TestUpdateLevelSameTotalPublishesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	product := f.product(t, 5)
	maadi := f.store(t, "Maadi")

	_, err := f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: maadi, Quantity: 5})
	require.NoError(t, err)
	assert.Empty(t, f.recorder.Events())
}

func TestSyncLevelsReplacesAllStores(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	product := f.product(t, 0)
	maadi := f.store(t, "Maadi")
	zamalek := f.store(t, "Zamalek")
	giza := f.store(t, "Giza")

	_, err := f.svc.SyncLevels(ctx, domain.SyncLevelsRequest{ProductID: product, Levels: []domain.LevelInput{
		{StoreID: maadi, Quantity: 2},
		{StoreID: zamalek, Quantity: 8},
	}})
	require.NoError(t, err)

	resp, err := f.svc.SyncLevels(ctx, domain.SyncLevelsRequest{ProductID: product, Levels: []domain.LevelInput{
		{StoreID: zamalek, Quantity: 8},
		{StoreID: giza, Quantity: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.TotalStock)
	assert.Equal(t, map[string]int{zamalek: 8, giza: 0}, levelQuantities(resp.Levels))

	resp, err = f.svc.SyncLevels(ctx, domain.SyncLevelsRequest{ProductID: product})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalStock)
	assert.Empty(t, resp.Levels)
}

func TestSyncLevelsRollsBackOnFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	product := f.product(t, 0)
	maadi := f.store(t, "Maadi")
	zamalek := f.store(t, "Zamalek")

	_, err := f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: maadi, Quantity: 6})
	require.NoError(t, err)

	f.repo.failOn = mustParse(t, zamalek)
	_, err = f.svc.SyncLevels(ctx, domain.SyncLevelsRequest{ProductID: product, Levels: []domain.LevelInput{
		{StoreID: zamalek, Quantity: 1},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInventorySyncFailed)
	assert.ErrorIs(t, err, association.ErrPartialApply)
	assert.ErrorIs(t, err, errBoom)

	resp, err := f.svc.ListLevels(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, 6, resp.TotalStock)
	assert.Equal(t, map[string]int{maadi: 6}, levelQuantities(resp.Levels))
}

func TestInventoryValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	product := f.product(t, 0)
	maadi := f.store(t, "Maadi")
	unknown := f.node.Generate().String()

	_, err := f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: "x", StoreID: maadi, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidProductID)

	_, err = f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: unknown, StoreID: maadi, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: "0", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidStoreID)

	_, err = f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: maadi, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.UpdateLevel(ctx, domain.UpdateLevelRequest{ProductID: product, StoreID: unknown, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)

	_, err = f.svc.SyncLevels(ctx, domain.SyncLevelsRequest{ProductID: product, Levels: []domain.LevelInput{
		{StoreID: maadi, Quantity: 1},
		{StoreID: maadi, Quantity: 2},
	}})
	assert.ErrorIs(t, err, domain.ErrDuplicateStore)
}

func mustParse(t *testing.T, id string) snowflake.ID {
	t.Helper()
	parsed, err := snowflake.ParseString(id)
	require.NoError(t, err)
	return parsed
}
