package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/inventory/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateStore(ctx context.Context, db *gorm.DB, store *domain.Store) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO stores (id, name, address, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		store.ID,
		store.Name,
		store.Address,
		store.CreatedAt,
		store.UpdatedAt,
	).Error
}

func (r *repo) ListStores(ctx context.Context, db *gorm.DB) ([]domain.Store, error) {
	var items []domain.Store
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, address, created_at, updated_at FROM stores ORDER BY name ASC, id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindStoresByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Store, error) {
	if len(ids) == 0 {
		return []domain.Store{}, nil
	}
	var items []domain.Store
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, address, created_at, updated_at FROM stores WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListLevels(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]domain.Level, error) {
	var items []domain.Level
	err := db.WithContext(ctx).Raw(
		`SELECT i.product_id, i.store_id, i.quantity, i.reserved, i.updated_at, s.name AS store_name
		   FROM inventory i
		   JOIN stores s ON s.id = i.store_id
		  WHERE i.product_id = ?
		  ORDER BY s.name ASC, i.store_id ASC`,
		productID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertLevel inserts the level or overwrites its quantity. Reservations are kept.
func (r *repo) UpsertLevel(ctx context.Context, db *gorm.DB, productID, storeID snowflake.ID, quantity int64, now time.Time) error {
	level := domain.Level{
		ProductID: productID,
		StoreID:   storeID,
		Quantity:  int(quantity),
		UpdatedAt: now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "store_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&level).Error
}

func (r *repo) DeleteLevel(ctx context.Context, db *gorm.DB, productID, storeID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM inventory WHERE product_id = ? AND store_id = ?`,
		productID,
		storeID,
	).Error
}

func (r *repo) RefreshProductStock(ctx context.Context, db *gorm.DB, productID snowflake.ID, now time.Time) (int, error) {
	err := db.WithContext(ctx).Exec(
		`UPDATE products
		    SET stock = (SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE product_id = ?),
		        updated_at = ?
		  WHERE id = ?`,
		productID,
		now,
		productID,
	).Error
	if err != nil {
		return 0, err
	}
	var stock int
	if err := db.WithContext(ctx).Raw(`SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}
