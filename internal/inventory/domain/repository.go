package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateStore(ctx context.Context, db *gorm.DB, store *Store) error
	ListStores(ctx context.Context, db *gorm.DB) ([]Store, error)
	FindStoresByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Store, error)

	ListLevels(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]Level, error)
	UpsertLevel(ctx context.Context, db *gorm.DB, productID, storeID snowflake.ID, quantity int64, now time.Time) error
	DeleteLevel(ctx context.Context, db *gorm.DB, productID, storeID snowflake.ID) error
	// RefreshProductStock sets products.stock to the sum of the product's
	// store quantities and returns the new value.
	RefreshProductStock(ctx context.Context, db *gorm.DB, productID snowflake.ID, now time.Time) (int, error)
}
