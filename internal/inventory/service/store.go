package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/association"
	"github.com/smallbiznis/carhouse/internal/inventory/domain"
	"gorm.io/gorm"
)

// levelStore applies association operations to the store levels of one product.
type levelStore struct {
	db        *gorm.DB
	repo      domain.Repository
	productID snowflake.ID
	now       time.Time
}

var _ association.Store[snowflake.ID] = (*levelStore)(nil)

func (s *levelStore) Delete(ctx context.Context, storeID snowflake.ID) error {
	return s.repo.DeleteLevel(ctx, s.db, s.productID, storeID)
}

func (s *levelStore) Upsert(ctx context.Context, storeID snowflake.ID, quantity int64) error {
	return s.repo.UpsertLevel(ctx, s.db, s.productID, storeID, quantity, s.now)
}
