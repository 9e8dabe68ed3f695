package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/association"
	"github.com/smallbiznis/carhouse/internal/servicetype/domain"
	"gorm.io/gorm"
)

// partsStore applies association operations for one service type, one
// statement per operation.
type partsStore struct {
	db            *gorm.DB
	repo          domain.Repository
	serviceTypeID snowflake.ID
	now           time.Time
}

var _ association.Store[snowflake.ID] = (*partsStore)(nil)

func (s *partsStore) Delete(ctx context.Context, productID snowflake.ID) error {
	return s.repo.DeletePart(ctx, s.db, s.serviceTypeID, productID)
}

func (s *partsStore) Upsert(ctx context.Context, productID snowflake.ID, quantity int64) error {
	return s.repo.UpsertPart(ctx, s.db, s.serviceTypeID, productID, quantity, s.now)
}
