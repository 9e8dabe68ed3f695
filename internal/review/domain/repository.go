package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

type ListFilter struct {
	ProductID *snowflake.ID
	Visible   *bool
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, review *Review) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Review, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]Review, error)
	SetVisibility(ctx context.Context, db *gorm.DB, id snowflake.ID, visible bool, now time.Time) error
}
