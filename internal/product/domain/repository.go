package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

type ListFilter struct {
	CategoryID *snowflake.ID
	Name       string
	Brand      string
	// MaxStock keeps products whose stock is below the value.
	MaxStock *int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]Product, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	Count(ctx context.Context, db *gorm.DB, filter ListFilter) (int64, error)

	InsertImage(ctx context.Context, db *gorm.DB, image *ProductImage) error
	ListImages(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) ([]ProductImage, error)
}
