package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, serviceType *ServiceType) error
	Update(ctx context.Context, db *gorm.DB, serviceType *ServiceType) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceType, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*ServiceType, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]ServiceType, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	ListParts(ctx context.Context, db *gorm.DB, serviceTypeID snowflake.ID) ([]Part, error)
	UpsertPart(ctx context.Context, db *gorm.DB, serviceTypeID, productID snowflake.ID, quantity int64, now time.Time) error
	DeletePart(ctx context.Context, db *gorm.DB, serviceTypeID, productID snowflake.ID) error
}
