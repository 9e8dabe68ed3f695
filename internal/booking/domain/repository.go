package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

type ListFilter struct {
	Statuses []Status
	UserID   *snowflake.ID
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, booking *Booking) error
	Update(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]Booking, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
