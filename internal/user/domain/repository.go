package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

type ListFilter struct {
	Role   Role
	Search string
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, profile *Profile) error
	Update(ctx context.Context, db *gorm.DB, profile *Profile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Profile, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Profile, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]Profile, error)

	CreateAdmin(ctx context.Context, db *gorm.DB, admin *Admin) error
	// DeleteAdmin reports whether a grant was removed.
	DeleteAdmin(ctx context.Context, db *gorm.DB, userID snowflake.ID) (bool, error)
	FindAdminByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Admin, error)
	ListAdminsByUserIDs(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID) ([]Admin, error)
}
