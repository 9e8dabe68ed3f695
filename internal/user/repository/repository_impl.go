package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/user/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO profiles (id, email, full_name, phone, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.Phone,
		profile.Role,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	if profile == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE profiles SET email = ?, full_name = ?, phone = ?, role = ?, updated_at = ? WHERE id = ?`,
		profile.Email,
		profile.FullName,
		profile.Phone,
		profile.Role,
		profile.UpdatedAt,
		profile.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, full_name, phone, role, created_at, updated_at FROM profiles WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	var items []domain.Profile
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, full_name, phone, role, created_at, updated_at FROM profiles WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Profile, error) {
	var items []domain.Profile
	stmt := db.WithContext(ctx).Model(&domain.Profile{})
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		stmt = stmt.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}
	stmt = option.Apply(stmt, opts...)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateAdmin(ctx context.Context, db *gorm.DB, admin *domain.Admin) error {
	return db.WithContext(ctx).Create(admin).Error
}

func (r *repo) DeleteAdmin(ctx context.Context, db *gorm.DB, userID snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM admins WHERE user_id = ?`, userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindAdminByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Admin, error) {
	var items []domain.Admin
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) ListAdminsByUserIDs(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID) ([]domain.Admin, error) {
	if len(userIDs) == 0 {
		return []domain.Admin{}, nil
	}
	var items []domain.Admin
	if err := db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
