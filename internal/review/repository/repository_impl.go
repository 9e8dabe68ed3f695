package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/review/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

const reviewSelect = `r.id, r.product_id, r.user_id, r.rating, r.comment, r.is_visible, r.created_at, r.updated_at,
	COALESCE(p.name, '') AS product_name, COALESCE(u.full_name, '') AS reviewer_name`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, review *domain.Review) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO reviews (id, product_id, user_id, rating, comment, is_visible, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.IsVisible,
		review.CreatedAt,
		review.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Review, error) {
	var review domain.Review
	err := db.WithContext(ctx).Raw(
		`SELECT `+reviewSelect+`
		   FROM reviews r
		   LEFT JOIN products p ON p.id = r.product_id
		   LEFT JOIN profiles u ON u.id = r.user_id
		  WHERE r.id = ?`,
		id,
	).Scan(&review).Error
	if err != nil {
		return nil, err
	}
	if review.ID == 0 {
		return nil, nil
	}
	return &review, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Review, error) {
	var items []domain.Review
	stmt := db.WithContext(ctx).
		Table("reviews r").
		Select(reviewSelect).
		Joins("LEFT JOIN products p ON p.id = r.product_id").
		Joins("LEFT JOIN profiles u ON u.id = r.user_id")

	if filter.ProductID != nil {
		stmt = stmt.Where("r.product_id = ?", *filter.ProductID)
	}
	if filter.Visible != nil {
		stmt = stmt.Where("r.is_visible = ?", *filter.Visible)
	}
	stmt = option.Apply(stmt.Order("r.created_at DESC").Order("r.id DESC"), opts...)

	if err := stmt.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetVisibility(ctx context.Context, db *gorm.DB, id snowflake.ID, visible bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE reviews SET is_visible = ?, updated_at = ? WHERE id = ?`,
		visible,
		now,
		id,
	).Error
}
