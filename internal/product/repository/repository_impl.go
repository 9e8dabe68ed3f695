package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/product/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

const productColumns = `id, category_id, name, brand, car_model, price, stock, rating, description, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Brand,
		product.CarModel,
		product.Price,
		product.Stock,
		product.Rating,
		product.Description,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET category_id = ?, name = ?, brand = ?, car_model = ?, price = ?, stock = ?, rating = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		product.CategoryID,
		product.Name,
		product.Brand,
		product.CarModel,
		product.Price,
		product.Stock,
		product.Rating,
		product.Description,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id = ?`,
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

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id IN ? ORDER BY id ASC`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Product, error) {
	var items []domain.Product
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Product{}), filter)
	stmt = option.Apply(stmt, opts...)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListFilter) (int64, error) {
	var count int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Product{}), filter).Count(&count).Error
	return count, err
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if filter.CategoryID != nil {
		stmt = stmt.Where("category_id = ?", *filter.CategoryID)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "name", Operator: option.LIKE, Value: name}).Apply(stmt)
	}
	if brand := strings.TrimSpace(filter.Brand); brand != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "brand", Operator: option.LIKE, Value: brand}).Apply(stmt)
	}
	if filter.MaxStock != nil {
		stmt = stmt.Where("stock < ?", *filter.MaxStock)
	}
	return stmt
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_images WHERE product_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM products WHERE id = ?`, id).Error
	})
}

func (r *repo) InsertImage(ctx context.Context, db *gorm.DB, image *domain.ProductImage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO product_images (id, product_id, url, alt_text, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		image.ID,
		image.ProductID,
		image.URL,
		image.AltText,
		image.Position,
		image.CreatedAt,
	).Error
}

func (r *repo) ListImages(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) ([]domain.ProductImage, error) {
	if len(productIDs) == 0 {
		return []domain.ProductImage{}, nil
	}
	var items []domain.ProductImage
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, url, alt_text, position, created_at
		 FROM product_images WHERE product_id IN ? ORDER BY product_id ASC, position ASC, id ASC`,
		productIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
