package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/order/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

const orderSelect = `SELECT o.id, o.user_id, o.status, o.total_amount, o.shipping_address, o.billing_address,
		o.created_at, o.updated_at,
		COALESCE(p.email, '') AS customer_email, COALESCE(p.full_name, '') AS customer_name
	FROM orders o
	LEFT JOIN profiles p ON p.id = o.user_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order, items []domain.OrderItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO orders (id, user_id, status, total_amount, shipping_address, billing_address, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID,
			order.UserID,
			order.Status,
			order.TotalAmount,
			order.ShippingAddress,
			order.BillingAddress,
			order.CreatedAt,
			order.UpdatedAt,
		).Error; err != nil {
			return err
		}

		for _, item := range items {
			if err := tx.Exec(
				`INSERT INTO order_items (id, order_id, product_id, sku, title, unit_price, quantity, subtotal, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.SKU,
				item.Title,
				item.UnitPrice,
				item.Quantity,
				item.Subtotal,
				item.CreatedAt,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(orderSelect+` WHERE o.id = ?`, id).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Order, error) {
	var items []domain.Order
	stmt := db.WithContext(ctx).
		Table("orders o").
		Select(`o.id, o.user_id, o.status, o.total_amount, o.shipping_address, o.billing_address,
			o.created_at, o.updated_at,
			COALESCE(p.email, '') AS customer_email, COALESCE(p.full_name, '') AS customer_name`).
		Joins("LEFT JOIN profiles p ON p.id = o.user_id")

	if filter.Status != "" {
		stmt = stmt.Where("o.status = ?", filter.Status)
	}
	if filter.UserID != nil {
		stmt = stmt.Where("o.user_id = ?", *filter.UserID)
	}
	stmt = option.Apply(stmt.Order("o.created_at DESC").Order("o.id DESC"), opts...)

	if err := stmt.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []domain.OrderItem{}, nil
	}
	var items []domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, sku, title, unit_price, quantity, subtotal, created_at
		 FROM order_items WHERE order_id IN ? ORDER BY order_id ASC, created_at ASC, id ASC`,
		orderIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		now,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM orders WHERE id = ?`, id).Error
	})
}
