package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/servicetype/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const serviceTypeColumns = `id, code, name, description, duration_minutes, base_price, icon, display_position, is_active, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, st *domain.ServiceType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_types (`+serviceTypeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID,
		st.Code,
		st.Name,
		st.Description,
		st.DurationMinutes,
		st.BasePrice,
		st.Icon,
		st.Position,
		st.IsActive,
		st.CreatedAt,
		st.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, st *domain.ServiceType) error {
	if st == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE service_types
		 SET code = ?, name = ?, description = ?, duration_minutes = ?, base_price = ?, icon = ?,
		     display_position = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		st.Code,
		st.Name,
		st.Description,
		st.DurationMinutes,
		st.BasePrice,
		st.Icon,
		st.Position,
		st.IsActive,
		st.UpdatedAt,
		st.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceType, error) {
	var st domain.ServiceType
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceTypeColumns+` FROM service_types WHERE id = ?`,
		id,
	).Scan(&st).Error
	if err != nil {
		return nil, err
	}
	if st.ID == 0 {
		return nil, nil
	}
	return &st, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.ServiceType, error) {
	var st domain.ServiceType
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceTypeColumns+` FROM service_types WHERE code = ?`,
		code,
	).Scan(&st).Error
	if err != nil {
		return nil, err
	}
	if st.ID == 0 {
		return nil, nil
	}
	return &st, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.ServiceType, error) {
	var items []domain.ServiceType
	stmt := db.WithContext(ctx).Model(&domain.ServiceType{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("display_position ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM service_type_products WHERE service_type_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM service_types WHERE id = ?`, id).Error
	})
}

func (r *repo) ListParts(ctx context.Context, db *gorm.DB, serviceTypeID snowflake.ID) ([]domain.Part, error) {
	var items []domain.Part
	err := db.WithContext(ctx).Raw(
		`SELECT stp.service_type_id, stp.product_id, stp.quantity,
				p.name, p.brand, p.price, p.stock
		   FROM service_type_products stp
		   JOIN products p ON p.id = stp.product_id
		  WHERE stp.service_type_id = ?
		  ORDER BY p.name ASC, stp.product_id ASC`,
		serviceTypeID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertPart inserts the link or overwrites its quantity.
func (r *repo) UpsertPart(ctx context.Context, db *gorm.DB, serviceTypeID, productID snowflake.ID, quantity int64, now time.Time) error {
	link := domain.ServiceTypeProduct{
		ServiceTypeID: serviceTypeID,
		ProductID:     productID,
		Quantity:      quantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_type_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&link).Error
}

func (r *repo) DeletePart(ctx context.Context, db *gorm.DB, serviceTypeID, productID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM service_type_products WHERE service_type_id = ? AND product_id = ?`,
		serviceTypeID,
		productID,
	).Error
}
