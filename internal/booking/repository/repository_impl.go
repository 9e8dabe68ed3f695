package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carhouse/internal/booking/domain"
	"github.com/smallbiznis/carhouse/pkg/db/option"
	"gorm.io/gorm"
)

const bookingColumns = `b.id, b.user_id, b.service_type_id, b.service_type, b.scheduled_date, b.vehicle_make,
		b.vehicle_model, b.vehicle_year, b.status, b.notes, b.created_at, b.updated_at,
		COALESCE(p.email, '') AS customer_email, COALESCE(p.full_name, '') AS customer_name`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (id, user_id, service_type_id, service_type, scheduled_date, vehicle_make,
			vehicle_model, vehicle_year, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.ServiceTypeID,
		b.ServiceType,
		b.ScheduledDate,
		b.VehicleMake,
		b.VehicleModel,
		b.VehicleYear,
		b.Status,
		b.Notes,
		b.CreatedAt,
		b.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, b *domain.Booking) error {
	if b == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE bookings
		 SET service_type_id = ?, service_type = ?, scheduled_date = ?, vehicle_make = ?, vehicle_model = ?,
		     vehicle_year = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		b.ServiceTypeID,
		b.ServiceType,
		b.ScheduledDate,
		b.VehicleMake,
		b.VehicleModel,
		b.VehicleYear,
		b.Status,
		b.Notes,
		b.UpdatedAt,
		b.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var b domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+`
		   FROM bookings b
		   LEFT JOIN profiles p ON p.id = b.user_id
		  WHERE b.id = ?`,
		id,
	).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]domain.Booking, error) {
	var items []domain.Booking
	stmt := db.WithContext(ctx).
		Table("bookings b").
		Select(bookingColumns).
		Joins("LEFT JOIN profiles p ON p.id = b.user_id")

	if len(filter.Statuses) > 0 {
		stmt = stmt.Where("b.status IN ?", filter.Statuses)
	}
	if filter.UserID != nil {
		stmt = stmt.Where("b.user_id = ?", *filter.UserID)
	}
	stmt = option.Apply(stmt.Order("b.scheduled_date DESC").Order("b.id DESC"), opts...)

	if err := stmt.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM bookings WHERE id = ?`, id).Error
}
