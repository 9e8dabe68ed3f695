package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const DefaultIcon = "🔧"

type ServiceType struct {
	ID              snowflake.ID     `json:"id" gorm:"primaryKey"`
	Code            string           `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name            string           `json:"name" gorm:"type:text;not null"`
	Description     string           `json:"description" gorm:"type:text;not null"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	BasePrice       *decimal.Decimal `json:"base_price,omitempty" gorm:"type:numeric(12,2)"`
	Icon            string           `json:"icon" gorm:"type:text;not null"`
	Position        int              `json:"position" gorm:"column:display_position;not null"`
	IsActive        bool             `json:"is_active" gorm:"not null"`
	CreatedAt       time.Time        `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time        `json:"updated_at" gorm:"not null"`
}

func (ServiceType) TableName() string { return "service_types" }

// Base returns the base price, zero when unset.
func (s ServiceType) Base() decimal.Decimal {
	if s.BasePrice == nil {
		return decimal.Zero
	}
	return *s.BasePrice
}

type ServiceTypeProduct struct {
	ServiceTypeID snowflake.ID `gorm:"primaryKey"`
	ProductID     snowflake.ID `gorm:"primaryKey"`
	Quantity      int64        `gorm:"not null"`
	CreatedAt     time.Time    `gorm:"not null"`
	UpdatedAt     time.Time    `gorm:"not null"`
}

func (ServiceTypeProduct) TableName() string { return "service_type_products" }

// Part is a bundled product joined with its current catalog values.
type Part struct {
	ServiceTypeID snowflake.ID
	ProductID     snowflake.ID
	Quantity      int64
	Name          string
	Brand         string
	Price         decimal.Decimal
	Stock         int
}
