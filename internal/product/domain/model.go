package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const DefaultLowStockThreshold = 10

type Product struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	CategoryID  *snowflake.ID   `json:"category_id,omitempty" gorm:"index"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	Brand       string          `json:"brand" gorm:"type:text;not null"`
	CarModel    string          `json:"car_model" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	Rating      float64         `json:"rating" gorm:"type:numeric(2,1);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`

	Images []ProductImage `json:"images,omitempty" gorm:"-"`
}

func (Product) TableName() string { return "products" }

// IsLowStock reports whether stock has fallen below threshold.
func (p Product) IsLowStock(threshold int) bool {
	return p.Stock < threshold
}

type ProductImage struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductID snowflake.ID `json:"product_id" gorm:"not null;index"`
	URL       string       `json:"url" gorm:"type:text;not null"`
	AltText   string       `json:"alt_text" gorm:"type:text;not null"`
	Position  int          `json:"position" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (ProductImage) TableName() string { return "product_images" }
