package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusScheduled Status = "scheduled"
	StatusExpired   Status = "expired"
	StatusExhausted Status = "exhausted"
)

type Coupon struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey"`
	Code           string          `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Description    string          `json:"description" gorm:"type:text;not null"`
	DiscountType   DiscountType    `json:"discount_type" gorm:"type:text;not null"`
	DiscountValue  decimal.Decimal `json:"discount_value" gorm:"type:numeric(12,2);not null"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount" gorm:"type:numeric(12,2);not null"`
	MaxUses        *int            `json:"max_uses,omitempty"`
	UsedCount      int             `json:"used_count" gorm:"not null"`
	StartsAt       *time.Time      `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	IsActive       bool            `json:"is_active" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null"`
}

func (Coupon) TableName() string { return "coupons" }

// StatusAt reports whether the coupon can be redeemed at now, and if not, why.
// A switched-off coupon is inactive regardless of its window.
func (c Coupon) StatusAt(now time.Time) Status {
	switch {
	case !c.IsActive:
		return StatusInactive
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return StatusScheduled
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return StatusExpired
	case c.MaxUses != nil && c.UsedCount >= *c.MaxUses:
		return StatusExhausted
	default:
		return StatusActive
	}
}
