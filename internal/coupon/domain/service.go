package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	SetActive(ctx context.Context, id string, active bool) (*Response, error)
}

type ListRequest struct {
	pagination.Pagination
	Active *bool
}

type ListResponse struct {
	pagination.PageInfo
	Coupons []Response `json:"coupons"`
}

type CreateRequest struct {
	Code           string           `json:"code"`
	Description    string           `json:"description"`
	DiscountType   string           `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	MaxUses        *int             `json:"max_uses"`
	StartsAt       *time.Time       `json:"starts_at"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	IsActive       *bool            `json:"is_active"`
}

type Response struct {
	ID                    string          `json:"id"`
	Code                  string          `json:"code"`
	Description           string          `json:"description"`
	DiscountType          string          `json:"discount_type"`
	DiscountValue         decimal.Decimal `json:"discount_value"`
	DiscountDisplay       string          `json:"discount_display"`
	MinOrderAmount        decimal.Decimal `json:"min_order_amount"`
	MinOrderAmountDisplay string          `json:"min_order_amount_display,omitempty"`
	MaxUses               *int            `json:"max_uses,omitempty"`
	UsedCount             int             `json:"used_count"`
	StartsAt              *time.Time      `json:"starts_at,omitempty"`
	ExpiresAt             *time.Time      `json:"expires_at,omitempty"`
	IsActive              bool            `json:"is_active"`
	Status                string          `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidCode           = errors.New("invalid_code")
	ErrInvalidDiscountType   = errors.New("invalid_discount_type")
	ErrInvalidDiscountValue  = errors.New("invalid_discount_value")
	ErrInvalidMinOrderAmount = errors.New("invalid_min_order_amount")
	ErrInvalidMaxUses        = errors.New("invalid_max_uses")
	ErrInvalidValidityWindow = errors.New("invalid_validity_window")
	ErrDescriptionTooLong    = errors.New("description_too_long")
	ErrCodeTaken             = errors.New("coupon_code_taken")
	ErrNotFound              = errors.New("not_found")
)

func ParseDiscountType(value string) (DiscountType, error) {
	switch DiscountType(value) {
	case DiscountPercentage, DiscountFixed:
		return DiscountType(value), nil
	default:
		return "", ErrInvalidDiscountType
	}
}
