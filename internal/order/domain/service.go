package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	UpdateStatus(ctx context.Context, id string, status string) (*Response, error)
	Delete(ctx context.Context, id string) error
	Breakdown(ctx context.Context, id string) (*BreakdownResponse, error)
	Invoice(ctx context.Context, id string) (io.Reader, error)
}

type ItemInput struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type CreateRequest struct {
	UserID          string         `json:"user_id"`
	Items           []ItemInput    `json:"items"`
	ShippingAddress map[string]any `json:"shipping_address"`
	BillingAddress  map[string]any `json:"billing_address"`
}

type ListRequest struct {
	pagination.Pagination
	Status string
	UserID string
}

type ListResponse struct {
	pagination.PageInfo
	Orders []Response `json:"orders"`
}

type ItemResponse struct {
	ID        string          `json:"id"`
	ProductID *string         `json:"product_id,omitempty"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Response struct {
	ID              string          `json:"id"`
	UserID          *string         `json:"user_id,omitempty"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerName    string          `json:"customer_name,omitempty"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalDisplay    string          `json:"total_display,omitempty"`
	ShippingAddress map[string]any  `json:"shipping_address,omitempty"`
	BillingAddress  map[string]any  `json:"billing_address,omitempty"`
	Items           []ItemResponse  `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type BreakdownResponse struct {
	OrderID         string          `json:"order_id"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	SubtotalDisplay string          `json:"subtotal_display"`
	TaxDisplay      string          `json:"tax_display"`
	TotalDisplay    string          `json:"total_display"`
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrStatusConflict    = errors.New("status_conflict")
	ErrEmptyOrder        = errors.New("empty_order")
	ErrInvalidItem       = errors.New("invalid_item")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidUnitPrice  = errors.New("invalid_unit_price")
	ErrNotFound          = errors.New("not_found")
)
