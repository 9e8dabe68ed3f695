package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/internal/association"
	"github.com/smallbiznis/carhouse/internal/pricing"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) (*Response, error)

	ListParts(ctx context.Context, id string) ([]PartResponse, error)
	SyncParts(ctx context.Context, req SyncPartsRequest) (*SyncResult, error)

	// CatalogFor returns the base price and the bundled parts at their current prices.
	CatalogFor(ctx context.Context, id string) (*Catalog, error)
}

// PartsLocker serialises parts synchronisation per service type. ok is false
// when another sync holds the lock.
type PartsLocker interface {
	LockParts(ctx context.Context, serviceTypeID string) (unlock func(context.Context), ok bool, err error)
}

type ListRequest struct {
	ActiveOnly bool
}

type PartInput struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CreateRequest struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	DurationMinutes *int             `json:"duration_minutes"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	Icon            string           `json:"icon"`
	Position        int              `json:"position"`
	IsActive        *bool            `json:"is_active"`
	// Parts, when not nil, replaces the bundled parts after the service type is saved.
	Parts []PartInput `json:"parts"`
}

type UpdateRequest struct {
	ID              string           `json:"-"`
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	DurationMinutes *int             `json:"duration_minutes"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	Icon            *string          `json:"icon"`
	Position        *int             `json:"position"`
	IsActive        *bool            `json:"is_active"`
	Parts           []PartInput      `json:"parts"`
}

type SyncPartsRequest struct {
	ServiceTypeID string      `json:"-"`
	Parts         []PartInput `json:"parts"`
}

type PartResponse struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int64           `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	InStock      bool            `json:"in_stock"`
	PriceDisplay string          `json:"price_display,omitempty"`
}

type SyncResult struct {
	association.Result
	Parts []PartResponse `json:"parts"`
}

type Response struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	DurationDisplay string           `json:"duration_display"`
	BasePrice       *decimal.Decimal `json:"base_price,omitempty"`
	Icon            string           `json:"icon"`
	Position        int              `json:"position"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	// Sync is set when the request carried parts.
	Sync *SyncResult `json:"sync,omitempty"`
}

type Catalog struct {
	ServiceTypeID string
	Name          string
	BasePrice     decimal.Decimal
	Items         []pricing.LineItem
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrNameTooLong        = errors.New("name_too_long")
	ErrDescriptionTooLong = errors.New("description_too_long")
	ErrInvalidDuration    = errors.New("invalid_duration")
	ErrInvalidBasePrice   = errors.New("invalid_base_price")
	ErrInvalidProductID   = errors.New("invalid_product_id")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrDuplicateProduct   = errors.New("duplicate_product")
	ErrProductNotFound    = errors.New("product_not_found")
	ErrCodeTaken          = errors.New("code_taken")
	ErrNotFound           = errors.New("not_found")
	ErrSyncInProgress     = errors.New("parts_sync_in_progress")
	// ErrPartsSyncFailed means the service type was saved but its parts were
	// only partly updated. The wrapped association.PartialError says how far it got.
	ErrPartsSyncFailed = errors.New("parts_sync_failed")
)
