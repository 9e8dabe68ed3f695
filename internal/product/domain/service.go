package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id string) error
	AddImage(ctx context.Context, req AddImageRequest) (*ImageResponse, error)
	// ListByIDs returns the products that exist among ids with their current prices.
	ListByIDs(ctx context.Context, ids []string) ([]Product, error)
}

type ListRequest struct {
	pagination.Pagination
	CategoryID   string
	Name         string
	Brand        string
	LowStockOnly bool
	SortBy       string
	OrderBy      string
}

type ListResponse struct {
	pagination.PageInfo
	Products []Response `json:"products"`
}

type CreateRequest struct {
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	CarModel    string          `json:"car_model"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Rating      float64         `json:"rating"`
	Description string          `json:"description"`
}

type UpdateRequest struct {
	ID          string           `json:"-"`
	CategoryID  *string          `json:"category_id"`
	Name        *string          `json:"name"`
	Brand       *string          `json:"brand"`
	CarModel    *string          `json:"car_model"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Rating      *float64         `json:"rating"`
	Description *string          `json:"description"`
}

type AddImageRequest struct {
	ProductID string `json:"-"`
	URL       string `json:"url"`
	AltText   string `json:"alt_text"`
	Position  int    `json:"position"`
}

type ImageResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	AltText  string `json:"alt_text"`
	Position int    `json:"position"`
}

type Response struct {
	ID           string          `json:"id"`
	CategoryID   *string         `json:"category_id,omitempty"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	CarModel     string          `json:"car_model"`
	Price        decimal.Decimal `json:"price"`
	PriceDisplay string          `json:"price_display,omitempty"`
	Stock        int             `json:"stock"`
	LowStock     bool            `json:"low_stock"`
	Rating       float64         `json:"rating"`
	Description  string          `json:"description"`
	Images       []ImageResponse `json:"images"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidCategory    = errors.New("invalid_category")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidBrand       = errors.New("invalid_brand")
	ErrNameTooLong        = errors.New("name_too_long")
	ErrDescriptionTooLong = errors.New("description_too_long")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidStock       = errors.New("invalid_stock")
	ErrInvalidRating      = errors.New("invalid_rating")
	ErrInvalidImageURL    = errors.New("invalid_image_url")
	ErrNotFound           = errors.New("not_found")
)
