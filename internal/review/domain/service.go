package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

// Service moderates customer reviews. Reviews are written by the storefront;
// the admin side only lists them and hides or shows them.
type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	SetVisibility(ctx context.Context, id string, visible bool) (*Response, error)
}

type ListRequest struct {
	pagination.Pagination
	ProductID string
	Visible   *bool
}

type ListResponse struct {
	pagination.PageInfo
	Reviews []Response `json:"reviews"`
}

type Response struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	UserID       *string   `json:"user_id,omitempty"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	IsVisible    bool      `json:"is_visible"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidProduct = errors.New("invalid_product")
	ErrNotFound       = errors.New("not_found")
)
