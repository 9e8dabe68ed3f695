package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/smallbiznis/carhouse/internal/pricing"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	UpdateStatus(ctx context.Context, id string, status string) (*Response, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Estimate(ctx context.Context, id string) (*EstimateResponse, error)
	EstimatePDF(ctx context.Context, id string) (io.Reader, error)
}

type CreateRequest struct {
	UserID        string    `json:"user_id"`
	ServiceTypeID string    `json:"service_type_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	VehicleMake   string    `json:"vehicle_make"`
	VehicleModel  string    `json:"vehicle_model"`
	VehicleYear   *int      `json:"vehicle_year"`
	Notes         string    `json:"notes"`
}

type UpdateRequest struct {
	ID            string     `json:"-"`
	ServiceTypeID *string    `json:"service_type_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	VehicleMake   *string    `json:"vehicle_make"`
	VehicleModel  *string    `json:"vehicle_model"`
	VehicleYear   *int       `json:"vehicle_year"`
	Notes         *string    `json:"notes"`
}

type ListRequest struct {
	pagination.Pagination
	// Status accepts one status or a comma separated list.
	Status string
	UserID string
}

type ListResponse struct {
	pagination.PageInfo
	Bookings []Response `json:"bookings"`
}

type Response struct {
	ID             string    `json:"id"`
	UserID         *string   `json:"user_id,omitempty"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	ServiceTypeID  *string   `json:"service_type_id,omitempty"`
	ServiceType    string    `json:"service_type"`
	ScheduledDate  time.Time `json:"scheduled_date"`
	VehicleMake    string    `json:"vehicle_make"`
	VehicleModel   string    `json:"vehicle_model"`
	VehicleYear    *int      `json:"vehicle_year,omitempty"`
	VehicleInfo    string    `json:"vehicle_info"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes"`
	CanBeCancelled bool      `json:"can_be_cancelled"`
	IsUpcoming     bool      `json:"is_upcoming"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type EstimateResponse struct {
	BookingID   string `json:"booking_id"`
	ServiceType string `json:"service_type"`
	pricing.Estimate
	BasePriceDisplay  string `json:"base_price_display"`
	PartsTotalDisplay string `json:"parts_total_display"`
	SubtotalDisplay   string `json:"subtotal_display"`
	TaxDisplay        string `json:"tax_display"`
	TotalDisplay      string `json:"total_display"`
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrServiceTypeRequired = errors.New("service_type_required")
	ErrServiceTypeInactive = errors.New("service_type_inactive")
	ErrScheduledInPast     = errors.New("scheduled_date_in_past")
	ErrInvalidVehicleYear  = errors.New("invalid_vehicle_year")
	ErrNotCancellable      = errors.New("booking_not_cancellable")
	ErrNotFound            = errors.New("not_found")
)
