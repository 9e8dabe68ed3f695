package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusScheduled, StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Terminal statuses accept no further changes.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Booking struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	UserID        *snowflake.ID `json:"user_id,omitempty" gorm:"index"`
	ServiceTypeID *snowflake.ID `json:"service_type_id,omitempty" gorm:"index"`
	ServiceType   string        `json:"service_type" gorm:"type:text;not null"`
	ScheduledDate time.Time     `json:"scheduled_date" gorm:"not null"`
	VehicleMake   string        `json:"vehicle_make" gorm:"type:text;not null"`
	VehicleModel  string        `json:"vehicle_model" gorm:"type:text;not null"`
	VehicleYear   *int          `json:"vehicle_year,omitempty"`
	Status        Status        `json:"status" gorm:"type:text;not null"`
	Notes         string        `json:"notes" gorm:"type:text;not null"`
	CreatedAt     time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"not null"`

	CustomerEmail string `json:"customer_email,omitempty" gorm:"->;-:migration"`
	CustomerName  string `json:"customer_name,omitempty" gorm:"->;-:migration"`
}

func (Booking) TableName() string { return "bookings" }

// CanBeCancelled is true until work on the vehicle has started.
func (b Booking) CanBeCancelled() bool {
	return b.Status == StatusScheduled || b.Status == StatusPending
}

func (b Booking) IsUpcoming(now time.Time) bool {
	return b.Status == StatusScheduled && b.ScheduledDate.After(now)
}

// VehicleInfo renders make, model and year, or "N/A" when none are set.
func (b Booking) VehicleInfo() string {
	parts := make([]string, 0, 3)
	if b.VehicleMake != "" {
		parts = append(parts, b.VehicleMake)
	}
	if b.VehicleModel != "" {
		parts = append(parts, b.VehicleModel)
	}
	if b.VehicleYear != nil {
		parts = append(parts, strconv.Itoa(*b.VehicleYear))
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, " ")
}
