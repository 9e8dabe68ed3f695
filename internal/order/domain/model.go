package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Order carries a tax-inclusive total. The pre-tax subtotal and tax are
// reconstructed from it on demand.
type Order struct {
	ID              snowflake.ID      `json:"id" gorm:"primaryKey"`
	UserID          *snowflake.ID     `json:"user_id,omitempty" gorm:"index"`
	Status          Status            `json:"status" gorm:"type:text;not null"`
	TotalAmount     decimal.Decimal   `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	ShippingAddress datatypes.JSONMap `json:"shipping_address,omitempty"`
	BillingAddress  datatypes.JSONMap `json:"billing_address,omitempty"`
	CreatedAt       time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"not null"`

	CustomerEmail string      `json:"customer_email,omitempty" gorm:"->;-:migration"`
	CustomerName  string      `json:"customer_name,omitempty" gorm:"->;-:migration"`
	Items         []OrderItem `json:"items,omitempty" gorm:"-"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderID   snowflake.ID    `json:"order_id" gorm:"not null;index"`
	ProductID *snowflake.ID   `json:"product_id,omitempty"`
	SKU       string          `json:"sku" gorm:"type:text;not null"`
	Title     string          `json:"title" gorm:"type:text;not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Quantity  int64           `json:"quantity" gorm:"not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }
