package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Store struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Address   string       `json:"address" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Store) TableName() string { return "stores" }

// Level is the stock of one product in one store.
type Level struct {
	ProductID snowflake.ID `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	StoreID   snowflake.ID `json:"store_id" gorm:"primaryKey;autoIncrement:false"`
	Quantity  int          `json:"quantity" gorm:"not null"`
	Reserved  int          `json:"reserved" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`

	StoreName string `json:"store_name,omitempty" gorm:"->;-:migration"`
}

func (Level) TableName() string { return "inventory" }

// Available is the quantity not held by reservations, never below zero.
func (l Level) Available() int {
	if l.Reserved >= l.Quantity {
		return 0
	}
	return l.Quantity - l.Reserved
}
