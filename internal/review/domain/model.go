package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	ProductID snowflake.ID  `json:"product_id" gorm:"not null;index"`
	UserID    *snowflake.ID `json:"user_id,omitempty" gorm:"index"`
	Rating    int           `json:"rating" gorm:"not null"`
	Comment   string        `json:"comment" gorm:"type:text;not null"`
	IsVisible bool          `json:"is_visible" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"not null"`

	ProductName  string `json:"product_name,omitempty" gorm:"->;-:migration"`
	ReviewerName string `json:"reviewer_name,omitempty" gorm:"->;-:migration"`
}

func (Review) TableName() string { return "reviews" }
