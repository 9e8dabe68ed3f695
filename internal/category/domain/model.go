package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultIcon = "🏷️"

type Category struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	Icon        string       `json:"icon" gorm:"type:text;not null"`
	Description string       `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Category) TableName() string { return "categories" }

// IconIsURL reports whether the icon points at an image rather than an emoji.
func (c Category) IconIsURL() bool {
	icon := strings.ToLower(strings.TrimSpace(c.Icon))
	if icon == "" {
		return false
	}
	if strings.HasPrefix(icon, "http") || strings.HasPrefix(icon, "data:") {
		return true
	}
	for _, ext := range []string{".svg", ".png", ".jpg", ".webp"} {
		if strings.HasSuffix(icon, ext) {
			return true
		}
	}
	return false
}
