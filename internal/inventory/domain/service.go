package domain

import (
	"context"
	"errors"
	"time"
)

// Service keeps per-store stock. A product's catalog stock is the sum of its
// store quantities once any store level is written.
type Service interface {
	ListStores(ctx context.Context) ([]StoreResponse, error)
	CreateStore(ctx context.Context, req CreateStoreRequest) (*StoreResponse, error)
	ListLevels(ctx context.Context, productID string) (*StockResponse, error)
	UpdateLevel(ctx context.Context, req UpdateLevelRequest) (*StockResponse, error)
	SyncLevels(ctx context.Context, req SyncLevelsRequest) (*StockResponse, error)
}

type CreateStoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type UpdateLevelRequest struct {
	ProductID string `json:"-"`
	StoreID   string `json:"-"`
	Quantity  int64  `json:"quantity"`
}

type LevelInput struct {
	StoreID  string `json:"store_id"`
	Quantity int64  `json:"quantity"`
}

// SyncLevelsRequest replaces every store level of a product. Stores not
// listed lose their level.
type SyncLevelsRequest struct {
	ProductID string       `json:"-"`
	Levels    []LevelInput `json:"levels"`
}

type StoreResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LevelResponse struct {
	StoreID   string    `json:"store_id"`
	StoreName string    `json:"store_name"`
	Quantity  int       `json:"quantity"`
	Reserved  int       `json:"reserved"`
	Available int       `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StockResponse struct {
	ProductID  string          `json:"product_id"`
	TotalStock int             `json:"total_stock"`
	LowStock   bool            `json:"low_stock"`
	Levels     []LevelResponse `json:"levels"`
}

var (
	ErrInvalidStoreName    = errors.New("invalid_store_name")
	ErrStoreNameTooLong    = errors.New("store_name_too_long")
	ErrStoreNameTaken      = errors.New("store_name_taken")
	ErrInvalidProductID    = errors.New("invalid_product_id")
	ErrInvalidStoreID      = errors.New("invalid_store_id")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrDuplicateStore      = errors.New("duplicate_store")
	ErrProductNotFound     = errors.New("product_not_found")
	ErrStoreNotFound       = errors.New("store_not_found")
	ErrInventorySyncFailed = errors.New("inventory_sync_failed")
)
