package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stocked item. Stock may go negative: sales are never blocked
// by inventory-count accuracy, and reorder_level is informational only.
type Product struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	BuyingPrice  decimal.Decimal `json:"buyingPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Stock        int64           `json:"stock"`
	ReorderLevel int64           `json:"reorderLevel"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CreateProductRequest is the boundary payload for product creation.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category"`
	BuyingPrice  decimal.Decimal `json:"buyingPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Stock        int64           `json:"stock"`
	ReorderLevel int64           `json:"reorderLevel" validate:"gte=0"`
}

// UpdateProductRequest carries a partial update; nil fields are untouched.
type UpdateProductRequest struct {
	Name         *string          `json:"name,omitempty"`
	Category     *string          `json:"category,omitempty"`
	BuyingPrice  *decimal.Decimal `json:"buyingPrice,omitempty"`
	SellingPrice *decimal.Decimal `json:"sellingPrice,omitempty"`
	Stock        *int64           `json:"stock,omitempty"`
	ReorderLevel *int64           `json:"reorderLevel,omitempty" validate:"omitempty,gte=0"`
}

// ListProductsRequest filters the product list.
type ListProductsRequest struct {
	Search string `json:"search"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
