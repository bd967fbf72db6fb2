package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. SKU vacío = se genera desde la categoría.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	CategoryID   string          `json:"category_id"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	MinStock     int             `json:"min_stock"`
	CurrentStock int             `json:"current_stock"` // stock inicial, se registra como ADJUST_IN
	IsConsumable bool            `json:"is_consumable"`
	Condition    string          `json:"condition"`
	Image        string          `json:"image"`
}

// UpdateProductRequest actualización parcial. CurrentStock se aplica como ajuste del ledger.
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	CategoryID   *string          `json:"category_id"`
	Unit         *string          `json:"unit"`
	Price        *decimal.Decimal `json:"price"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	MinStock     *int             `json:"min_stock"`
	CurrentStock *int             `json:"current_stock"`
	IsConsumable *bool            `json:"is_consumable"`
	Condition    *string          `json:"condition"`
	Image        *string          `json:"image"`
}

// ProductLocationResponse stock de un producto en una ubicación.
type ProductLocationResponse struct {
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string                    `json:"id"`
	SKU          string                    `json:"sku"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	CategoryID   string                    `json:"category_id"`
	Unit         string                    `json:"unit"`
	Price        decimal.Decimal           `json:"price"`
	CostPrice    decimal.Decimal           `json:"cost_price"`
	MinStock     int                       `json:"min_stock"`
	CurrentStock int                       `json:"current_stock"`
	StockStatus  string                    `json:"stock_status"`
	IsConsumable bool                      `json:"is_consumable"`
	Condition    string                    `json:"condition,omitempty"`
	Image        string                    `json:"image,omitempty"`
	Locations    []ProductLocationResponse `json:"locations,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NextSKUResponse salida de GET /api/products/next-sku.
type NextSKUResponse struct {
	SKU string `json:"sku"`
}
