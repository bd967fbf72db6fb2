package dto

import "time"

// RegisterMovementRequest body para POST /api/movements.
type RegisterMovementRequest struct {
	ProductID      string `json:"product_id"`
	FromLocationID string `json:"from_location_id,omitempty"`
	ToLocationID   string `json:"to_location_id,omitempty"`
	Quantity       int    `json:"quantity"`
	Notes          string `json:"notes,omitempty"`
}

// ConsumeRequest body para POST /api/products/:id/consume.
type ConsumeRequest struct {
	FromLocationID string `json:"from_location_id,omitempty"`
	Quantity       int    `json:"quantity"`
	Notes          string `json:"notes,omitempty"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	FromLocationID string    `json:"from_location_id,omitempty"`
	ToLocationID   string    `json:"to_location_id,omitempty"`
	Quantity       int       `json:"quantity"`
	Type           string    `json:"type"`
	MovedBy        string    `json:"moved_by"`
	Notes          string    `json:"notes,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReplenishmentSuggestionDTO producto por debajo de su mínimo con la cantidad sugerida a reponer.
type ReplenishmentSuggestionDTO struct {
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku"`
	ProductName       string `json:"product_name"`
	CurrentStock      int    `json:"current_stock"`
	MinStock          int    `json:"min_stock"`
	SuggestedOrderQty int    `json:"suggested_order_qty"` // 2×mínimo − actual
	Priority          int    `json:"priority"`            // 1 = más urgente
}
