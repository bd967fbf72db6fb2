package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta.
type SaleItemRequest struct {
	ProductID    string          `json:"product_id"`
	Qty          int             `json:"qty"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CustomerName string            `json:"customer_name"`
	Items        []SaleItemRequest `json:"items"`
}

// SaleItemResponse línea de una venta registrada.
type SaleItemResponse struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	Qty          int             `json:"qty"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// SaleResponse factura con sus líneas.
type SaleResponse struct {
	ID           string             `json:"id"`
	InvoiceCode  string             `json:"invoice_code"`
	CustomerName string             `json:"customer_name,omitempty"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	SaleDate     time.Time          `json:"sale_date"`
	CreatedBy    string             `json:"created_by"`
	Items        []SaleItemResponse `json:"items,omitempty"`
}

// SalesStatsResponse ventas del mes en curso.
type SalesStatsResponse struct {
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	MonthlyCount   int             `json:"monthly_count"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	TodayCount     int             `json:"today_count"`
}
