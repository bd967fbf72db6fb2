package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale cabecera de factura de punto de venta. Inmutable una vez creada.
type Sale struct {
	ID           string
	InvoiceCode  string // INV-YYYYMMDD-NNN, único
	CustomerName string
	TotalAmount  decimal.Decimal
	SaleDate     time.Time
	CreatedBy    string
	Items        []SaleItem
	CreatedAt    time.Time
}

// SaleItem línea de factura con snapshot del costo.
type SaleItem struct {
	ID           string
	SaleID       string
	ProductID    string
	ProductName  string // solo lectura
	Qty          int
	SellingPrice decimal.Decimal
	CostPrice    decimal.Decimal
}

// Subtotal qty × precio de venta.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.SellingPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// ComputeTotal suma los subtotales de las líneas.
func ComputeTotal(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
