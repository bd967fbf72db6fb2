package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condiciones físicas de un producto.
const (
	ConditionNew         = "NEW"
	ConditionUsed        = "USED"
	ConditionRefurbished = "REFURBISHED"
	ConditionDamaged     = "DAMAGED"
)

// Product representa un producto del inventario.
// CurrentStock es el agregado desnormalizado: stock por ubicación más stock sin ubicar.
// Solo el motor de movimientos lo modifica.
type Product struct {
	ID           string
	SKU          string // único
	Name         string
	Description  string
	CategoryID   string
	Unit         string
	Price        decimal.Decimal // precio de lista
	CostPrice    decimal.Decimal
	MinStock     int
	CurrentStock int
	IsConsumable bool
	Condition    string
	Image        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidCondition indica si c es una condición conocida (vacío se acepta).
func ValidCondition(c string) bool {
	switch c {
	case "", ConditionNew, ConditionUsed, ConditionRefurbished, ConditionDamaged:
		return true
	}
	return false
}
