package inventory

// Estados de stock derivados de MinStock.
const (
	StockLow      = "LOW"
	StockIn       = "IN_STOCK"
	StockOver     = "OVER_STOCK"
	overStockMult = 2
)

// StockStatus clasifica el stock actual frente al mínimo:
// por debajo del mínimo LOW, por encima del doble OVER_STOCK, resto IN_STOCK.
func StockStatus(current, min int) string {
	switch {
	case current < min:
		return StockLow
	case min > 0 && current > overStockMult*min:
		return StockOver
	default:
		return StockIn
	}
}

// ValidStockStatus indica si s es un filtro de estado reconocido.
func ValidStockStatus(s string) bool {
	return s == StockLow || s == StockIn || s == StockOver
}
