package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// ProductFilter criterios de listado de productos.
type ProductFilter struct {
	Search      string // coincide con nombre o SKU
	CategoryID  string
	CategoryIDs []string // visibilidad; nil = sin restricción
	Status      string   // LOW | IN_STOCK | OVER_STOCK
	Limit       int
	Offset      int
}

// ProductRepository define el puerto de persistencia para Product.
// CurrentStock solo cambia vía AdjustStock; Update ignora ese campo.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	// LastSKUWithPrefix devuelve el mayor SKU (orden lexicográfico) que empieza por prefix+"-", o "".
	LastSKUWithPrefix(ctx context.Context, prefix string) (string, error)
	// AdjustStock suma delta a CurrentStock solo si el resultado no es negativo y devuelve el nuevo valor.
	// Falla con *domain.InsufficientStockError o ErrNotFound.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	// HasHistory indica si algún movimiento, préstamo o venta referencia el producto.
	HasHistory(ctx context.Context, id string) (bool, error)
}
