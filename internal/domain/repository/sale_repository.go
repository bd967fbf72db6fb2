package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SaleFilter criterios de listado de ventas.
type SaleFilter struct {
	From, To *time.Time
	Search   string // código o cliente
	Limit    int
	Offset   int
}

// SalesSummary agregado de ventas en un rango.
type SalesSummary struct {
	Count   int
	Revenue decimal.Decimal
}

// SaleRepository define el puerto de persistencia para Sale y SaleItem.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	AddItem(ctx context.Context, item *entity.SaleItem) error
	// GetByID devuelve la cabecera con sus líneas.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, error)
	Summary(ctx context.Context, from, to time.Time) (SalesSummary, error)
}
