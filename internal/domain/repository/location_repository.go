package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para Location.
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	Update(ctx context.Context, location *entity.Location) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Location, error)
	// HasDependents indica si la ubicación tiene hijos, stock distinto de cero o movimientos.
	HasDependents(ctx context.Context, id string) (bool, error)
}

// ProductLocationRepository stock por (producto, ubicación).
type ProductLocationRepository interface {
	// Adjust suma delta en una sola operación atómica (insert-or-update); crea la fila si no existe.
	Adjust(ctx context.Context, productID, locationID string, delta int) (int, error)
	Get(ctx context.Context, productID, locationID string) (*entity.ProductLocation, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.ProductLocation, error)
}
