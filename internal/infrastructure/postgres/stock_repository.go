package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.ProductLocationRepository = (*ProductLocationRepo)(nil)

// ProductLocationRepo stock por ubicación sobre PostgreSQL (usable con pool o tx).
type ProductLocationRepo struct {
	q Querier
}

// NewProductLocationRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewProductLocationRepository(q Querier) *ProductLocationRepo {
	return &ProductLocationRepo{q: q}
}

// Adjust suma delta con un único upsert; dos transacciones concurrentes sobre una fila
// inexistente no pueden crear filas duplicadas.
func (r *ProductLocationRepo) Adjust(ctx context.Context, productID, locationID string, delta int) (int, error) {
	var qty int
	err := r.q.QueryRow(ctx, `
		INSERT INTO product_locations (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = product_locations.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING quantity`, productID, locationID, delta,
	).Scan(&qty)
	if err != nil {
		return 0, mapErr("adjust product location", err)
	}
	return qty, nil
}

// Get obtiene el stock de un producto en una ubicación.
func (r *ProductLocationRepo) Get(ctx context.Context, productID, locationID string) (*entity.ProductLocation, error) {
	var pl entity.ProductLocation
	err := r.q.QueryRow(ctx, `
		SELECT product_id, location_id, quantity, updated_at
		FROM product_locations WHERE product_id = $1 AND location_id = $2`, productID, locationID,
	).Scan(&pl.ProductID, &pl.LocationID, &pl.Quantity, &pl.UpdatedAt)
	if err != nil {
		return nil, notFoundOr("get product location", "stock", productID+"/"+locationID, err)
	}
	return &pl, nil
}

// ListByProduct stock del producto en cada ubicación.
func (r *ProductLocationRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.ProductLocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, location_id, quantity, updated_at
		FROM product_locations WHERE product_id = $1 ORDER BY location_id`, productID)
	if err != nil {
		return nil, mapErr("list product locations", err)
	}
	defer rows.Close()
	var list []*entity.ProductLocation
	for rows.Next() {
		var pl entity.ProductLocation
		if err := rows.Scan(&pl.ProductID, &pl.LocationID, &pl.Quantity, &pl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product location: %w", err)
		}
		list = append(list, &pl)
	}
	return list, rows.Err()
}
