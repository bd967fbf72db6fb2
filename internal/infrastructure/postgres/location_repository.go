package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de persistencia para ubicaciones.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `id, name, type, parent_id, description, created_at, updated_at`

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	var parentID *string
	if err := row.Scan(&l.ID, &l.Name, &l.Type, &parentID, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.ParentID = deref(parentID)
	return &l, nil
}

// Create persiste una nueva ubicación.
func (r *LocationRepo) Create(ctx context.Context, l *entity.Location) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO locations (`+locationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.Name, l.Type, nullIfEmpty(l.ParentID), l.Description, l.CreatedAt, l.UpdatedAt,
	)
	return mapErr("insert location", err)
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	l, err := scanLocation(r.q.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get location", "ubicación", id, err)
	}
	return l, nil
}

// Update actualiza una ubicación existente.
func (r *LocationRepo) Update(ctx context.Context, l *entity.Location) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE locations SET name = $2, type = $3, parent_id = $4, description = $5, updated_at = $6
		WHERE id = $1`,
		l.ID, l.Name, l.Type, nullIfEmpty(l.ParentID), l.Description, l.UpdatedAt,
	)
	if err != nil {
		return mapErr("update location", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("ubicación", l.ID)
	}
	return nil
}

// Delete elimina la ubicación; las filas de stock en cero caen en cascada.
func (r *LocationRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete location", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("ubicación", id)
	}
	return nil
}

// List todas las ubicaciones por nombre.
func (r *LocationRepo) List(ctx context.Context) ([]*entity.Location, error) {
	rows, err := r.q.Query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY name`)
	if err != nil {
		return nil, mapErr("list locations", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// HasDependents indica si la ubicación tiene hijos o stock distinto de cero.
func (r *LocationRepo) HasDependents(ctx context.Context, id string) (bool, error) {
	var has bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE parent_id = $1)
			OR EXISTS (SELECT 1 FROM product_locations WHERE location_id = $1 AND quantity <> 0)
			OR EXISTS (SELECT 1 FROM movements WHERE from_location_id = $1 OR to_location_id = $1)`, id,
	).Scan(&has)
	if err != nil {
		return false, mapErr("location dependents", err)
	}
	return has, nil
}
