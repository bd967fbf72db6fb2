package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo implementación del puerto CategoryRepository sobre PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository construye el adaptador de persistencia para categorías.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

const categoryColumns = `id, parent_id, name, prefix, description, created_at, updated_at`

func scanCategory(row pgx.Row) (*entity.Category, error) {
	var c entity.Category
	var parentID *string
	if err := row.Scan(&c.ID, &parentID, &c.Name, &c.Prefix, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ParentID = deref(parentID)
	return &c, nil
}

// Create persiste una nueva categoría. Nombre duplicado devuelve ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, nullIfEmpty(c.ParentID), c.Name, c.Prefix, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	return mapErr("insert category", err)
}

// GetByID obtiene una categoría por ID.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get category", "categoría", id, err)
	}
	return c, nil
}

// Update actualiza una categoría existente.
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE categories SET parent_id = $2, name = $3, prefix = $4, description = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, nullIfEmpty(c.ParentID), c.Name, c.Prefix, c.Description, c.UpdatedAt,
	)
	if err != nil {
		return mapErr("update category", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("categoría", c.ID)
	}
	return nil
}

// Delete elimina una categoría por ID.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete category", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("categoría", id)
	}
	return nil
}

// List todas las categorías por nombre.
func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, mapErr("list categories", err)
	}
	defer rows.Close()
	var list []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ProductCounts número de productos por categoría.
func (r *CategoryRepo) ProductCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category_id, count(*) FROM products
		WHERE category_id IS NOT NULL GROUP BY category_id`)
	if err != nil {
		return nil, mapErr("count products by category", err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// HasDependents indica si la categoría tiene productos o subcategorías.
func (r *CategoryRepo) HasDependents(ctx context.Context, id string) (bool, error) {
	var has bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)
			OR EXISTS (SELECT 1 FROM categories WHERE parent_id = $1)`, id,
	).Scan(&has)
	if err != nil {
		return false, mapErr("category dependents", err)
	}
	return has, nil
}
