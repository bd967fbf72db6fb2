package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, description, category_id, unit, price, cost_price, min_stock,
	current_stock, is_consumable, condition, image, created_by, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var categoryID *string
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &categoryID, &p.Unit, &p.Price, &p.CostPrice,
		&p.MinStock, &p.CurrentStock, &p.IsConsumable, &p.Condition, &p.Image, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryID = deref(categoryID)
	return &p, nil
}

// Create persiste un nuevo producto. SKU duplicado devuelve ErrConflict.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, nullIfEmpty(p.CategoryID), p.Unit, p.Price, p.CostPrice,
		p.MinStock, p.CurrentStock, p.IsConsumable, p.Condition, p.Image, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	return mapErr("insert product", err)
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get product", "producto", id, err)
	}
	return p, nil
}

// GetByIDs obtiene varios productos; los IDs inexistentes se omiten.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapErr("get products", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Update actualiza un producto existente. No modifica current_stock (solo vía AdjustStock).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET sku = $2, name = $3, description = $4, category_id = $5, unit = $6, price = $7,
			cost_price = $8, min_stock = $9, is_consumable = $10, condition = $11, image = $12, updated_at = $13
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Name, p.Description, nullIfEmpty(p.CategoryID), p.Unit, p.Price,
		p.CostPrice, p.MinStock, p.IsConsumable, p.Condition, p.Image, p.UpdatedAt,
	)
	if err != nil {
		return mapErr("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("producto", p.ID)
	}
	return nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("producto", id)
	}
	return nil
}

// List lista productos con filtros y paginación, más recientes primero.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR sku ILIKE %s)", p, p))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = "+arg(f.CategoryID))
	}
	if f.CategoryIDs != nil {
		where = append(where, "category_id = ANY("+arg(f.CategoryIDs)+")")
	}
	switch f.Status {
	case inventory.StockLow:
		where = append(where, "current_stock < min_stock")
	case inventory.StockOver:
		where = append(where, "min_stock > 0 AND current_stock > 2 * min_stock")
	case inventory.StockIn:
		where = append(where, "current_stock >= min_stock AND NOT (min_stock > 0 AND current_stock > 2 * min_stock)")
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list products", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// LastSKUWithPrefix SKU PREFIX-<dígitos> de mayor número, o "" si no hay ninguno.
// Ordena por longitud antes que por texto para que ELK-1000 quede sobre ELK-999.
func (r *ProductRepo) LastSKUWithPrefix(ctx context.Context, prefix string) (string, error) {
	var sku string
	err := r.q.QueryRow(ctx, `
		SELECT sku FROM products
		WHERE starts_with(sku, $1 || '-') AND substr(sku, length($1) + 2) ~ '^[0-9]+$'
		ORDER BY length(sku) DESC, sku DESC
		LIMIT 1`,
		prefix,
	).Scan(&sku)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", mapErr("last sku", err)
	}
	return sku, nil
}

// AdjustStock actualización condicional: solo aplica si el stock resultante no es negativo.
// Sin filas afectadas se distingue entre producto inexistente y stock insuficiente.
func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var stock int
	err := r.q.QueryRow(ctx, `
		UPDATE products SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= 0
		RETURNING current_stock`, id, delta,
	).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapErr("adjust product stock", err)
	}
	var name string
	var available int
	err = r.q.QueryRow(ctx, `SELECT name, current_stock FROM products WHERE id = $1`, id).Scan(&name, &available)
	if err != nil {
		return 0, notFoundOr("adjust product stock", "producto", id, err)
	}
	return 0, &domain.InsufficientStockError{ProductID: id, ProductName: name, Available: available, Requested: -delta}
}

// HasHistory indica si algún movimiento, préstamo o venta referencia el producto.
func (r *ProductRepo) HasHistory(ctx context.Context, id string) (bool, error) {
	var has bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM movements WHERE product_id = $1)
			OR EXISTS (SELECT 1 FROM loans WHERE product_id = $1)
			OR EXISTS (SELECT 1 FROM sale_items WHERE product_id = $1)`, id,
	).Scan(&has)
	if err != nil {
		return false, mapErr("product history", err)
	}
	return has, nil
}
