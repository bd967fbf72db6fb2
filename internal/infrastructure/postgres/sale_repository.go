package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, invoice_code, customer_name, total_amount, sale_date, created_by, created_at`

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	if err := row.Scan(&s.ID, &s.InvoiceCode, &s.CustomerName, &s.TotalAmount, &s.SaleDate, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste la cabecera. Código duplicado devuelve ErrConflict.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.InvoiceCode, s.CustomerName, s.TotalAmount, s.SaleDate, s.CreatedBy, s.CreatedAt,
	)
	return mapErr("insert sale", err)
}

// AddItem persiste una línea de la venta.
func (r *SaleRepo) AddItem(ctx context.Context, it *entity.SaleItem) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sale_items (id, sale_id, product_id, qty, selling_price, cost_price)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		it.ID, it.SaleID, it.ProductID, it.Qty, it.SellingPrice, it.CostPrice,
	)
	return mapErr("insert sale item", err)
}

// GetByID obtiene la venta con sus líneas y el nombre actual de cada producto.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get sale", "venta", id, err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.qty, si.selling_price, si.cost_price
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY p.name`, id)
	if err != nil {
		return nil, mapErr("get sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Qty, &it.SellingPrice, &it.CostPrice); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		s.Items = append(s.Items, it)
	}
	return s, rows.Err()
}

// List cabeceras filtradas, más recientes primero (sin líneas).
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE true`
	var args []any
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND sale_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND sale_date <= $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND (invoice_code ILIKE $%d OR customer_name ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY sale_date DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list sales", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Summary número de ventas e ingresos en [from, to].
func (r *SaleRepo) Summary(ctx context.Context, from, to time.Time) (repository.SalesSummary, error) {
	var sum repository.SalesSummary
	err := r.q.QueryRow(ctx, `
		SELECT count(*), COALESCE(SUM(total_amount), 0)
		FROM sales WHERE sale_date BETWEEN $1 AND $2`, from, to,
	).Scan(&sum.Count, &sum.Revenue)
	if err != nil {
		return repository.SalesSummary{Revenue: decimal.Zero}, mapErr("sales summary", err)
	}
	return sum, nil
}
