package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.DashboardRepository = (*DashboardRepo)(nil)

// DashboardRepo consultas de solo lectura del tablero.
type DashboardRepo struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository construye el adaptador del tablero.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepo {
	return &DashboardRepo{pool: pool}
}

// Counts agregados de inventario y movimientos de los últimos 7 días.
// Los días se agrupan en la zona horaria de now.
func (r *DashboardRepo) Counts(ctx context.Context, now time.Time) (repository.DashboardCounts, error) {
	var c repository.DashboardCounts
	const productsQuery = `
	SELECT
	    COUNT(*)                                                              AS total_products,
	    COUNT(*) FILTER (WHERE current_stock < min_stock)                     AS low_stock,
	    COUNT(*) FILTER (WHERE min_stock > 0 AND current_stock > 2 * min_stock) AS over_stock,
	    COALESCE(SUM(current_stock), 0)                                       AS total_units,
	    COALESCE(SUM(current_stock * price), 0)                               AS asset_value
	FROM products`
	if err := r.pool.QueryRow(ctx, productsQuery).Scan(
		&c.TotalProducts, &c.LowStock, &c.OverStock, &c.TotalUnits, &c.AssetValue,
	); err != nil {
		return c, fmt.Errorf("dashboard.Counts productos: %w", err)
	}

	_, offset := now.Zone()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	since := dayStart.AddDate(0, 0, -6)
	const byDayQuery = `
	SELECT to_char((created_at AT TIME ZONE 'UTC') + make_interval(secs => $2), 'YYYY-MM-DD') AS day,
	       COUNT(*)
	FROM movements
	WHERE created_at >= $1
	GROUP BY day`
	rows, err := r.pool.Query(ctx, byDayQuery, since, float64(offset))
	if err != nil {
		return c, fmt.Errorf("dashboard.Counts movimientos: %w", err)
	}
	defer rows.Close()
	c.MovementsByDay = map[string]int{}
	today := now.Format("2006-01-02")
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return c, fmt.Errorf("scan movimientos por día: %w", err)
		}
		c.MovementsByDay[day] = n
		if day == today {
			c.MovementsToday = n
		}
	}
	return c, rows.Err()
}
