package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardCounts lectura agregada para el tablero principal.
type DashboardCounts struct {
	TotalProducts  int
	LowStock       int
	OverStock      int
	TotalUnits     int
	AssetValue     decimal.Decimal // Σ current_stock × price
	MovementsToday int
	MovementsByDay map[string]int // YYYY-MM-DD → movimientos, últimos 7 días
}

// DashboardRepository consultas read-only del tablero.
type DashboardRepository interface {
	Counts(ctx context.Context, now time.Time) (DashboardCounts, error)
}
