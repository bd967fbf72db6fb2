// Package analytics contiene los casos de uso de lectura agregada del tablero principal.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// DashboardCacheKey clave del resumen en la caché de estadísticas.
const DashboardCacheKey = "stats:dashboard"

// DashboardUseCase genera el resumen de inventario, ventas del mes y préstamos.
//
// Fuentes: DashboardRepository, SaleRepository.Summary y LoanRepository.CountByStatus.
// El resultado se guarda en StatsCache hasta el próximo commit del ledger o hasta que expire el TTL.
type DashboardUseCase struct {
	dashRepo repository.DashboardRepository
	saleRepo repository.SaleRepository
	loanRepo repository.LoanRepository
	cache    ports.StatsCache
	ttl      time.Duration
	now      func() time.Time
}

// NewDashboardUseCase construye el caso de uso. cache nil = sin caché.
func NewDashboardUseCase(
	dashRepo repository.DashboardRepository,
	saleRepo repository.SaleRepository,
	loanRepo repository.LoanRepository,
	cache ports.StatsCache,
	ttl time.Duration,
) *DashboardUseCase {
	if cache == nil {
		cache = ports.NopCache{}
	}
	return &DashboardUseCase{
		dashRepo: dashRepo,
		saleRepo: saleRepo,
		loanRepo: loanRepo,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetSummary construye el DashboardResponse.
//
// Tres llamadas en paralelo:
//  1. Counts(now)          → productos, stock, movimientos
//  2. Summary(mes)         → ventas del mes
//  3. CountByStatus()      → préstamos activos y vencidos
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardResponse, error) {
	var cached dto.DashboardResponse
	if uc.cache.Get(ctx, DashboardCacheKey, &cached) {
		return &cached, nil
	}

	now := uc.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type countsResult struct {
		counts repository.DashboardCounts
		err    error
	}
	type salesResult struct {
		summary repository.SalesSummary
		err     error
	}
	type loansResult struct {
		byStatus map[entity.LoanStatus]int
		err      error
	}

	countsCh := make(chan countsResult, 1)
	salesCh := make(chan salesResult, 1)
	loansCh := make(chan loansResult, 1)

	go func() {
		c, err := uc.dashRepo.Counts(ctx, now)
		countsCh <- countsResult{c, err}
	}()
	go func() {
		s, err := uc.saleRepo.Summary(ctx, monthStart, now)
		salesCh <- salesResult{s, err}
	}()
	go func() {
		m, err := uc.loanRepo.CountByStatus(ctx)
		loansCh <- loansResult{m, err}
	}()

	counts := <-countsCh
	sales := <-salesCh
	loans := <-loansCh

	if counts.err != nil {
		return nil, fmt.Errorf("dashboard: inventario: %w", counts.err)
	}
	if sales.err != nil {
		return nil, fmt.Errorf("dashboard: ventas del mes: %w", sales.err)
	}
	if loans.err != nil {
		return nil, fmt.Errorf("dashboard: préstamos: %w", loans.err)
	}

	out := &dto.DashboardResponse{
		TotalProducts:  counts.counts.TotalProducts,
		LowStock:       counts.counts.LowStock,
		OverStock:      counts.counts.OverStock,
		TotalUnits:     counts.counts.TotalUnits,
		AssetValue:     counts.counts.AssetValue.Round(2),
		MovementsToday: counts.counts.MovementsToday,
		MonthlyRevenue: sales.summary.Revenue.Round(2),
		MonthlySales:   sales.summary.Count,
		ActiveLoans:    loans.byStatus[entity.LoanActive],
		OverdueLoans:   loans.byStatus[entity.LoanOverdue],
		Chart:          lastDays(now, 7, counts.counts.MovementsByDay),
	}
	uc.cache.Set(ctx, DashboardCacheKey, out, uc.ttl)
	return out, nil
}

// lastDays rellena con ceros los días sin movimientos, del más antiguo al más reciente.
func lastDays(now time.Time, n int, byDay map[string]int) []dto.DailyCount {
	out := make([]dto.DailyCount, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, dto.DailyCount{Date: d, Count: byDay[d]})
	}
	return out
}
