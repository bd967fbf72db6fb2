package billing

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// SaleQueryUseCase consultas de ventas registradas.
type SaleQueryUseCase struct {
	saleRepo repository.SaleRepository
	now      func() time.Time
}

// NewSaleQueryUseCase construye el caso de uso.
func NewSaleQueryUseCase(saleRepo repository.SaleRepository) *SaleQueryUseCase {
	return &SaleQueryUseCase{saleRepo: saleRepo, now: time.Now}
}

// GetByID devuelve la venta con sus líneas.
func (uc *SaleQueryUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToSaleResponse(s)
	return &out, nil
}

// List lista ventas (sin líneas), más recientes primero.
func (uc *SaleQueryUseCase) List(ctx context.Context, filter repository.SaleFilter) ([]dto.SaleResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	list, err := uc.saleRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, ToSaleResponse(s))
	}
	return out, nil
}

// Stats ingresos y número de ventas del mes y del día en curso.
func (uc *SaleQueryUseCase) Stats(ctx context.Context) (*dto.SalesStatsResponse, error) {
	now := uc.now()
	month, err := uc.saleRepo.Summary(ctx, MonthStart(now), now)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := uc.saleRepo.Summary(ctx, dayStart, now)
	if err != nil {
		return nil, err
	}
	return &dto.SalesStatsResponse{
		MonthlyRevenue: month.Revenue,
		MonthlyCount:   month.Count,
		TodayRevenue:   today.Revenue,
		TodayCount:     today.Count,
	}, nil
}

// MonthStart primer instante del mes de t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ToSaleResponse convierte una venta a DTO.
func ToSaleResponse(s *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:           s.ID,
		InvoiceCode:  s.InvoiceCode,
		CustomerName: s.CustomerName,
		TotalAmount:  s.TotalAmount,
		SaleDate:     s.SaleDate,
		CreatedBy:    s.CreatedBy,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Qty:          it.Qty,
			SellingPrice: it.SellingPrice,
			CostPrice:    it.CostPrice,
			Subtotal:     it.Subtotal(),
		})
	}
	return out
}
