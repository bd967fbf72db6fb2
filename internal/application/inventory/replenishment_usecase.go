package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	domaininv "github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// ReplenishmentUseCase lista los productos en estado LOW con la cantidad sugerida de reposición.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(productRepo repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{productRepo: productRepo}
}

// Suggestions devuelve los productos bajo mínimo ordenados por déficit relativo.
// La cantidad sugerida lleva el stock al doble del mínimo (límite de OVER_STOCK).
func (uc *ReplenishmentUseCase) Suggestions(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	products, err := uc.productRepo.List(ctx, repository.ProductFilter{Status: domaininv.StockLow, Limit: 1000})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(products))
	for _, p := range products {
		out = append(out, dto.ReplenishmentSuggestionDTO{
			ProductID:         p.ID,
			SKU:               p.SKU,
			ProductName:       p.Name,
			CurrentStock:      p.CurrentStock,
			MinStock:          p.MinStock,
			SuggestedOrderQty: 2*p.MinStock - p.CurrentStock,
		})
	}

	// Mayor déficit relativo primero; empate por déficit absoluto.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra := float64(a.MinStock-a.CurrentStock) / float64(a.MinStock)
		rb := float64(b.MinStock-b.CurrentStock) / float64(b.MinStock)
		if ra != rb {
			return ra > rb
		}
		return a.MinStock-a.CurrentStock > b.MinStock-b.CurrentStock
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
