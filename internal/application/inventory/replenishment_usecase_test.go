package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

func TestReplenishment_SoloBajoMinimoOrdenadoPorDeficit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for _, p := range []entity.Product{
		{ID: "a", SKU: "A-001", Name: "Casi lleno", CurrentStock: 4, MinStock: 5},
		{ID: "b", SKU: "B-001", Name: "Vacío", CurrentStock: 1, MinStock: 10},
		{ID: "c", SKU: "C-001", Name: "Sobrado", CurrentStock: 20, MinStock: 5},
		{ID: "d", SKU: "D-001", Name: "Justo", CurrentStock: 5, MinStock: 5},
	} {
		p := p
		require.NoError(t, store.Products().Create(ctx, &p))
	}

	out, err := inventory.NewReplenishmentUseCase(store.Products()).Suggestions(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "b", out[0].ProductID)
	assert.Equal(t, 1, out[0].Priority)
	assert.Equal(t, 19, out[0].SuggestedOrderQty)

	assert.Equal(t, "a", out[1].ProductID)
	assert.Equal(t, 2, out[1].Priority)
	assert.Equal(t, 6, out[1].SuggestedOrderQty)
}
