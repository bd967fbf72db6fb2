package analytics_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/analytics"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

// mapCache caché en memoria con la misma semántica JSON que la de Redis.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	return ok && json.Unmarshal(raw, dest) == nil
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err == nil {
		c.data[key] = raw
		c.sets++
	}
}

func (c *mapCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string][]byte{}
}

var today = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestDashboard_ResumenYGraficoDeSieteDias(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	engine := inventory.NewMovementUseCase(memory.NewTxRunner(store), store.Products(), store.Locations(), store.Movements(), nil, nil, nil).
		WithClock(func() time.Time { return today })
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "a", SKU: "A-001", Name: "A", Price: decimal.RequireFromString("2.50"), MinStock: 5}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "b", SKU: "B-001", Name: "B", Price: decimal.NewFromInt(1)}))
	_, err := engine.AdjustStock(ctx, "a", 4, "admin", "")
	require.NoError(t, err)
	_, err = engine.AdjustStock(ctx, "b", 10, "admin", "")
	require.NoError(t, err)

	uc := analytics.NewDashboardUseCase(store.Dashboard(), store.Sales(), store.Loans(), nil, time.Minute).
		WithClock(func() time.Time { return today })
	got, err := uc.GetSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, got.TotalProducts)
	assert.Equal(t, 1, got.LowStock)
	assert.Equal(t, 14, got.TotalUnits)
	assert.True(t, decimal.NewFromInt(20).Equal(got.AssetValue), "asset value %s", got.AssetValue)
	assert.Equal(t, 2, got.MovementsToday)
	assert.Equal(t, 0, got.ActiveLoans)

	require.Len(t, got.Chart, 7)
	assert.Equal(t, "2026-03-04", got.Chart[0].Date)
	assert.Equal(t, "2026-03-10", got.Chart[6].Date)
	assert.Equal(t, 2, got.Chart[6].Count)
	assert.Equal(t, 0, got.Chart[0].Count)
}

func TestDashboard_CacheHastaElSiguienteCommit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	cache := newMapCache()
	engine := inventory.NewMovementUseCase(memory.NewTxRunner(store), store.Products(), store.Locations(), store.Movements(), nil, cache, nil).
		WithClock(func() time.Time { return today })
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: "a", SKU: "A-001", Name: "A"}))
	uc := analytics.NewDashboardUseCase(store.Dashboard(), store.Sales(), store.Loans(), cache, time.Minute).
		WithClock(func() time.Time { return today })

	first, err := uc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, first.TotalUnits)

	// Escritura directa al repositorio: no pasa por el motor y no invalida.
	_, err = store.Products().AdjustStock(ctx, "a", 3)
	require.NoError(t, err)
	cached, err := uc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.TotalUnits)
	assert.Equal(t, 1, cache.sets)

	_, err = engine.AdjustStock(ctx, "a", 5, "admin", "")
	require.NoError(t, err)
	fresh, err := uc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.TotalUnits)
	assert.Equal(t, 2, cache.sets)
}
