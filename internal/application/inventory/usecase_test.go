package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

type spyCache struct{ invalidations atomic.Int32 }

func (c *spyCache) Get(context.Context, string, any) bool           { return false }
func (c *spyCache) Set(context.Context, string, any, time.Duration) {}
func (c *spyCache) Invalidate(context.Context)                      { c.invalidations.Add(1) }

type spyMetrics struct {
	mu    sync.Mutex
	types []string
}

func (m *spyMetrics) MovementRecorded(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types = append(m.types, t)
}
func (m *spyMetrics) LoansMarkedOverdue(int)  {}
func (m *spyMetrics) ReminderDispatched(bool) {}
func (m *spyMetrics) SaleRecorded(float64)    {}
func (m *spyMetrics) TxRetried()              {}

type fixture struct {
	store   *memory.Store
	engine  *inventory.MovementUseCase
	cache   *spyCache
	metrics *spyMetrics
}

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{store: store, cache: &spyCache{}, metrics: &spyMetrics{}}
	f.engine = inventory.NewMovementUseCase(memory.NewTxRunner(store),
		store.Products(), store.Locations(), store.Movements(), nil, f.cache, f.metrics).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *fixture) product(t *testing.T, id string, stock int, consumable bool) {
	t.Helper()
	require.NoError(t, f.store.Products().Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id, CurrentStock: stock, IsConsumable: consumable,
	}))
}

func (f *fixture) location(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.store.Locations().Create(context.Background(), &entity.Location{
		ID: id, Name: "Ubicación " + id, Type: entity.LocationPhysical,
	}))
}

func (f *fixture) stockAt(t *testing.T, productID, locationID string) int {
	t.Helper()
	pl, err := f.store.Stock().Get(context.Background(), productID, locationID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0
	}
	require.NoError(t, err)
	return pl.Quantity
}

func (f *fixture) currentStock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.CurrentStock
}

// ─── Clasificación ───────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	assert.Equal(t, entity.MovementIN, inventory.Classify("", "B"))
	assert.Equal(t, entity.MovementOUT, inventory.Classify("A", ""))
	assert.Equal(t, entity.MovementTransfer, inventory.Classify("A", "B"))
}

// ─── RecordMovement ──────────────────────────────────────────────────────────

func TestRecordMovement_EntradaSumaAlAgregadoYALaUbicacion(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0, false)
	f.location(t, "A")

	mov, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: "p1", ToLocationID: "A", Quantity: 7, ActorID: "u1", Notes: "recepción",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementIN, mov.Type)
	assert.NotEmpty(t, mov.ID)
	assert.Equal(t, fixedNow, mov.CreatedAt)
	assert.Equal(t, 7, f.currentStock(t, "p1"))
	assert.Equal(t, 7, f.stockAt(t, "p1", "A"))
	assert.Equal(t, int32(1), f.cache.invalidations.Load())
	assert.Equal(t, []string{"IN"}, f.metrics.types)
}

func TestRecordMovement_TrasladoNoCambiaElAgregado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0, false)
	f.location(t, "A")
	f.location(t, "B")
	ctx := context.Background()

	_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p1", ToLocationID: "A", Quantity: 5})
	require.NoError(t, err)
	mov, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p1", FromLocationID: "A", ToLocationID: "B", Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, entity.MovementTransfer, mov.Type)
	assert.Equal(t, 5, f.currentStock(t, "p1"))
	assert.Equal(t, 2, f.stockAt(t, "p1", "A"))
	assert.Equal(t, 3, f.stockAt(t, "p1", "B"))
}

func TestRecordMovement_SalidaDesdeUbicacionSinRegistroQuedaNegativa(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 4, false)
	f.location(t, "A")

	mov, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{ProductID: "p1", FromLocationID: "A", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementOUT, mov.Type)
	assert.Equal(t, 1, f.currentStock(t, "p1"))
	assert.Equal(t, -3, f.stockAt(t, "p1", "A"))
}

func TestRecordMovement_SalidaMayorQueElStockSeRechazaSinEscribir(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 2, false)
	f.location(t, "A")
	ctx := context.Background()

	_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p1", FromLocationID: "A", Quantity: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 2, detail.Available)
	assert.Equal(t, 3, detail.Requested)

	// La transacción se revierte completa: ni ledger ni ubicación.
	assert.Equal(t, 2, f.currentStock(t, "p1"))
	assert.Equal(t, 0, f.stockAt(t, "p1", "A"))
	movs, err := f.store.Movements().List(ctx, repository.MovementFilter{ProductID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, movs)
	assert.Equal(t, int32(0), f.cache.invalidations.Load())
}

func TestRecordMovement_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 10, false)
	f.location(t, "A")

	cases := []struct {
		name string
		in   inventory.MovementInput
		want error
	}{
		{"sin producto", inventory.MovementInput{ToLocationID: "A", Quantity: 1}, domain.ErrValidation},
		{"cantidad cero", inventory.MovementInput{ProductID: "p1", ToLocationID: "A"}, domain.ErrValidation},
		{"cantidad negativa", inventory.MovementInput{ProductID: "p1", ToLocationID: "A", Quantity: -2}, domain.ErrValidation},
		{"sin ubicaciones", inventory.MovementInput{ProductID: "p1", Quantity: 1}, domain.ErrValidation},
		{"origen igual a destino", inventory.MovementInput{ProductID: "p1", FromLocationID: "A", ToLocationID: " A ", Quantity: 1}, domain.ErrValidation},
		{"producto inexistente", inventory.MovementInput{ProductID: "nope", ToLocationID: "A", Quantity: 1}, domain.ErrNotFound},
		{"ubicación inexistente", inventory.MovementInput{ProductID: "p1", ToLocationID: "Z", Quantity: 1}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.RecordMovement(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, f.currentStock(t, "p1"))
}

func TestRecordMovement_SalidasConcurrentesNuncaDejanStockNegativo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0, false)
	f.location(t, "A")
	ctx := context.Background()
	_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p1", ToLocationID: "A", Quantity: 10})
	require.NoError(t, err)

	const workers = 25
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p1", FromLocationID: "A", Quantity: 1})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(workers-10), rejected.Load())
	assert.Equal(t, 0, f.currentStock(t, "p1"))
	assert.Equal(t, 0, f.stockAt(t, "p1", "A"))

	outs, err := f.engine.List(ctx, repository.MovementFilter{ProductID: "p1", Type: entity.MovementOUT})
	require.NoError(t, err)
	assert.Len(t, outs, 10)
}

// ─── AdjustStock ─────────────────────────────────────────────────────────────

func TestAdjustStock_RegistraAjustePorLaDiferencia(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 5, false)
	ctx := context.Background()

	up, err := f.engine.AdjustStock(ctx, "p1", 12, "admin", "")
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, entity.MovementAdjustIn, up.Type)
	assert.Equal(t, 7, up.Quantity)
	assert.Equal(t, "Ajuste manual de stock", up.Notes)

	down, err := f.engine.AdjustStock(ctx, "p1", 4, "admin", "conteo físico")
	require.NoError(t, err)
	require.NotNil(t, down)
	assert.Equal(t, entity.MovementAdjustOut, down.Type)
	assert.Equal(t, 8, down.Quantity)
	assert.Equal(t, 4, f.currentStock(t, "p1"))
}

func TestAdjustStock_SinDiferenciaNoRegistraMovimiento(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 5, false)

	mov, err := f.engine.AdjustStock(context.Background(), "p1", 5, "admin", "")
	require.NoError(t, err)
	assert.Nil(t, mov)
	assert.Equal(t, int32(0), f.cache.invalidations.Load())
}

func TestAdjustStock_RechazaNegativo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 5, false)

	_, err := f.engine.AdjustStock(context.Background(), "p1", -1, "admin", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ─── Consume ─────────────────────────────────────────────────────────────────

func TestConsume_SoloProductosConsumibles(t *testing.T) {
	f := newFixture(t)
	f.product(t, "tinta", 6, true)
	f.product(t, "laptop", 6, false)
	ctx := context.Background()

	mov, err := f.engine.Consume(ctx, inventory.ConsumeInput{ProductID: "tinta", Quantity: 2, ActorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementConsumption, mov.Type)
	assert.Equal(t, 4, f.currentStock(t, "tinta"))

	_, err = f.engine.Consume(ctx, inventory.ConsumeInput{ProductID: "laptop", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotConsumable)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 6, f.currentStock(t, "laptop"))
}

func TestConsume_NoPuedeSuperarElStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "tinta", 1, true)

	_, err := f.engine.Consume(context.Background(), inventory.ConsumeInput{ProductID: "tinta", Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ─── Historial ───────────────────────────────────────────────────────────────

func TestProductHistory(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0, false)
	f.location(t, "A")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p1", ToLocationID: "A", Quantity: 1})
		require.NoError(t, err)
	}

	history, err := f.engine.ProductHistory(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, history, 3)

	_, err = f.engine.ProductHistory(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Escenario completo ──────────────────────────────────────────────────────

func TestEscenario_EntradaYTrasladoSobreStockSinUbicar(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p", 10, false)
	f.location(t, "bodega")
	f.location(t, "rackA")
	ctx := context.Background()

	_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p", ToLocationID: "bodega", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, f.currentStock(t, "p"))
	assert.Equal(t, 5, f.stockAt(t, "p", "bodega"))

	_, err = f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: "p", FromLocationID: "bodega", ToLocationID: "rackA", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 15, f.currentStock(t, "p"))
	assert.Equal(t, 2, f.stockAt(t, "p", "bodega"))
	assert.Equal(t, 3, f.stockAt(t, "p", "rackA"))

	// El agregado nunca es menor que la suma por ubicación.
	locs, err := f.store.Stock().ListByProduct(ctx, "p")
	require.NoError(t, err)
	sum := 0
	for _, l := range locs {
		sum += l.Quantity
	}
	assert.GreaterOrEqual(t, f.currentStock(t, "p"), sum)
}
