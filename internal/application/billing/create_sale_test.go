package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/billing"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

type saleMetrics struct {
	sales []float64
}

func (m *saleMetrics) MovementRecorded(string)    {}
func (m *saleMetrics) LoansMarkedOverdue(int)     {}
func (m *saleMetrics) ReminderDispatched(bool)    {}
func (m *saleMetrics) SaleRecorded(total float64) { m.sales = append(m.sales, total) }
func (m *saleMetrics) TxRetried()                 {}

// failingEngine deja pasar las primeras ok escrituras y falla la siguiente.
type failingEngine struct {
	*inventory.MovementUseCase
	ok    int
	calls int
}

func (e *failingEngine) ApplyInTx(ctx context.Context, repos repository.TxRepos, m *entity.Movement) error {
	e.calls++
	if e.calls > e.ok {
		return errors.New("disco lleno")
	}
	return e.MovementUseCase.ApplyInTx(ctx, repos, m)
}

var saleAt = time.Date(2026, 2, 14, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	tx      *memory.TxRunner
	engine  *inventory.MovementUseCase
	metrics *saleMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	tx := memory.NewTxRunner(store)
	engine := inventory.NewMovementUseCase(tx, store.Products(), store.Locations(), store.Movements(), nil, nil, nil).
		WithClock(func() time.Time { return saleAt })
	ctx := context.Background()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "cable", SKU: "ELK-001", Name: "Cable HDMI", CurrentStock: 10, CostPrice: decimal.RequireFromString("2.50"),
	}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "mouse", SKU: "ELK-002", Name: "Mouse", CurrentStock: 3, CostPrice: decimal.RequireFromString("7"),
	}))
	return &fixture{store: store, tx: tx, engine: engine, metrics: &saleMetrics{}}
}

func (f *fixture) useCase(engine billing.InventoryUseCase) *billing.CreateSaleUseCase {
	return billing.NewCreateSaleUseCase(f.tx, engine, f.store.Products(), nil, f.metrics, nil)
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.CurrentStock
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ─── CreateSale ──────────────────────────────────────────────────────────────

func TestCreateSale_VariasLineasDescuentaStockYCalculaTotal(t *testing.T) {
	f := newFixture(t)
	uc := f.useCase(f.engine)
	ctx := context.Background()

	sale, err := uc.CreateSale(ctx, billing.CreateSaleInput{
		CustomerName: "  Toko Maju ",
		ActorID:      "admin",
		Items: []billing.SaleLine{
			{ProductID: "cable", Qty: 4, SellingPrice: price("5.25")},
			{ProductID: "mouse", Qty: 1, SellingPrice: price("12")},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^INV-20260214-\d{3}$`, sale.InvoiceCode)
	assert.Equal(t, "Toko Maju", sale.CustomerName)
	assert.True(t, price("33").Equal(sale.TotalAmount), "total %s", sale.TotalAmount)
	require.Len(t, sale.Items, 2)
	assert.True(t, price("2.50").Equal(sale.Items[0].CostPrice))
	assert.Equal(t, 6, f.stock(t, "cable"))
	assert.Equal(t, 2, f.stock(t, "mouse"))

	movs, err := f.store.Movements().List(ctx, repository.MovementFilter{Type: entity.MovementSale})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, sale.InvoiceCode, m.Reference)
	}

	stored, err := f.store.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, []float64{33}, f.metrics.sales)
}

func TestCreateSale_SinLineas(t *testing.T) {
	f := newFixture(t)
	_, err := f.useCase(f.engine).CreateSale(context.Background(), billing.CreateSaleInput{CustomerName: "x"})
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateSale_ValidacionDeLineas(t *testing.T) {
	f := newFixture(t)
	uc := f.useCase(f.engine)
	cases := map[string]billing.SaleLine{
		"sin producto":    {Qty: 1, SellingPrice: price("1")},
		"cantidad cero":   {ProductID: "cable", SellingPrice: price("1")},
		"precio negativo": {ProductID: "cable", Qty: 1, SellingPrice: price("-1")},
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.CreateSale(context.Background(), billing.CreateSaleInput{Items: []billing.SaleLine{line}})
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateSale_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.useCase(f.engine).CreateSale(context.Background(), billing.CreateSaleInput{
		Items: []billing.SaleLine{{ProductID: "nope", Qty: 1, SellingPrice: price("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateSale_StockInsuficienteSumaLineasRepetidas(t *testing.T) {
	f := newFixture(t)
	_, err := f.useCase(f.engine).CreateSale(context.Background(), billing.CreateSaleInput{
		Items: []billing.SaleLine{
			{ProductID: "cable", Qty: 2, SellingPrice: price("5")},
			{ProductID: "mouse", Qty: 2, SellingPrice: price("9")},
			{ProductID: "mouse", Qty: 2, SellingPrice: price("9")},
		},
	})
	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, "mouse", detail.ProductID)
	assert.Equal(t, 4, detail.Requested)
	assert.Equal(t, 10, f.stock(t, "cable"))
	assert.Equal(t, 3, f.stock(t, "mouse"))
}

func TestCreateSale_FalloEnUnaLineaRevierteTodaLaVenta(t *testing.T) {
	f := newFixture(t)
	uc := f.useCase(&failingEngine{MovementUseCase: f.engine, ok: 1})
	ctx := context.Background()

	_, err := uc.CreateSale(ctx, billing.CreateSaleInput{
		Items: []billing.SaleLine{
			{ProductID: "cable", Qty: 1, SellingPrice: price("5")},
			{ProductID: "mouse", Qty: 1, SellingPrice: price("9")},
		},
	})
	require.Error(t, err)

	assert.Equal(t, 10, f.stock(t, "cable"))
	assert.Equal(t, 3, f.stock(t, "mouse"))
	sales, err := f.store.Sales().List(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
	movs, err := f.store.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
	assert.Empty(t, f.metrics.sales)
}

func TestCreateSale_ColisionDeFacturaSeReintenta(t *testing.T) {
	f := newFixture(t)
	seq := []int{4, 4, 5}
	i := 0
	uc := f.useCase(f.engine).WithCodeGenerator(domaininv.NewCodeGeneratorWithSource(func(int) int {
		v := seq[i]
		i++
		return v
	}))
	line := []billing.SaleLine{{ProductID: "cable", Qty: 1, SellingPrice: price("5")}}

	first, err := uc.CreateSale(context.Background(), billing.CreateSaleInput{Items: line})
	require.NoError(t, err)
	second, err := uc.CreateSale(context.Background(), billing.CreateSaleInput{Items: line})
	require.NoError(t, err)

	assert.Equal(t, "INV-20260214-005", first.InvoiceCode)
	assert.Equal(t, "INV-20260214-006", second.InvoiceCode)
	assert.Equal(t, 8, f.stock(t, "cable"))
}

// ─── Consultas ───────────────────────────────────────────────────────────────

func TestSaleQuery_StatsDelMesYDelDia(t *testing.T) {
	f := newFixture(t)
	f.engine.WithClock(time.Now)
	uc := f.useCase(f.engine)
	ctx := context.Background()
	for _, qty := range []int{1, 2} {
		_, err := uc.CreateSale(ctx, billing.CreateSaleInput{
			Items: []billing.SaleLine{{ProductID: "cable", Qty: qty, SellingPrice: price("10")}},
		})
		require.NoError(t, err)
	}

	query := billing.NewSaleQueryUseCase(f.store.Sales())
	stats, err := query.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.MonthlyCount)
	assert.Equal(t, 2, stats.TodayCount)
	assert.True(t, price("30").Equal(stats.MonthlyRevenue))

	list, err := query.List(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = query.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMonthStart(t *testing.T) {
	got := billing.MonthStart(time.Date(2026, 7, 19, 13, 4, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), got)
}
