package loan_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/loan"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

type fakeNotifier struct {
	mu    sync.Mutex
	ok    bool
	delay time.Duration
	sent  []string
}

func (n *fakeNotifier) Send(_ context.Context, phone, message string) bool {
	time.Sleep(n.delay)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, phone+"|"+message)
	return n.ok
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var issuedAt = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	uc       *loan.UseCase
	notifier *fakeNotifier
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	store := memory.New()
	tx := memory.NewTxRunner(store)
	engine := inventory.NewMovementUseCase(tx, store.Products(), store.Locations(), store.Movements(), nil, nil, nil).
		WithClock(func() time.Time { return issuedAt })
	n := &fakeNotifier{ok: true}
	uc := loan.NewUseCase(tx, engine, store.Products(), store.Loans(), n, nil, nil, nil)
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID: "p1", SKU: "ELK-001", Name: "Proyector", CurrentStock: stock,
	}))
	return &fixture{store: store, uc: uc, notifier: n}
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	return p.CurrentStock
}

func (f *fixture) issue(t *testing.T, qty int, phone string, due time.Time) *entity.Loan {
	t.Helper()
	l, err := f.uc.IssueLoan(context.Background(), loan.IssueLoanInput{
		BorrowerName: "Budi", BorrowerPhone: phone, ProductID: "p1", Qty: qty, DueDate: due, ActorID: "admin",
	})
	require.NoError(t, err)
	return l
}

// ─── Emisión y devolución ────────────────────────────────────────────────────

func TestIssueLoan_DescuentaStockYRegistraLoanOut(t *testing.T) {
	f := newFixture(t, 5)

	l := f.issue(t, 2, "08123", issuedAt.Add(72*time.Hour))
	assert.Equal(t, entity.LoanActive, l.Status)
	assert.Regexp(t, `^LN-20260101-\d{3}$`, l.TransactionCode)
	assert.Equal(t, issuedAt, l.LoanDate)
	assert.Equal(t, 3, f.stock(t))

	movs, err := f.store.Movements().List(context.Background(), repository.MovementFilter{ProductID: "p1"})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementLoanOut, movs[0].Type)
	assert.Equal(t, l.TransactionCode, movs[0].Reference)
	assert.Empty(t, movs[0].FromLocationID)
}

func TestIssueLoan_StockInsuficiente(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.uc.IssueLoan(context.Background(), loan.IssueLoanInput{
		BorrowerName: "Budi", ProductID: "p1", Qty: 2, DueDate: issuedAt.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, f.stock(t))
}

func TestIssueLoan_Validaciones(t *testing.T) {
	f := newFixture(t, 5)
	due := issuedAt.Add(time.Hour)
	cases := map[string]loan.IssueLoanInput{
		"sin prestatario": {BorrowerName: "  ", ProductID: "p1", Qty: 1, DueDate: due},
		"sin producto":    {BorrowerName: "Budi", Qty: 1, DueDate: due},
		"cantidad cero":   {BorrowerName: "Budi", ProductID: "p1", DueDate: due},
		"sin vencimiento": {BorrowerName: "Budi", ProductID: "p1", Qty: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.IssueLoan(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestIssueLoan_ColisionDeCodigoSeReintentaUnaVez(t *testing.T) {
	f := newFixture(t, 5)
	seq := []int{0, 0, 1}
	i := 0
	f.uc.WithCodeGenerator(domaininv.NewCodeGeneratorWithSource(func(int) int {
		v := seq[i%len(seq)]
		i++
		return v
	}))

	first := f.issue(t, 1, "", issuedAt.Add(time.Hour))
	second := f.issue(t, 1, "", issuedAt.Add(time.Hour))

	assert.Equal(t, "LN-20260101-001", first.TransactionCode)
	assert.Equal(t, "LN-20260101-002", second.TransactionCode)
	// El intento fallido no dejó rastro en el stock.
	assert.Equal(t, 3, f.stock(t))
}

func TestIssueLoan_ColisionPersistenteDevuelveConflicto(t *testing.T) {
	f := newFixture(t, 5)
	f.uc.WithCodeGenerator(domaininv.NewCodeGeneratorWithSource(func(int) int { return 6 }))

	f.issue(t, 1, "", issuedAt.Add(time.Hour))
	_, err := f.uc.IssueLoan(context.Background(), loan.IssueLoanInput{
		BorrowerName: "Siti", ProductID: "p1", Qty: 1, DueDate: issuedAt.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 4, f.stock(t))
}

func TestReturnLoan_RestauraStockYEsTerminal(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	l := f.issue(t, 2, "", issuedAt.Add(time.Hour))

	returned, err := f.uc.ReturnLoan(ctx, l.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, issuedAt, *returned.ReturnDate)
	assert.Equal(t, 5, f.stock(t))

	_, err = f.uc.ReturnLoan(ctx, l.ID, "admin")
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
	assert.Equal(t, 5, f.stock(t))

	movs, err := f.store.Movements().List(ctx, repository.MovementFilter{ProductID: "p1", Type: entity.MovementLoanReturn})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestReturnLoan_VencidoTambienSeDevuelve(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	l := f.issue(t, 1, "", issuedAt.Add(time.Hour))
	_, err := f.uc.SweepOverdueLoans(ctx, issuedAt.Add(48*time.Hour))
	require.NoError(t, err)

	returned, err := f.uc.ReturnLoan(ctx, l.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.LoanReturned, returned.Status)
}

func TestReturnLoan_Inexistente(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.uc.ReturnLoan(context.Background(), "nope", "admin")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Barrido de vencidos ─────────────────────────────────────────────────────

func TestSweepOverdueLoans_MarcaYNotificaUnaVezPorVentana(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	due := issuedAt.Add(24 * time.Hour)
	l := f.issue(t, 1, "08123", due)
	f.issue(t, 1, "08999", issuedAt.Add(30*24*time.Hour)) // aún no vence

	res, err := f.uc.SweepOverdueLoans(ctx, due.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, loan.SweepResult{MarkedOverdue: 1, Notified: 1}, res)

	got, err := f.uc.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LoanOverdue, got.Status)
	require.NotNil(t, got.LastNotifiedAt)

	res, err = f.uc.SweepOverdueLoans(ctx, due.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, loan.SweepResult{}, res)
	assert.Equal(t, 1, f.notifier.count())

	res, err = f.uc.SweepOverdueLoans(ctx, due.Add(49*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, loan.SweepResult{Notified: 1}, res)
	assert.Equal(t, 2, f.notifier.count())
}

func TestSweepOverdueLoans_FalloDelEnvioNoMarcaNotificado(t *testing.T) {
	f := newFixture(t, 5)
	f.notifier.ok = false
	ctx := context.Background()
	due := issuedAt.Add(time.Hour)
	l := f.issue(t, 1, "08123", due)

	res, err := f.uc.SweepOverdueLoans(ctx, due.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, loan.SweepResult{MarkedOverdue: 1, Failed: 1}, res)

	got, err := f.uc.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastNotifiedAt)

	// El siguiente barrido lo vuelve a intentar.
	f.notifier.ok = true
	res, err = f.uc.SweepOverdueLoans(ctx, due.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, loan.SweepResult{Notified: 1}, res)
}

func TestSweepOverdueLoans_SinTelefonoCuentaComoFallo(t *testing.T) {
	f := newFixture(t, 5)
	due := issuedAt.Add(time.Hour)
	f.issue(t, 1, "", due)

	res, err := f.uc.SweepOverdueLoans(context.Background(), due.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, loan.SweepResult{MarkedOverdue: 1, Failed: 1}, res)
	assert.Equal(t, 0, f.notifier.count())
}

func TestSweepOverdueLoans_IntervaloConfigurable(t *testing.T) {
	f := newFixture(t, 5)
	f.uc.WithReminderInterval(time.Hour)
	ctx := context.Background()
	due := issuedAt.Add(time.Hour)
	f.issue(t, 1, "08123", due)

	_, err := f.uc.SweepOverdueLoans(ctx, due.Add(time.Minute))
	require.NoError(t, err)
	res, err := f.uc.SweepOverdueLoans(ctx, due.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Equal(t, 2, f.notifier.count())
}

func TestSweepOverdueLoans_BarridosConcurrentesNotificanUnaVez(t *testing.T) {
	f := newFixture(t, 5)
	f.notifier.delay = 50 * time.Millisecond
	due := issuedAt.Add(time.Hour)
	f.issue(t, 1, "08123", due)
	now := due.Add(time.Hour)

	var wg sync.WaitGroup
	results := make([]loan.SweepResult, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.uc.SweepOverdueLoans(context.Background(), now)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, 1, results[0].Notified+results[1].Notified)
	assert.Zero(t, results[0].Failed+results[1].Failed)
}

func TestSweepOverdueLoans_JustoEnElLimiteDeLaVentanaNoReenvia(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	due := issuedAt.Add(time.Hour)
	f.issue(t, 1, "08123", due)
	t0 := due.Add(time.Hour)

	_, err := f.uc.SweepOverdueLoans(ctx, t0)
	require.NoError(t, err)
	res, err := f.uc.SweepOverdueLoans(ctx, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Notified)
	assert.Equal(t, 1, f.notifier.count())

	res, err = f.uc.SweepOverdueLoans(ctx, t0.Add(24*time.Hour+time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
}

// ─── Recordatorio manual ─────────────────────────────────────────────────────

func TestSendReminder(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	l := f.issue(t, 1, "08123", issuedAt.Add(time.Hour))

	sent, err := f.uc.SendReminder(ctx, l.ID, "admin")
	require.NoError(t, err)
	assert.True(t, sent)

	_, err = f.uc.ReturnLoan(ctx, l.ID, "admin")
	require.NoError(t, err)
	_, err = f.uc.SendReminder(ctx, l.ID, "admin")
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
}

// ─── Consultas ───────────────────────────────────────────────────────────────

func TestListYStats(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	a := f.issue(t, 1, "", issuedAt.Add(time.Hour))
	f.issue(t, 1, "", issuedAt.Add(time.Hour))
	_, err := f.uc.ReturnLoan(ctx, a.ID, "admin")
	require.NoError(t, err)

	active, err := f.uc.List(ctx, repository.LoanFilter{Status: entity.LoanActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = f.uc.List(ctx, repository.LoanFilter{Status: "PERDIDO"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stats, err := f.uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[entity.LoanActive])
	assert.Equal(t, 1, stats[entity.LoanReturned])
}

// ─── Mensaje ─────────────────────────────────────────────────────────────────

func TestFormatIndonesianDate(t *testing.T) {
	assert.Equal(t, "2 Januari 2026", loan.FormatIndonesianDate(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "17 Agustus 2025", loan.FormatIndonesianDate(time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC)))
}

func TestReminderMessage(t *testing.T) {
	msg := loan.ReminderMessage(&entity.Loan{
		BorrowerName:    "Budi",
		Qty:             3,
		DueDate:         time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		TransactionCode: "LN-20260101-042",
	}, "Proyector")

	assert.True(t, strings.HasPrefix(msg, "⚠️ *Pengingat Peminjaman Barang*"))
	assert.Contains(t, msg, "Halo *Budi*,")
	assert.Contains(t, msg, "📦 Barang: *Proyector*")
	assert.Contains(t, msg, "🔢 Jumlah: *3*")
	assert.Contains(t, msg, "📅 Jatuh Tempo: *2 Januari 2026*")
	assert.Contains(t, msg, "🔖 Kode: *LN-20260101-042*")
}

// ─── Límites ─────────────────────────────────────────────────────────────────

func TestIssueLoan_ExactamenteElStockDisponible(t *testing.T) {
	f := newFixture(t, 4)

	f.issue(t, 4, "", issuedAt.Add(time.Hour))
	assert.Equal(t, 0, f.stock(t))

	_, err := f.uc.IssueLoan(context.Background(), loan.IssueLoanInput{
		BorrowerName: "Siti", ProductID: "p1", Qty: 1, DueDate: issuedAt.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, f.stock(t))
}
