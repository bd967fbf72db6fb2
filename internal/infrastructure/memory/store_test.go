package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

func seed(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p1", SKU: "ELK-001", Name: "Cable", CurrentStock: 3}))
	require.NoError(t, s.Locations().Create(ctx, &entity.Location{ID: "A", Name: "Bodega", Type: entity.LocationPhysical}))
	return s
}

func TestTxRunner_ErrorRevierteTodo(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := memory.NewTxRunner(s).Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		require.NoError(t, repos.Movements.Create(ctx, &entity.Movement{ID: "m1", ProductID: "p1", Quantity: 1, Type: entity.MovementOUT}))
		_, err := repos.Stock.Adjust(ctx, "p1", "A", -1)
		require.NoError(t, err)
		_, err = repos.Products.AdjustStock(ctx, "p1", -1)
		require.NoError(t, err)
		return errors.New("falla después de escribir")
	})
	require.Error(t, err)

	p, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentStock)
	_, err = s.Stock().Get(ctx, "p1", "A")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	movs, err := s.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestTxRunner_CommitVisibleFuera(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := memory.NewTxRunner(s).Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		_, err := repos.Stock.Adjust(ctx, "p1", "A", 2)
		return err
	})
	require.NoError(t, err)

	pl, err := s.Stock().Get(ctx, "p1", "A")
	require.NoError(t, err)
	assert.Equal(t, 2, pl.Quantity)
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	s := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := memory.NewTxRunner(s).Run(ctx, func(context.Context, repository.TxRepos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestAdjustStock_NuncaNegativo(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	_, err := s.Products().AdjustStock(ctx, "p1", -4)
	var detail *domain.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 3, detail.Available)
	assert.Equal(t, 4, detail.Requested)

	left, err := s.Products().AdjustStock(ctx, "p1", -3)
	require.NoError(t, err)
	assert.Equal(t, 0, left)
}

func TestStockAdjust_UbicacionPuedeQuedarNegativa(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	qty, err := s.Stock().Adjust(ctx, "p1", "A", -2)
	require.NoError(t, err)
	assert.Equal(t, -2, qty)

	_, err = s.Stock().Adjust(ctx, "p1", "Z", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanUpdateStatus_ConcurrenciaOptimista(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	l := &entity.Loan{ID: "l1", TransactionCode: "LN-20260101-001", ProductID: "p1", Qty: 1, Status: entity.LoanActive}
	require.NoError(t, s.Loans().Create(ctx, l))

	dup := *l
	dup.ID = "l2"
	assert.ErrorIs(t, s.Loans().Create(ctx, &dup), domain.ErrConflict)

	l.Status = entity.LoanReturned
	require.NoError(t, s.Loans().UpdateStatus(ctx, l, entity.LoanActive))
	assert.ErrorIs(t, s.Loans().UpdateStatus(ctx, l, entity.LoanActive), domain.ErrConflict)
}

func TestLoanClaimReminder_UnSoloReclamoPorVentana(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)
	require.NoError(t, s.Loans().Create(ctx, &entity.Loan{
		ID: "l1", TransactionCode: "LN-20260101-001", ProductID: "p1", Qty: 1, Status: entity.LoanOverdue,
	}))

	ok, err := s.Loans().ClaimReminder(ctx, "l1", now, cutoff)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Loans().ClaimReminder(ctx, "l1", now, cutoff)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Loans().ReleaseReminder(ctx, "l1", now, nil))
	got, err := s.Loans().GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, got.LastNotifiedAt)

	got.Status = entity.LoanReturned
	require.NoError(t, s.Loans().UpdateStatus(ctx, got, entity.LoanOverdue))
	ok, err = s.Loans().ClaimReminder(ctx, "l1", now, cutoff)
	require.NoError(t, err)
	assert.False(t, ok)
}
