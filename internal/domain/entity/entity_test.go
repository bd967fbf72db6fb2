package entity_test

import (
	"testing"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Clasificación de movimientos ────────────────────────────────────────────

func TestAggregateDelta(t *testing.T) {
	cases := []struct {
		name string
		m    entity.Movement
		want int
	}{
		{"entrada", entity.Movement{ToLocationID: "w", Quantity: 5, Type: entity.MovementIN}, 5},
		{"salida", entity.Movement{FromLocationID: "w", Quantity: 5, Type: entity.MovementOUT}, -5},
		{"traslado", entity.Movement{FromLocationID: "w", ToLocationID: "r", Quantity: 5, Type: entity.MovementTransfer}, 0},
		{"préstamo", entity.Movement{Quantity: 4, Type: entity.MovementLoanOut}, -4},
		{"devolución", entity.Movement{Quantity: 4, Type: entity.MovementLoanReturn}, 4},
		{"venta", entity.Movement{Quantity: 2, Type: entity.MovementSale}, -2},
		{"consumo", entity.Movement{Quantity: 1, Type: entity.MovementConsumption}, -1},
		{"ajuste positivo", entity.Movement{Quantity: 3, Type: entity.MovementAdjustIn}, 3},
		{"ajuste negativo", entity.Movement{Quantity: 3, Type: entity.MovementAdjustOut}, -3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.m.AggregateDelta())
		})
	}
}

// ─── Máquina de estados del préstamo ─────────────────────────────────────────

func TestLoanStatus_TransicionesValidas(t *testing.T) {
	assert.NoError(t, entity.LoanActive.CanTransitionTo(entity.LoanOverdue))
	assert.NoError(t, entity.LoanActive.CanTransitionTo(entity.LoanReturned))
	assert.NoError(t, entity.LoanOverdue.CanTransitionTo(entity.LoanReturned))
}

func TestLoanStatus_ReturnedEsTerminal(t *testing.T) {
	for _, next := range []entity.LoanStatus{entity.LoanActive, entity.LoanOverdue, entity.LoanReturned} {
		assert.ErrorIs(t, entity.LoanReturned.CanTransitionTo(next), domain.ErrAlreadyReturned)
	}
}

func TestLoanStatus_AristaInvalida(t *testing.T) {
	assert.ErrorIs(t, entity.LoanOverdue.CanTransitionTo(entity.LoanActive), domain.ErrInvalidTransition)
	assert.ErrorIs(t, entity.LoanActive.CanTransitionTo(entity.LoanActive), domain.ErrInvalidTransition)
}

func TestLoan_TransitionToReturnedFijaFecha(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := &entity.Loan{Status: entity.LoanOverdue}

	require.NoError(t, l.TransitionTo(entity.LoanReturned, now))
	assert.Equal(t, entity.LoanReturned, l.Status)
	require.NotNil(t, l.ReturnDate)
	assert.True(t, l.ReturnDate.Equal(now))

	assert.ErrorIs(t, l.TransitionTo(entity.LoanReturned, now), domain.ErrAlreadyReturned)
}

func TestLoan_NeedsReminder(t *testing.T) {
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-23 * time.Hour)
	old := now.Add(-25 * time.Hour)

	assert.True(t, (&entity.Loan{Status: entity.LoanOverdue}).NeedsReminder(now, 24*time.Hour))
	assert.False(t, (&entity.Loan{Status: entity.LoanOverdue, LastNotifiedAt: &recent}).NeedsReminder(now, 24*time.Hour))
	assert.True(t, (&entity.Loan{Status: entity.LoanOverdue, LastNotifiedAt: &old}).NeedsReminder(now, 24*time.Hour))
	exact := now.Add(-24 * time.Hour)
	assert.False(t, (&entity.Loan{Status: entity.LoanOverdue, LastNotifiedAt: &exact}).NeedsReminder(now, 24*time.Hour))
	assert.False(t, (&entity.Loan{Status: entity.LoanActive}).NeedsReminder(now, 24*time.Hour))
}

// ─── Venta ───────────────────────────────────────────────────────────────────

func TestComputeTotal(t *testing.T) {
	items := []entity.SaleItem{
		{Qty: 2, SellingPrice: decimal.NewFromInt(1000)},
		{Qty: 1, SellingPrice: decimal.NewFromInt(500)},
	}
	assert.True(t, entity.ComputeTotal(items).Equal(decimal.NewFromInt(2500)))
}

// ─── Errores ─────────────────────────────────────────────────────────────────

func TestInsufficientStockError_Unwrap(t *testing.T) {
	var err error = &domain.InsufficientStockError{ProductName: "Taladro", Available: 3, Requested: 4}
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Disponible: 3")
	assert.ErrorIs(t, domain.ErrEmptyOrder, domain.ErrValidation)
}
