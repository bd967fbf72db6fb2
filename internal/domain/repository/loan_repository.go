package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// LoanFilter criterios de listado de préstamos.
type LoanFilter struct {
	Status entity.LoanStatus
	Search string // prestatario o código
	Limit  int
	Offset int
}

// LoanRepository define el puerto de persistencia para Loan.
type LoanRepository interface {
	Create(ctx context.Context, loan *entity.Loan) error
	GetByID(ctx context.Context, id string) (*entity.Loan, error)
	// GetForUpdate bloquea la fila dentro de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Loan, error)
	// UpdateStatus persiste estado y fecha de devolución solo si el estado almacenado sigue siendo expected.
	// Devuelve ErrConflict si otro proceso cambió el estado.
	UpdateStatus(ctx context.Context, loan *entity.Loan, expected entity.LoanStatus) error
	// MarkOverdue pasa a OVERDUE todos los ACTIVE con DueDate < now.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
	// ListDueForReminder OVERDUE cuyo LastNotifiedAt es nulo o anterior a cutoff.
	ListDueForReminder(ctx context.Context, cutoff time.Time) ([]*entity.Loan, error)
	// ClaimReminder fija LastNotifiedAt = at solo si el préstamo sigue OVERDUE y no fue
	// notificado desde cutoff. false significa que otro barrido lo reclamó o ya no aplica.
	ClaimReminder(ctx context.Context, id string, at, cutoff time.Time) (bool, error)
	// ReleaseReminder devuelve LastNotifiedAt a previous si sigue valiendo claimedAt.
	ReleaseReminder(ctx context.Context, id string, claimedAt time.Time, previous *time.Time) error
	TouchNotified(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter LoanFilter) ([]*entity.Loan, error)
	CountByStatus(ctx context.Context) (map[entity.LoanStatus]int, error)
}
