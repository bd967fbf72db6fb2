package entity

import (
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain"
)

// LoanStatus estado de un préstamo.
type LoanStatus string

// Estados del préstamo. RETURNED es terminal.
const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanReturned LoanStatus = "RETURNED"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanActive:  {LoanOverdue, LoanReturned},
	LoanOverdue: {LoanReturned},
}

// Valid indica si s es un estado conocido.
func (s LoanStatus) Valid() bool {
	return s == LoanActive || s == LoanOverdue || s == LoanReturned
}

// CanTransitionTo valida una arista de la máquina de estados.
// Desde RETURNED devuelve ErrAlreadyReturned; aristas desconocidas ErrInvalidTransition.
func (s LoanStatus) CanTransitionTo(next LoanStatus) error {
	if s == LoanReturned {
		return domain.ErrAlreadyReturned
	}
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return nil
		}
	}
	return domain.ErrInvalidTransition
}

// Loan préstamo de un producto a un tercero.
type Loan struct {
	ID              string
	TransactionCode string // LN-YYYYMMDD-NNN, único
	BorrowerName    string
	BorrowerPhone   string
	ProductID       string
	Qty             int
	LoanDate        time.Time
	DueDate         time.Time
	ReturnDate      *time.Time
	Status          LoanStatus
	LastNotifiedAt  *time.Time
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TransitionTo aplica la transición si es válida.
func (l *Loan) TransitionTo(next LoanStatus, at time.Time) error {
	if err := l.Status.CanTransitionTo(next); err != nil {
		return err
	}
	l.Status = next
	if next == LoanReturned {
		t := at
		l.ReturnDate = &t
	}
	l.UpdatedAt = at
	return nil
}

// NeedsReminder indica si un préstamo vencido debe recibir recordatorio en now.
func (l *Loan) NeedsReminder(now time.Time, interval time.Duration) bool {
	if l.Status != LoanOverdue {
		return false
	}
	return l.LastNotifiedAt == nil || l.LastNotifiedAt.Before(now.Add(-interval))
}
