package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// DefaultReminderInterval ventana mínima entre dos recordatorios del mismo préstamo.
const DefaultReminderInterval = 24 * time.Hour

// UseCase flujo de préstamos sobre el motor de movimientos:
// emitir descuenta stock (LOAN_OUT), devolver lo repone (LOAN_RETURN).
type UseCase struct {
	txRunner         inventory.TxRunner
	engine           *inventory.MovementUseCase
	productRepo      repository.ProductRepository
	loanRepo         repository.LoanRepository
	notifier         ports.Notifier
	auditor          ports.Auditor
	metrics          ports.LedgerMetrics
	codes            *domaininv.CodeGenerator
	reminderInterval time.Duration
	log              *logger.Logger
}

// NewUseCase construye el flujo de préstamos.
func NewUseCase(
	txRunner inventory.TxRunner,
	engine *inventory.MovementUseCase,
	productRepo repository.ProductRepository,
	loanRepo repository.LoanRepository,
	notifier ports.Notifier,
	auditor ports.Auditor,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
) *UseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:         txRunner,
		engine:           engine,
		productRepo:      productRepo,
		loanRepo:         loanRepo,
		notifier:         notifier,
		auditor:          auditor,
		metrics:          metrics,
		codes:            domaininv.NewCodeGenerator(),
		reminderInterval: DefaultReminderInterval,
		log:              log.Component("loan"),
	}
}

// WithCodeGenerator reemplaza el generador de códigos (tests).
func (uc *UseCase) WithCodeGenerator(g *domaininv.CodeGenerator) *UseCase {
	uc.codes = g
	return uc
}

// WithReminderInterval cambia la ventana entre recordatorios.
func (uc *UseCase) WithReminderInterval(d time.Duration) *UseCase {
	if d > 0 {
		uc.reminderInterval = d
	}
	return uc
}

// IssueLoanInput entrada para emitir un préstamo.
type IssueLoanInput struct {
	BorrowerName  string
	BorrowerPhone string
	ProductID     string
	Qty           int
	DueDate       time.Time
	Notes         string
	ActorID       string
}

// IssueLoan crea el préstamo ACTIVE y descuenta el stock en la misma transacción.
// La comprobación previa de stock es orientativa; el descuento condicional dentro de la
// transacción es el que garantiza que el stock no quede negativo.
func (uc *UseCase) IssueLoan(ctx context.Context, in IssueLoanInput) (*entity.Loan, error) {
	in.BorrowerName = strings.TrimSpace(in.BorrowerName)
	if in.BorrowerName == "" {
		return nil, domain.Invalid("borrower_name es obligatorio")
	}
	if in.ProductID == "" {
		return nil, domain.Invalid("product_id es obligatorio")
	}
	if in.Qty <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if in.DueDate.IsZero() {
		return nil, domain.Invalid("due_date es obligatorio")
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product.CurrentStock < in.Qty {
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.CurrentStock,
			Requested:   in.Qty,
		}
	}

	now := uc.engine.Now()
	var loan *entity.Loan
	var mov *entity.Movement
	issue := func() error {
		code := uc.codes.Next(domaininv.LoanCodePrefix, now)
		return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			loan = &entity.Loan{
				ID:              uuid.New().String(),
				TransactionCode: code,
				BorrowerName:    in.BorrowerName,
				BorrowerPhone:   strings.TrimSpace(in.BorrowerPhone),
				ProductID:       in.ProductID,
				Qty:             in.Qty,
				LoanDate:        now,
				DueDate:         in.DueDate,
				Status:          entity.LoanActive,
				Notes:           in.Notes,
				CreatedBy:       in.ActorID,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := repos.Loans.Create(ctx, loan); err != nil {
				return err
			}
			mov = &entity.Movement{
				ProductID: in.ProductID,
				Quantity:  in.Qty,
				Type:      entity.MovementLoanOut,
				MovedBy:   in.ActorID,
				Notes:     fmt.Sprintf("Préstamo a %s (%s)", in.BorrowerName, code),
				Reference: code,
			}
			return uc.engine.ApplyInTx(ctx, repos, mov)
		})
	}
	err = issue()
	if errors.Is(err, domain.ErrConflict) {
		uc.log.Warn().Str("product_id", in.ProductID).Msg("colisión de código de préstamo, se reintenta")
		err = issue()
	}
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(in.ActorID, entity.AuditCreate, "loan", loan.ID, map[string]any{
		"transaction_code": loan.TransactionCode,
		"borrower":         loan.BorrowerName,
		"product_id":       loan.ProductID,
		"qty":              loan.Qty,
		"due_date":         loan.DueDate,
	})
	uc.engine.Publish(ctx, mov)
	return loan, nil
}

// ReturnLoan cierra el préstamo y repone el stock. RETURNED es terminal.
func (uc *UseCase) ReturnLoan(ctx context.Context, loanID, actorID string) (*entity.Loan, error) {
	if loanID == "" {
		return nil, domain.Invalid("id de préstamo vacío")
	}
	now := uc.engine.Now()
	var loan *entity.Loan
	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		var err error
		loan, err = repos.Loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		previous := loan.Status
		if err := loan.TransitionTo(entity.LoanReturned, now); err != nil {
			return err
		}
		if err := repos.Loans.UpdateStatus(ctx, loan, previous); err != nil {
			return err
		}
		mov = &entity.Movement{
			ProductID: loan.ProductID,
			Quantity:  loan.Qty,
			Type:      entity.MovementLoanReturn,
			MovedBy:   actorID,
			Notes:     fmt.Sprintf("Devolución de %s (%s)", loan.BorrowerName, loan.TransactionCode),
			Reference: loan.TransactionCode,
		}
		return uc.engine.ApplyInTx(ctx, repos, mov)
	})
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(actorID, entity.AuditUpdate, "loan", loan.ID, map[string]any{
		"transaction_code": loan.TransactionCode,
		"status":           loan.Status,
		"return_date":      loan.ReturnDate,
	})
	uc.engine.Publish(ctx, mov)
	return loan, nil
}

// SweepResult resultado de un barrido de vencidos.
type SweepResult struct {
	MarkedOverdue int
	Notified      int
	Failed        int
}

// SweepOverdueLoans marca OVERDUE los ACTIVE vencidos y envía un recordatorio a los OVERDUE
// no notificados dentro de la ventana. Cada préstamo se reclama antes de enviar; si el envío
// falla, LastNotifiedAt vuelve a su valor previo.
// Es idempotente: repetirlo dentro de la ventana no reenvía.
func (uc *UseCase) SweepOverdueLoans(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	marked, err := uc.loanRepo.MarkOverdue(ctx, now)
	if err != nil {
		return res, err
	}
	res.MarkedOverdue = marked
	uc.metrics.LoansMarkedOverdue(marked)
	if marked > 0 {
		uc.engine.Publish(ctx)
	}

	cutoff := now.Add(-uc.reminderInterval)
	due, err := uc.loanRepo.ListDueForReminder(ctx, cutoff)
	if err != nil {
		return res, err
	}
	for _, l := range due {
		if !l.NeedsReminder(now, uc.reminderInterval) {
			continue
		}
		if l.BorrowerPhone == "" {
			uc.send(ctx, l)
			res.Failed++
			continue
		}
		// El reclamo condicional evita que dos barridos concurrentes notifiquen el mismo préstamo.
		claimed, err := uc.loanRepo.ClaimReminder(ctx, l.ID, now, cutoff)
		if err != nil {
			uc.log.Error().Err(err).Str("loan_id", l.ID).Msg("no se pudo reclamar el recordatorio")
			res.Failed++
			continue
		}
		if !claimed {
			continue
		}
		previous := l.LastNotifiedAt
		if uc.send(ctx, l) {
			l.LastNotifiedAt = &now
			res.Notified++
			continue
		}
		res.Failed++
		if err := uc.loanRepo.ReleaseReminder(ctx, l.ID, now, previous); err != nil {
			uc.log.Error().Err(err).Str("loan_id", l.ID).Msg("no se pudo liberar el recordatorio")
		}
	}

	uc.log.Info().
		Int("marked_overdue", res.MarkedOverdue).
		Int("notified", res.Notified).
		Int("failed", res.Failed).
		Msg("barrido de préstamos vencidos")
	return res, nil
}

// SendReminder envío manual de un recordatorio. Devuelve si el mensaje salió.
func (uc *UseCase) SendReminder(ctx context.Context, loanID, actorID string) (bool, error) {
	l, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return false, err
	}
	if l.Status == entity.LoanReturned {
		return false, domain.ErrAlreadyReturned
	}
	sent := uc.remind(ctx, l, uc.engine.Now())
	uc.auditor.Record(actorID, entity.AuditNotify, "loan", l.ID, map[string]any{
		"transaction_code": l.TransactionCode,
		"sent":             sent,
	})
	return sent, nil
}

// remind envía el recordatorio manual y registra LastNotifiedAt si salió.
func (uc *UseCase) remind(ctx context.Context, l *entity.Loan, now time.Time) bool {
	if !uc.send(ctx, l) {
		return false
	}
	if err := uc.loanRepo.TouchNotified(ctx, l.ID, now); err != nil {
		uc.log.Error().Err(err).Str("loan_id", l.ID).Msg("no se pudo registrar last_notified_at")
	}
	l.LastNotifiedAt = &now
	return true
}

// send formatea y envía el mensaje; los fallos se registran y no se propagan.
func (uc *UseCase) send(ctx context.Context, l *entity.Loan) bool {
	warn := func(msg string) {
		uc.log.Warn().Str("loan_id", l.ID).Str("transaction_code", l.TransactionCode).Msg(msg)
	}
	if l.BorrowerPhone == "" {
		warn("préstamo sin teléfono, no se envía recordatorio")
		uc.metrics.ReminderDispatched(false)
		return false
	}
	productName := l.ProductID
	if p, err := uc.productRepo.GetByID(ctx, l.ProductID); err == nil {
		productName = p.Name
	}
	sent := uc.notifier.Send(ctx, l.BorrowerPhone, ReminderMessage(l, productName))
	uc.metrics.ReminderDispatched(sent)
	if !sent {
		warn("no se pudo enviar el recordatorio")
	}
	return sent
}

// GetByID devuelve un préstamo.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// List lista préstamos con filtros.
func (uc *UseCase) List(ctx context.Context, filter repository.LoanFilter) ([]*entity.Loan, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Invalid("estado de préstamo desconocido")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.loanRepo.List(ctx, filter)
}

// Stats número de préstamos por estado.
func (uc *UseCase) Stats(ctx context.Context) (map[entity.LoanStatus]int, error) {
	return uc.loanRepo.CountByStatus(ctx)
}
