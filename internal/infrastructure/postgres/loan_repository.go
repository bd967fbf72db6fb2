package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.LoanRepository = (*LoanRepo)(nil)

const loanColumns = `id, transaction_code, borrower_name, borrower_phone, product_id, qty, loan_date, due_date,
	return_date, status, last_notified_at, notes, created_by, created_at, updated_at`

// LoanRepo implementación del puerto LoanRepository sobre PostgreSQL (usable con pool o tx).
type LoanRepo struct {
	q Querier
}

// NewLoanRepository construye el adaptador de préstamos. Pasar pool o tx (Querier).
func NewLoanRepository(q Querier) *LoanRepo {
	return &LoanRepo{q: q}
}

func scanLoan(row pgx.Row) (*entity.Loan, error) {
	var l entity.Loan
	err := row.Scan(&l.ID, &l.TransactionCode, &l.BorrowerName, &l.BorrowerPhone, &l.ProductID, &l.Qty,
		&l.LoanDate, &l.DueDate, &l.ReturnDate, &l.Status, &l.LastNotifiedAt, &l.Notes, &l.CreatedBy,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLoans(rows pgx.Rows) ([]*entity.Loan, error) {
	defer rows.Close()
	var list []*entity.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Create persiste un préstamo. Código duplicado devuelve ErrConflict.
func (r *LoanRepo) Create(ctx context.Context, l *entity.Loan) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		l.ID, l.TransactionCode, l.BorrowerName, l.BorrowerPhone, l.ProductID, l.Qty, l.LoanDate, l.DueDate,
		l.ReturnDate, l.Status, l.LastNotifiedAt, l.Notes, l.CreatedBy, l.CreatedAt, l.UpdatedAt,
	)
	return mapErr("insert loan", err)
}

// GetByID obtiene un préstamo por ID.
func (r *LoanRepo) GetByID(ctx context.Context, id string) (*entity.Loan, error) {
	l, err := scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get loan", "préstamo", id, err)
	}
	return l, nil
}

// GetForUpdate obtiene el préstamo y bloquea la fila (SELECT FOR UPDATE).
func (r *LoanRepo) GetForUpdate(ctx context.Context, id string) (*entity.Loan, error) {
	l, err := scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr("get loan for update", "préstamo", id, err)
	}
	return l, nil
}

// UpdateStatus compare-and-set sobre el estado.
func (r *LoanRepo) UpdateStatus(ctx context.Context, l *entity.Loan, expected entity.LoanStatus) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE loans SET status = $2, return_date = $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		l.ID, l.Status, l.ReturnDate, l.UpdatedAt, expected,
	)
	if err != nil {
		return mapErr("update loan status", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: el préstamo %s cambió de estado", domain.ErrConflict, l.ID)
	}
	return nil
}

// MarkOverdue una sola sentencia; repetirla no cambia nada.
func (r *LoanRepo) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE loans SET status = 'OVERDUE', updated_at = $1
		WHERE status = 'ACTIVE' AND due_date < $1`, now)
	if err != nil {
		return 0, mapErr("mark overdue", err)
	}
	return int(cmd.RowsAffected()), nil
}

// ListDueForReminder OVERDUE sin notificar o notificados antes de cutoff.
func (r *LoanRepo) ListDueForReminder(ctx context.Context, cutoff time.Time) ([]*entity.Loan, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE status = 'OVERDUE' AND (last_notified_at IS NULL OR last_notified_at < $1)
		ORDER BY due_date`, cutoff)
	if err != nil {
		return nil, mapErr("list loans due for reminder", err)
	}
	return collectLoans(rows)
}

// ClaimReminder reclama el recordatorio con una actualización condicional.
func (r *LoanRepo) ClaimReminder(ctx context.Context, id string, at, cutoff time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE loans SET last_notified_at = $2
		WHERE id = $1 AND status = 'OVERDUE' AND (last_notified_at IS NULL OR last_notified_at < $3)`,
		id, at, cutoff)
	if err != nil {
		return false, mapErr("claim reminder", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ReleaseReminder deshace un reclamo cuyo envío falló.
func (r *LoanRepo) ReleaseReminder(ctx context.Context, id string, claimedAt time.Time, previous *time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE loans SET last_notified_at = $3
		WHERE id = $1 AND last_notified_at = $2`, id, claimedAt, previous)
	if err != nil {
		return mapErr("release reminder", err)
	}
	return nil
}

// TouchNotified registra el último recordatorio enviado.
func (r *LoanRepo) TouchNotified(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE loans SET last_notified_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapErr("touch notified", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("préstamo", id)
	}
	return nil
}

// List préstamos filtrados, más recientes primero.
func (r *LoanRepo) List(ctx context.Context, f repository.LoanFilter) ([]*entity.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE true`
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND (borrower_name ILIKE $%d OR transaction_code ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list loans", err)
	}
	return collectLoans(rows)
}

// CountByStatus número de préstamos por estado.
func (r *LoanRepo) CountByStatus(ctx context.Context) (map[entity.LoanStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, count(*) FROM loans GROUP BY status`)
	if err != nil {
		return nil, mapErr("count loans", err)
	}
	defer rows.Close()
	counts := map[entity.LoanStatus]int{}
	for rows.Next() {
		var s entity.LoanStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scan loan count: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}
