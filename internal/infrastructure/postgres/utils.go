package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/stockflow-api/internal/domain"
)

// Querier lo satisfacen *pgxpool.Pool y pgx.Tx; los repositorios funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isRetryable fallos de serialización y deadlocks: la transacción completa puede repetirse.
func isRetryable(err error) bool {
	code := pgCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// mapErr traduce errores de PostgreSQL a la taxonomía de dominio.
// Los errores reintentables se envuelven sin traducir para que TxRunner los detecte.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, op)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s: referencia inexistente", domain.ErrNotFound, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFoundOr devuelve NotFound si no hubo filas y si no mapea el error.
func notFoundOr(op, entity, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return mapErr(op, err)
}

// nullIfEmpty convierte "" a NULL para columnas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
