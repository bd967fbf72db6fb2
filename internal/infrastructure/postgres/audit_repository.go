package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo registro de auditoría append-only sobre PostgreSQL.
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepository construye el adaptador de auditoría.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create inserta una entrada.
func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditEntry) error {
	details := e.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.Action, e.EntityType, e.EntityID, details, e.IPAddress, e.CreatedAt,
	)
	return mapErr("insert audit entry", err)
}

// List entradas filtradas, más recientes primero.
func (r *AuditRepo) List(ctx context.Context, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, details, ip_address, created_at
		FROM audit_logs WHERE true`
	var args []any
	for _, c := range []struct{ col, val string }{
		{"user_id", f.UserID}, {"entity_type", f.EntityType}, {"entity_id", f.EntityID},
	} {
		if c.val == "" {
			continue
		}
		args = append(args, c.val)
		query += fmt.Sprintf(" AND %s = $%d", c.col, len(args))
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
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list audit", err)
	}
	defer rows.Close()
	var list []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
