package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// AuditFilter criterios de consulta de la auditoría.
type AuditFilter struct {
	UserID     string
	EntityType string
	EntityID   string
	Limit      int
	Offset     int
}

// AuditRepository registro append-only.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]*entity.AuditEntry, error)
}
