package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// MovementFilter criterios de consulta del ledger.
type MovementFilter struct {
	ProductID string
	Type      entity.MovementType
	From, To  *time.Time
	Limit     int
	Offset    int
}

// MovementRepository ledger append-only: no hay Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
}
