package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User y su visibilidad de categorías.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	// Update persiste email, hash, nombre, rol y estado. Email duplicado devuelve ErrConflict.
	Update(ctx context.Context, user *entity.User) error
	// Delete elimina el usuario y su visibilidad de categorías.
	Delete(ctx context.Context, id string) error
	// SetVisibleCategories reemplaza el conjunto de categorías visibles del usuario.
	SetVisibleCategories(ctx context.Context, userID string, categoryIDs []string) error
	VisibleCategories(ctx context.Context, userID string) ([]string, error)
}
