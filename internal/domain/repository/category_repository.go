package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category.
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Category, error)
	// ProductCounts número de productos por categoría.
	ProductCounts(ctx context.Context) (map[string]int, error)
	// HasDependents indica si la categoría tiene productos o subcategorías.
	HasDependents(ctx context.Context, id string) (bool, error)
}
