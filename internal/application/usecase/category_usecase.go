package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// CategoryUseCase CRUD de categorías.
type CategoryUseCase struct {
	repo    repository.CategoryRepository
	auditor ports.Auditor
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository, auditor ports.Auditor) *CategoryUseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	return &CategoryUseCase{repo: repo, auditor: auditor}
}

// Create crea una categoría; el prefijo se guarda en mayúsculas.
func (uc *CategoryUseCase) Create(ctx context.Context, actor Actor, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c := &entity.Category{ID: uuid.New().String(), CreatedAt: time.Now()}
	if err := uc.apply(ctx, c, in); err != nil {
		return nil, err
	}
	c.UpdatedAt = c.CreatedAt
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.auditor.Record(actor.ID, entity.AuditCreate, "category", c.ID, map[string]any{"name": c.Name})
	return toCategoryResponse(c, 0), nil
}

// Update modifica nombre, prefijo, descripción o padre.
func (uc *CategoryUseCase) Update(ctx context.Context, actor Actor, id string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.apply(ctx, c, in); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	uc.auditor.Record(actor.ID, entity.AuditUpdate, "category", c.ID, map[string]any{"name": c.Name})
	return toCategoryResponse(c, 0), nil
}

func (uc *CategoryUseCase) apply(ctx context.Context, c *entity.Category, in dto.CategoryRequest) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Invalid("name es obligatorio")
	}
	if in.ParentID != "" {
		if in.ParentID == c.ID {
			return domain.Invalid("una categoría no puede ser su propio padre")
		}
		if _, err := uc.repo.GetByID(ctx, in.ParentID); err != nil {
			return err
		}
	}
	c.Name = name
	c.Prefix = strings.ToUpper(strings.TrimSpace(in.Prefix))
	c.Description = in.Description
	c.ParentID = in.ParentID
	return nil
}

// List devuelve las categorías con su número de productos.
func (uc *CategoryUseCase) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := uc.repo.ProductCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c, counts[c.ID]))
	}
	return out, nil
}

// Delete elimina una categoría sin productos ni subcategorías.
func (uc *CategoryUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	has, err := uc.repo.HasDependents(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: la categoría %s tiene productos o subcategorías", domain.ErrConflict, c.Name)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.auditor.Record(actor.ID, entity.AuditDelete, "category", id, map[string]any{"name": c.Name})
	return nil
}

func toCategoryResponse(c *entity.Category, count int) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Prefix:       c.Prefix,
		Description:  c.Description,
		ParentID:     c.ParentID,
		ProductCount: count,
		CreatedAt:    c.CreatedAt,
	}
}
