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

// LocationUseCase CRUD de ubicaciones. Un padre debe existir y ser del mismo tipo que el hijo.
type LocationUseCase struct {
	repo    repository.LocationRepository
	auditor ports.Auditor
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository, auditor ports.Auditor) *LocationUseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	return &LocationUseCase{repo: repo, auditor: auditor}
}

// Create crea una ubicación.
func (uc *LocationUseCase) Create(ctx context.Context, actor Actor, in dto.LocationRequest) (*dto.LocationResponse, error) {
	now := time.Now()
	loc := &entity.Location{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	if err := uc.apply(ctx, loc, in); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	uc.auditor.Record(actor.ID, entity.AuditCreate, "location", loc.ID, map[string]any{"name": loc.Name, "type": loc.Type})
	return toLocationResponse(loc), nil
}

// Update modifica una ubicación.
func (uc *LocationUseCase) Update(ctx context.Context, actor Actor, id string, in dto.LocationRequest) (*dto.LocationResponse, error) {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.apply(ctx, loc, in); err != nil {
		return nil, err
	}
	loc.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, loc); err != nil {
		return nil, err
	}
	uc.auditor.Record(actor.ID, entity.AuditUpdate, "location", loc.ID, map[string]any{"name": loc.Name, "type": loc.Type})
	return toLocationResponse(loc), nil
}

func (uc *LocationUseCase) apply(ctx context.Context, loc *entity.Location, in dto.LocationRequest) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Invalid("name es obligatorio")
	}
	typ := strings.ToUpper(strings.TrimSpace(in.Type))
	if typ == "" {
		typ = entity.LocationPhysical
	}
	if !entity.ValidLocationType(typ) {
		return domain.Invalid("type debe ser PHYSICAL o VIRTUAL")
	}
	if in.ParentID != "" {
		if in.ParentID == loc.ID {
			return domain.Invalid("una ubicación no puede ser su propio padre")
		}
		parent, err := uc.repo.GetByID(ctx, in.ParentID)
		if err != nil {
			return err
		}
		if parent.Type != typ {
			return domain.Invalid(fmt.Sprintf("el padre es %s y la ubicación %s", parent.Type, typ))
		}
	}
	loc.Name = name
	loc.Type = typ
	loc.ParentID = in.ParentID
	loc.Description = in.Description
	return nil
}

// List devuelve todas las ubicaciones.
func (uc *LocationUseCase) List(ctx context.Context) ([]dto.LocationResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		out = append(out, *toLocationResponse(l))
	}
	return out, nil
}

// Delete elimina una ubicación sin hijos ni stock.
func (uc *LocationUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	has, err := uc.repo.HasDependents(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: la ubicación %s tiene hijos o stock", domain.ErrConflict, loc.Name)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.auditor.Record(actor.ID, entity.AuditDelete, "location", id, map[string]any{"name": loc.Name})
	return nil
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		ID:          l.ID,
		Name:        l.Name,
		Type:        l.Type,
		ParentID:    l.ParentID,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
	}
}
