package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// UserUseCase administración de usuarios y su visibilidad de categorías. El alta vive en auth.
type UserUseCase struct {
	repo         repository.UserRepository
	categoryRepo repository.CategoryRepository
	auditor      ports.Auditor
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, categoryRepo repository.CategoryRepository, auditor ports.Auditor) *UserUseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	return &UserUseCase{repo: repo, categoryRepo: categoryRepo, auditor: auditor}
}

// List devuelve todos los usuarios.
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, ToUserResponse(u))
	}
	return out, nil
}

const minUserPasswordLen = 8

// Update edita nombre, email, rol, estado o contraseña. Un admin no puede quitarse
// a sí mismo el rol ni desactivarse.
func (uc *UserUseCase) Update(ctx context.Context, actor Actor, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name no puede estar vacío")
		}
		u.Name = name
		changed["name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, domain.Invalid("email inválido")
		}
		u.Email = email
		changed["email"] = email
	}
	if in.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*in.Role))
		if role != entity.RoleAdmin && role != entity.RoleViewer {
			return nil, domain.Invalid("role debe ser ADMIN o VIEWER")
		}
		u.Role = role
		changed["role"] = role
	}
	if in.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*in.Status))
		if status != "active" && status != "inactive" {
			return nil, domain.Invalid("status debe ser active o inactive")
		}
		u.Status = status
		changed["status"] = status
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < minUserPasswordLen {
			return nil, domain.Invalid("la contraseña debe tener al menos 8 caracteres")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
		changed["password"] = "changed"
	}
	if id == actor.ID && (u.Role != entity.RoleAdmin || u.Status != "active") {
		return nil, fmt.Errorf("%w: no puede quitarse el rol de administrador ni desactivarse", domain.ErrForbidden)
	}
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	uc.auditor.Record(actor.ID, entity.AuditUpdate, "user", id, changed)
	out := ToUserResponse(u)
	return &out, nil
}

// Delete elimina un usuario. Nadie puede eliminar su propia cuenta.
func (uc *UserUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	if id == actor.ID {
		return fmt.Errorf("%w: no puede eliminar su propia cuenta", domain.ErrForbidden)
	}
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.auditor.Record(actor.ID, entity.AuditDelete, "user", id, map[string]any{"name": u.Name, "email": u.Email})
	return nil
}

// AssignCategoryVisibility reemplaza las categorías visibles de un usuario.
func (uc *UserUseCase) AssignCategoryVisibility(ctx context.Context, actor Actor, userID string, categoryIDs []string) error {
	if _, err := uc.repo.GetByID(ctx, userID); err != nil {
		return err
	}
	seen := make(map[string]bool, len(categoryIDs))
	ids := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		if id == "" {
			return domain.Invalid("category_id vacío")
		}
		if seen[id] {
			continue
		}
		if _, err := uc.categoryRepo.GetByID(ctx, id); err != nil {
			return err
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := uc.repo.SetVisibleCategories(ctx, userID, ids); err != nil {
		return err
	}
	uc.auditor.Record(actor.ID, entity.AuditUpdate, "user", userID, map[string]any{"category_visibility": ids})
	return nil
}

// ToUserResponse convierte un usuario a DTO (sin hash).
func ToUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
