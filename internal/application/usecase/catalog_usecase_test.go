package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// ─── Categorías ──────────────────────────────────────────────────────────────

func TestCategory_CreateNormalizaPrefijoYRechazaDuplicados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.categories.Create(ctx, admin, dto.CategoryRequest{Name: "  Elektronik ", Prefix: " elk "})
	require.NoError(t, err)
	assert.Equal(t, "Elektronik", c.Name)
	assert.Equal(t, "ELK", c.Prefix)

	_, err = f.categories.Create(ctx, admin, dto.CategoryRequest{Name: "Elektronik"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.categories.Create(ctx, admin, dto.CategoryRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.categories.Create(ctx, admin, dto.CategoryRequest{Name: "Cables", ParentID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategory_NoPuedeSerSuPropioPadre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.category(t, "Elektronik", "ELK")

	_, err := f.categories.Update(ctx, admin, id, dto.CategoryRequest{Name: "Elektronik", ParentID: id})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCategory_ListCuentaProductosYDeleteConDependientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.category(t, "Elektronik", "ELK")
	child, err := f.categories.Create(ctx, admin, dto.CategoryRequest{Name: "Cables", ParentID: parent})
	require.NoError(t, err)
	_, err = f.products.Create(ctx, admin, dto.CreateProductRequest{Name: "HDMI", CategoryID: child.ID})
	require.NoError(t, err)

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, c := range list {
		counts[c.Name] = c.ProductCount
	}
	assert.Equal(t, map[string]int{"Elektronik": 0, "Cables": 1}, counts)

	assert.ErrorIs(t, f.categories.Delete(ctx, admin, parent), domain.ErrConflict)
	assert.ErrorIs(t, f.categories.Delete(ctx, admin, child.ID), domain.ErrConflict)

	empty := f.category(t, "Vacía", "")
	require.NoError(t, f.categories.Delete(ctx, admin, empty))
}

// ─── Ubicaciones ─────────────────────────────────────────────────────────────

func TestLocation_TipoPorDefectoYPadreDelMismoTipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bodega, err := f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Bodega"})
	require.NoError(t, err)
	assert.Equal(t, "PHYSICAL", bodega.Type)

	estante, err := f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Estante 1", Type: "physical", ParentID: bodega.ID})
	require.NoError(t, err)
	assert.Equal(t, bodega.ID, estante.ParentID)

	_, err = f.locations.Create(ctx, admin, dto.LocationRequest{Name: "En tránsito", Type: "VIRTUAL", ParentID: bodega.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Nube", Type: "CLOUD"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLocation_DeleteConStockOHijosEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Elektronik", "ELK")
	bodega, err := f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Bodega"})
	require.NoError(t, err)
	_, err = f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Estante", ParentID: bodega.ID})
	require.NoError(t, err)
	vitrina, err := f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Vitrina"})
	require.NoError(t, err)
	p, err := f.products.Create(ctx, admin, dto.CreateProductRequest{Name: "Cable", CategoryID: cat})
	require.NoError(t, err)
	_, err = f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: p.ID, ToLocationID: vitrina.ID, Quantity: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, f.locations.Delete(ctx, admin, bodega.ID), domain.ErrConflict)
	assert.ErrorIs(t, f.locations.Delete(ctx, admin, vitrina.ID), domain.ErrConflict)

	libre, err := f.locations.Create(ctx, admin, dto.LocationRequest{Name: "Libre"})
	require.NoError(t, err)
	require.NoError(t, f.locations.Delete(ctx, admin, libre.ID))
	_, err = f.engine.RecordMovement(ctx, inventory.MovementInput{ProductID: p.ID, ToLocationID: libre.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

func TestUser_AsignarVisibilidadValidaCategorias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.viewer(t, "viewer-1")
	cat := f.category(t, "Elektronik", "ELK")

	assert.ErrorIs(t, f.users.AssignCategoryVisibility(ctx, admin, viewer.ID, []string{"nope"}), domain.ErrNotFound)
	assert.ErrorIs(t, f.users.AssignCategoryVisibility(ctx, admin, viewer.ID, []string{""}), domain.ErrValidation)
	assert.ErrorIs(t, f.users.AssignCategoryVisibility(ctx, admin, "ghost", []string{cat}), domain.ErrNotFound)

	require.NoError(t, f.users.AssignCategoryVisibility(ctx, admin, viewer.ID, []string{cat, cat}))
	ids, err := f.store.Users().VisibleCategories(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{cat}, ids)

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "VIEWER", users[0].Role)
}

func (f *fixture) adminUser(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), &entity.User{
		ID: admin.ID, Email: "admin@stockflow.test", Name: "Admin", Role: entity.RoleAdmin, Status: "active",
	}))
}

func strPtr(s string) *string { return &s }

func TestUser_UpdateEditaDatosYContrasena(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.adminUser(t)
	viewer := f.viewer(t, "viewer-1")

	out, err := f.users.Update(ctx, admin, viewer.ID, dto.UpdateUserRequest{
		Name: strPtr("Siti"), Email: strPtr(" SITI@stockflow.test "), Role: strPtr("admin"),
		Status: strPtr("inactive"), Password: strPtr("rahasia-123"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Siti", out.Name)
	assert.Equal(t, "siti@stockflow.test", out.Email)
	assert.Equal(t, entity.RoleAdmin, out.Role)
	assert.Equal(t, "inactive", out.Status)

	stored, err := f.store.Users().GetByID(ctx, viewer.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rahasia-123")))

	// Password vacío conserva el hash.
	_, err = f.users.Update(ctx, admin, viewer.ID, dto.UpdateUserRequest{Password: strPtr("")})
	require.NoError(t, err)
	again, err := f.store.Users().GetByID(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.PasswordHash, again.PasswordHash)
}

func TestUser_UpdateValidaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.adminUser(t)
	viewer := f.viewer(t, "viewer-1")

	_, err := f.users.Update(ctx, admin, viewer.ID, dto.UpdateUserRequest{Email: strPtr("admin@stockflow.test")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.users.Update(ctx, admin, viewer.ID, dto.UpdateUserRequest{Role: strPtr("OWNER")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.users.Update(ctx, admin, viewer.ID, dto.UpdateUserRequest{Password: strPtr("corta")})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.users.Update(ctx, admin, "ghost", dto.UpdateUserRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.users.Update(ctx, admin, admin.ID, dto.UpdateUserRequest{Role: strPtr("VIEWER")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.users.Update(ctx, admin, admin.ID, dto.UpdateUserRequest{Status: strPtr("inactive")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUser_DeleteNoPermiteBorrarseASiMismo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.adminUser(t)
	viewer := f.viewer(t, "viewer-1")
	cat := f.category(t, "Elektronik", "ELK")
	require.NoError(t, f.users.AssignCategoryVisibility(ctx, admin, viewer.ID, []string{cat}))

	assert.ErrorIs(t, f.users.Delete(ctx, admin, admin.ID), domain.ErrForbidden)

	require.NoError(t, f.users.Delete(ctx, admin, viewer.ID))
	_, err := f.store.Users().GetByID(ctx, viewer.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	ids, err := f.store.Users().VisibleCategories(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, f.users.Delete(ctx, admin, viewer.ID), domain.ErrNotFound)
}
