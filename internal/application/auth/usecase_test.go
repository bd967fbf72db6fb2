package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stockflow-api/internal/application/auth"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockflow-api/pkg/jwt"
)

const secret = "test-secret"

var admin = usecase.Actor{ID: "admin-1", Role: entity.RoleAdmin}

func newAuth(store *memory.Store) *auth.AuthUseCase {
	return auth.NewAuthUseCase(store.Users(), nil, auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "stockflow-test"})
}

func TestRegisterYLogin(t *testing.T) {
	store := memory.New()
	uc := newAuth(store)
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, admin, dto.CreateUserRequest{Email: " Ana@Stockflow.test ", Password: "supersecreta"})
	require.NoError(t, err)
	assert.Equal(t, "ana@stockflow.test", u.Email)
	assert.Equal(t, entity.RoleViewer, u.Role)
	assert.Equal(t, "ana@stockflow.test", u.Name)

	stored, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "supersecreta", stored.PasswordHash)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "ANA@stockflow.test", Password: "supersecreta"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.User.ID)

	userID, role, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, entity.RoleViewer, role)
}

func TestRegister_Validaciones(t *testing.T) {
	uc := newAuth(memory.New())
	ctx := context.Background()
	cases := map[string]dto.CreateUserRequest{
		"email sin arroba": {Email: "ana", Password: "supersecreta"},
		"contraseña corta": {Email: "ana@x.test", Password: "corta"},
		"rol desconocido":  {Email: "ana@x.test", Password: "supersecreta", Role: "ROOT"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.RegisterUser(ctx, admin, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc := newAuth(memory.New())
	ctx := context.Background()
	in := dto.CreateUserRequest{Email: "ana@x.test", Password: "supersecreta", Role: "admin"}

	u, err := uc.RegisterUser(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)

	_, err = uc.RegisterUser(ctx, admin, in)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogin_CredencialesInvalidasMismoError(t *testing.T) {
	uc := newAuth(memory.New())
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, admin, dto.CreateUserRequest{Email: "ana@x.test", Password: "supersecreta"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@x.test", Password: "otraclave"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@x.test", Password: "supersecreta"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	store := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecreta"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(context.Background(), &entity.User{
		ID: "u1", Email: "baja@x.test", PasswordHash: string(hash), Role: entity.RoleViewer, Status: "inactive",
	}))

	_, err = newAuth(store).Login(context.Background(), dto.LoginRequest{Email: "baja@x.test", Password: "supersecreta"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
