package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpark_manager/internal/domain"
	"carpark_manager/internal/repository"
)

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := m.users[user.Username]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	u := *user
	u.CreatedAt = time.Now()
	m.users[u.Username] = u
	cp := u
	return &cp, nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (m *mockUserRepo) FindAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		u.Password = ""
		out = append(out, u)
	}
	return out, nil
}

func newAuthService() (*AuthService, *mockUserRepo) {
	repo := newMockUserRepo()
	return NewAuthService(repo, "test-secret", time.Hour), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "carol", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.Equal(t, "user", user.Role)
	assert.Empty(t, user.Password, "hash must not be returned")

	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "carol", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "carol", resp.Username)
	assert.Equal(t, "user", resp.Role)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "dup", Password: "pass1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.RegisterUserDTO{Username: "dup", Password: "pass2"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "carol", Password: "right"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginUserDTO{Username: "carol", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginUserDTO{Username: "ghost", Password: "any"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "op", Password: "secret", Role: "admin"})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "op", Password: "secret"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "op", claims["username"])
	assert.Equal(t, "admin", claims["role"])

	_, err = svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Token signed with another secret is rejected.
	other := NewAuthService(newMockUserRepo(), "other-secret", time.Hour)
	_, err = other.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	svc, repo := newAuthService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "admin"))
	u, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)

	// Idempotent on an existing account.
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "different"))
	resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}
