package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type mockAuthRepo struct {
	users       map[string]*models.Photographer
	findErr     error
	adminErr    error
	created     []*models.Photographer
	passwordSet map[int64]string
}

func newMockAuthRepo(users ...*models.Photographer) *mockAuthRepo {
	repo := &mockAuthRepo{users: make(map[string]*models.Photographer), passwordSet: make(map[int64]string)}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.Photographer, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.Photographer, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) AdminExists(ctx context.Context) (bool, error) {
	if m.adminErr != nil {
		return false, m.adminErr
	}
	for _, u := range m.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAuthRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error {
	p.ID = int64(len(m.users) + 1)
	m.users[p.Username] = p
	m.created = append(m.created, p)
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	m.passwordSet[id] = passwordHash
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func hashed(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "dispatch"})
}

func TestAuthServiceLoginIssuesPhotographerToken(t *testing.T) {
	repo := newMockAuthRepo(&models.Photographer{ID: 3, Name: "Kim", Username: "kim", PasswordHash: hashed(t, "1234"), Status: models.PhotographerActive})
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: " kim ", Password: "1234"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RolePhotographer, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Kim", claims.Name)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, models.RolePhotographer, claims.Role)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	repo := newMockAuthRepo(&models.Photographer{ID: 3, Name: "Kim", Username: "kim", PasswordHash: hashed(t, "1234")})
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "1234"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "kim"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.findErr = errors.New("db down")
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "1234"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAuthServiceLoginRejectsInactive(t *testing.T) {
	repo := newMockAuthRepo(&models.Photographer{ID: 3, Name: "Kim", Username: "kim", PasswordHash: hashed(t, "1234"), Status: models.PhotographerInactive})

	_, err := newTestAuthService(repo).Login(context.Background(), models.LoginRequest{Username: "kim", Password: "1234"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockAuthRepo(&models.Photographer{ID: 1, Name: "Kim", Username: "kim", PasswordHash: hashed(t, "1234")})
	resp, err := newTestAuthService(repo).Login(context.Background(), models.LoginRequest{Username: "kim", Password: "1234"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceEnsureAdminIsIdempotent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)
	boot := AdminBootstrap{Username: "admin", Password: "admin1234", Name: "관리자"}

	created, err := svc.EnsureAdmin(context.Background(), boot)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, repo.created, 1)
	assert.True(t, repo.created[0].IsAdmin)
	assert.Equal(t, "관리자", repo.created[0].Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("admin1234")))

	created, err = svc.EnsureAdmin(context.Background(), boot)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.created, 1)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin1234"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
}

func TestAuthServiceEnsureAdminRefusesTakenUsername(t *testing.T) {
	repo := newMockAuthRepo(&models.Photographer{ID: 1, Name: "Admin Kim", Username: "admin"})

	_, err := newTestAuthService(repo).EnsureAdmin(context.Background(), AdminBootstrap{Username: "admin", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo(&models.Photographer{ID: 7, Name: "Kim", Username: "kim", PasswordHash: hashed(t, "1234")})
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), 7, models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "5678"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.ChangePassword(context.Background(), 7, models.ChangePasswordRequest{OldPassword: "1234", NewPassword: "5678"}))
	assert.Contains(t, repo.passwordSet, int64(7))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "kim", Password: "5678"})
	assert.NoError(t, err)
}
