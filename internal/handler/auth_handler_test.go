package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wedding-dispatch-api/internal/middleware"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/internal/service"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type authServiceMock struct {
	changedFor int64
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "1234" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Name: "Kim", Username: req.Username, Role: models.RolePhotographer}}, nil
}

func (m *authServiceMock) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	m.changedFor = userID
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	c, rec := jsonContext(http.MethodPost, "/login", `{"username":"kim","password":"1234"}`)
	h.Login(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.LoginResponse
	decodeEnvelope(t, rec, &res)
	assert.Equal(t, "token", res.AccessToken)

	c, rec = jsonContext(http.MethodPost, "/login", `{"username":"kim","password":"nope"}`)
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerChangePasswordUsesToken(t *testing.T) {
	svc := &authServiceMock{}
	h := NewAuthHandler(svc)

	c, rec := jsonContext(http.MethodPost, "/api/me/password", `{"old_password":"1234","new_password":"5678"}`)
	c.Set(middleware.ContextUserKey, photographerClaims())
	h.ChangePassword(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(2), svc.changedFor)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	claims := photographerClaims()
	claims.Subject = "kim"
	c, rec := newContext(http.MethodGet, "/api/me", nil, claims)
	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var info models.UserInfo
	decodeEnvelope(t, rec, &info)
	assert.Equal(t, "kim", info.Username)
	assert.Equal(t, models.RolePhotographer, info.Role)
}

func TestMetricsHandlerReady(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectPing()
	h := NewMetricsHandler(service.NewMetricsService(), db)
	c, rec := newContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	c, rec = newContext(http.MethodGet, "/ready", nil, nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsHandlerServesPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/admin/alerts", http.StatusOK, 0)
	h := NewMetricsHandler(metrics, nil)

	c, rec := newContext(http.MethodGet, "/metrics", nil, nil)
	h.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/admin/alerts"`)
}
