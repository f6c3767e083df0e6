package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehiscan/vehiscan/internal/models"
	"github.com/vehiscan/vehiscan/internal/services"
)

type mockAuthService struct {
	LoginFunc        func(ctx context.Context, email, password string) (*services.AuthResponse, error)
	RegisterFunc     func(ctx context.Context, email, password, name, phone string) (*services.AuthResponse, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResponse, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name, phone string) (*services.AuthResponse, error) {
	return m.RegisterFunc(ctx, email, password, name, phone)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			assert.Equal(t, "juan@example.com", email)
			return &services.AuthResponse{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				User:         &services.UserResponse{ID: "user123", Email: "juan@example.com"},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/auth/login", `{"email":"juan@example.com","password":"Passw0rd123"}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "user123", resp.User.ID)
}

func TestAuthHandler_Login_InvalidCredentialsKeepsNotice(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			return nil, &services.LoginDeniedError{
				Notice:    "Invalid email or password. You have 2 attempt(s) remaining before your account is locked.",
				Remaining: 0,
			}
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/auth/login", `{"email":"juan@example.com","password":"wrong"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "2 attempt(s) remaining")
}

func TestAuthHandler_Login_LockedReturns423(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			return nil, &services.LoginDeniedError{
				Notice: "Too many failed login attempts. Your account has been locked for 10 minutes.",
				Locked: true,
			}
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/auth/login", `{"email":"juan@example.com","password":"wrong"}`))

	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, rec.Body.String(), "locked for 10 minutes")
}

func TestAuthHandler_Login_DisabledAccountIsGeneric(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			return nil, models.ErrAccountDisabled
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/auth/login", `{"email":"juan@example.com","password":"Passw0rd123"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication failed")
	assert.NotContains(t, rec.Body.String(), "disabled")
}

func TestAuthHandler_Login_RejectsMalformedBody(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/auth/login", `{"email":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login_RejectsInvalidEmail(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResponse, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON("/auth/login", `{"email":"not-an-email","password":"Passw0rd123"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, name, phone string) (*services.AuthResponse, error) {
			assert.Equal(t, "Juan Dela Cruz", name)
			return &services.AuthResponse{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				User:         &services.UserResponse{ID: "user123", Email: email},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON("/auth/register",
		`{"email":"juan@example.com","password":"Passw0rd123","name":"Juan Dela Cruz","phone":"+639171234567"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, name, phone string) (*services.AuthResponse, error) {
			return nil, models.ErrConflict
		},
	})

	rec := httptest.NewRecorder()
	handler.Register(rec, postJSON("/auth/register",
		`{"email":"juan@example.com","password":"Passw0rd123","name":"Juan Dela Cruz"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
			assert.Equal(t, "old-refresh", refreshToken)
			return &services.AuthResponse{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Refresh(rec, postJSON("/auth/refresh", `{"refresh_token":"old-refresh"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new-access")
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	handler := NewAuthHandler(&mockAuthService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
			return nil, models.ErrUnauthorized
		},
	})

	rec := httptest.NewRecorder()
	handler.Refresh(rec, postJSON("/auth/refresh", `{"refresh_token":"bogus"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
