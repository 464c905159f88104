package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appidentity "github.com/wikimedia/wikimedia-cz-tracker/internal/application/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/middleware"
)

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, nil, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Username: "newcomer",
		Password: "correct-horse",
		Email:    "newcomer@example.org",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered LoginResponse
	decodeData(t, w, &registered)
	assert.Equal(t, "newcomer", registered.User.Username)
	assert.NotEmpty(t, registered.Token.AccessToken)
	assert.Equal(t, "Bearer", registered.Token.TokenType)

	w = s.do(t, nil, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Username: "newcomer",
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login LoginResponse
	decodeData(t, w, &login)
	assert.NotEmpty(t, login.Token.RefreshToken)

	w = s.do(t, nil, http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: login.Token.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed RefreshTokenResponse
	decodeData(t, w, &refreshed)
	assert.NotEmpty(t, refreshed.Token.AccessToken)
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "wrong password",
			body:       LoginRequest{Username: "requester", Password: "not-the-password"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.ErrCodeInvalidCredentials,
		},
		{
			name:       "unknown user",
			body:       LoginRequest{Username: "nobody", Password: "password123"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   dto.ErrCodeInvalidCredentials,
		},
		{
			name:       "missing password",
			body:       map[string]string{"username": "requester"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, nil, http.MethodPost, "/api/v1/auth/login", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, nil, http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "requester", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login LoginResponse
	decodeData(t, w, &login)

	withToken := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+login.Token.AccessToken)
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		return w
	}

	w = withToken(http.MethodGet, "/api/v1/users/me")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me appidentity.UserDetail
	decodeData(t, w, &me)
	assert.Equal(t, "requester", me.Username)

	w = withToken(http.MethodPost, "/api/v1/auth/logout")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = withToken(http.MethodGet, "/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)
}

func TestAuthHandler_LogoutRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, nil, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, nil, http.MethodGet, "/api/v1/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_InvalidToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil)
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+"garbage")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
}
