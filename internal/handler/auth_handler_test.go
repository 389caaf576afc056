package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markaz-dev/markaz-api/internal/middleware"
	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/internal/service"
	"github.com/markaz-dev/markaz-api/pkg/config"
)

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		cp := *s.user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		cp := *s.user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func buildAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubUserRepo{user: &models.User{
		ID:           "u-1",
		Email:        "admin@markaz.uz",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}}
	authSvc := service.NewAuthService(repo, config.JWTConfig{Secret: "test", Expiration: time.Hour, Issuer: "markaz-api"}, nil, nil)

	router := gin.New()
	authHandler := NewAuthHandler(authSvc)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAuthRoutes(t *testing.T) {
	router := buildAuthRouter(t)

	t.Run("login success", func(t *testing.T) {
		body := bytes.NewBufferString(`{"email":"admin@markaz.uz","password":"secret123"}`)
		req, _ := http.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"access_token"`)
	})

	t.Run("login wrong password", func(t *testing.T) {
		body := bytes.NewBufferString(`{"email":"admin@markaz.uz","password":"nope"}`)
		req, _ := http.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("me without token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("me with token", func(t *testing.T) {
		body := bytes.NewBufferString(`{"email":"admin@markaz.uz","password":"secret123"}`)
		loginReq, _ := http.NewRequest(http.MethodPost, "/auth/login", body)
		loginReq.Header.Set("Content-Type", "application/json")
		loginResp := performRequest(router, loginReq)
		require.Equal(t, http.StatusOK, loginResp.Code)

		var envelope struct {
			Data models.LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &envelope))

		req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+envelope.Data.AccessToken)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), `"admin@markaz.uz"`)
	})
}
