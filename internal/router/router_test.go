package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/config"
	"github.com/jwalitptl/collabcare-api/internal/handler/health"
	promHandler "github.com/jwalitptl/collabcare-api/internal/handler/prometheus"
	"github.com/jwalitptl/collabcare-api/internal/middleware"
	"github.com/jwalitptl/collabcare-api/internal/model"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

type stubTokens map[string]model.Role

func (s stubTokens) ValidateToken(_ context.Context, token string) (*model.TokenClaims, error) {
	role, ok := s[token]
	if !ok {
		return nil, apperrors.Unauthorized(errors.New("bad token"))
	}
	return &model.TokenClaims{Role: role}, nil
}

type stubHandler string

func (s stubHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/"+string(s), func(c *gin.Context) { c.Status(http.StatusOK) })
}

type stubAdminHandler string

func (s stubAdminHandler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	r.GET("/"+string(s), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/"+string(s), adminOnly, func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func newTestRouter(t *testing.T, ready error) *Router {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode, MaxBodyBytes: 1 << 20},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	handlers := Handlers{
		Auth:       stubHandler("auth/ping"),
		Patient:    stubHandler("patients"),
		Clinical:   stubHandler("contact-attempts"),
		SafetyPlan: stubHandler("safety-plans"),
		Reminder:   stubHandler("reminders"),
		Psych:      stubHandler("psych"),
		Report:     stubHandler("reports"),
		Clinic:     stubAdminHandler("clinics"),
		User:       stubAdminHandler("users"),
		Audit:      stubAdminHandler("audit"),
	}
	healthH := health.NewHandler(map[string]health.Check{
		"database": func(context.Context) error { return ready },
	})

	r, err := NewRouter(
		cfg,
		middleware.NewAuthMiddleware(stubTokens{"admin": model.RoleAdmin, "bhcm": model.RoleBHCM}),
		handlers,
		healthH,
		promHandler.New("collabcare", prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	return r
}

func do(r *Router, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestRouterAccess(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"public auth", http.MethodGet, "/api/v1/auth/ping", "", http.StatusOK},
		{"liveness", http.MethodGet, "/api/v1/health/live", "", http.StatusOK},
		{"readiness", http.MethodGet, "/api/v1/health/ready", "", http.StatusOK},
		{"metrics", http.MethodGet, "/api/v1/health/metrics", "", http.StatusOK},
		{"no token", http.MethodGet, "/api/v1/patients", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/patients", "forged", http.StatusUnauthorized},
		{"care manager read", http.MethodGet, "/api/v1/clinics", "bhcm", http.StatusOK},
		{"care manager admin write", http.MethodDelete, "/api/v1/users", "bhcm", http.StatusForbidden},
		{"admin write", http.MethodDelete, "/api/v1/audit", "admin", http.StatusNoContent},
		{"unknown route", http.MethodGet, "/api/v1/nowhere", "admin", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouterReadinessFailure(t *testing.T) {
	r := newTestRouter(t, errors.New("connection refused"))

	w := do(r, http.MethodGet, "/api/v1/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "DOWN")
}
