package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/auth"
	jwtauth "github.com/jwalitptl/collabcare-api/pkg/auth"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

func TestLogin(t *testing.T) {
	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("Secret1!")
	require.NoError(t, err)
	u := &model.User{Name: "Dana Reyes", Email: "dana@example.com", PasswordHash: hash, Role: model.RoleBHCM}
	require.NoError(t, store.Users().Create(context.Background(), u))

	svc := auth.NewService(store.Users(), jwtauth.NewJWTService("test-secret", "collabcare-api", time.Hour), hasher, audit.NewService(store.Audit()))
	r, api := handlertest.Engine(t, nil)
	NewHandler(svc).RegisterRoutes(api)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"valid credentials", map[string]string{"email": "dana@example.com", "password": "Secret1!"}, http.StatusOK},
		{"wrong password", map[string]string{"email": "dana@example.com", "password": "Wrong1!!"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "Secret1!"}, http.StatusUnauthorized},
		{"malformed email", map[string]string{"email": "dana", "password": "Secret1!"}, http.StatusBadRequest},
		{"malformed json", "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := handlertest.Do(t, r, http.MethodPost, "/api/v1/auth/login", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var resp model.LoginResponse
			handlertest.Decode(t, w, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, u.ID, resp.User.ID)
		})
	}
}
