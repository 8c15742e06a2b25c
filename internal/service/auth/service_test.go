package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("Secret1!")
	require.NoError(t, err)

	u := &model.User{Name: "Dana Reyes", Email: "dana@example.com", PasswordHash: hash, Role: model.RoleBHCM}
	require.NoError(t, store.Users().Create(ctx, u))

	jwtSvc := auth.NewJWTService("test-secret", "collabcare-api", time.Hour)
	svc := NewService(store.Users(), jwtSvc, hasher, audit.NewService(store.Audit()))

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "dana@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.InDelta(t, 3600, resp.ExpiresIn, 5)

	claims, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleBHCM, claims.Role)

	logs, _, err := store.Audit().List(ctx, model.AuditFilter{UserID: &u.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionLogin, logs[0].Action)

	for _, req := range []*model.LoginRequest{
		{Email: "dana@example.com", Password: "Wrong1!!"},
		{Email: "nobody@example.com", Password: "Secret1!"},
	} {
		_, err := svc.Login(ctx, req)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	}

	_, err = svc.ValidateToken(ctx, "not-a-token")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}
