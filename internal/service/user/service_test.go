package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(store, security.NewBcryptHasher(bcrypt.MinCost), audit.NewService(store.Audit())), store
}

func TestCreateUser(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	clinic := store.MustClinic("Riverside")

	u, err := svc.CreateUser(ctx, &model.CreateUserRequest{
		Name:      "Dana Reyes",
		Email:     "Dana@Example.com",
		Password:  "Secret1!",
		Role:      model.RoleBHCM,
		ClinicIDs: []uuid.UUID{clinic.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", u.Email)
	require.Len(t, u.Clinics, 1)
	assert.Equal(t, "Riverside", u.Clinics[0].Name)

	stored, err := store.Users().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret1!")))
}

func TestCreateUser_Rejected(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM)

	tests := []struct {
		name string
		req  model.CreateUserRequest
		code apperrors.ErrorCode
	}{
		{"weak password", model.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password", Role: model.RoleBHCM}, apperrors.ErrBadRequest},
		{"password too long", model.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "Secret1!Secret1!", Role: model.RoleBHCM}, apperrors.ErrBadRequest},
		{"unknown role", model.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "Secret1!", Role: "Nurse"}, apperrors.ErrBadRequest},
		{"duplicate email", model.CreateUserRequest{Name: "A", Email: "DANA@example.com", Password: "Secret1!", Role: model.RoleBHCM}, apperrors.ErrConflict},
		{"unknown clinic", model.CreateUserRequest{Name: "A", Email: "b@example.com", Password: "Secret1!", Role: model.RoleBHCM, ClinicIDs: []uuid.UUID{uuid.New()}}, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, &tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.code), err.Error())
		})
	}

	_, err := store.Users().GetByEmail(ctx, "b@example.com")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "unknown clinic rolls the user back")
}

func TestUpdateUser_KeepsPassword(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	clinic := store.MustClinic("Riverside")
	u := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM)

	updated, err := svc.UpdateUser(ctx, u.ID, &model.UpdateUserRequest{
		Name:      "Dana R. Reyes",
		Email:     "dana@example.com",
		Role:      model.RolePsychiatricConsultant,
		ClinicIDs: []uuid.UUID{clinic.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RolePsychiatricConsultant, updated.Role)
	assert.Len(t, updated.Clinics, 1)

	stored, err := store.Users().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", stored.PasswordHash)

	consultants, err := svc.ListConsultants(ctx, clinic.ID)
	require.NoError(t, err)
	require.Len(t, consultants, 1)
	assert.Equal(t, u.ID, consultants[0].ID)
}

func TestDeleteUser(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	u := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	_, err := svc.GetUser(ctx, u.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.True(t, apperrors.Is(svc.DeleteUser(ctx, u.ID), apperrors.ErrNotFound))
}
