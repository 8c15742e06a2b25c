package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.NewStore()
	svc := NewService(store.Clinics(), audit.NewService(store.Audit()), DefaultConfig())
	svc.now = func() time.Time { return time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestClinicCRUD(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.CreateClinic(ctx, &model.ClinicRequest{Name: "  "})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	clinic, err := svc.CreateClinic(ctx, &model.ClinicRequest{Name: "Riverside"})
	require.NoError(t, err)

	updated, err := svc.UpdateClinic(ctx, clinic.ID, &model.ClinicRequest{Name: "Riverside North"})
	require.NoError(t, err)
	assert.Equal(t, "Riverside North", updated.Name)

	clinics, err := svc.ListClinics(ctx)
	require.NoError(t, err)
	assert.Len(t, clinics, 1)

	require.NoError(t, svc.DeleteClinic(ctx, clinic.ID))
	_, err = svc.GetClinic(ctx, clinic.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.UpdateClinic(ctx, uuid.New(), &model.ClinicRequest{Name: "Ghost"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	logs, _, err := store.Audit().List(ctx, model.AuditFilter{EntityType: model.AuditEntityClinic})
	require.NoError(t, err)
	actions := map[string]int{}
	for _, e := range logs {
		actions[e.Action]++
	}
	assert.Equal(t, map[string]int{"create": 1, "update": 1, "delete": 1}, actions)
}

func TestDashboard(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	clinic := store.MustClinic("Riverside")
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)

	p := store.MustPatient(clinic.ID, "A1", model.PatientStatusActive)
	store.MustPatient(clinic.ID, "D1", model.PatientStatusDeactivated)
	store.MustPatient(clinic.ID, "E1", model.PatientStatusEnrolled)
	require.NoError(t, store.Minutes().Create(ctx, &model.MinuteEntry{
		UserID:       manager.ID, PatientID: &p.ID, TotalMinutes: 45,
		TrackingDate: model.NewDate(2024, time.January, 5), Activity: model.ActivityIntake,
	}))

	d, err := svc.Dashboard(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalPatients)
	assert.Equal(t, 1, d.ActivePatients)
	assert.Equal(t, 45, d.TotalMinutesTracked)
	assert.Equal(t, 15, d.AverageMinutesPerPatient)
	assert.Equal(t, 3, d.NewPatientsThisMonth)

	// served from cache until invalidated
	store.MustPatient(clinic.ID, "A2", model.PatientStatusActive)
	d, err = svc.Dashboard(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalPatients)

	svc.InvalidateDashboard(clinic.ID)
	d, err = svc.Dashboard(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, d.TotalPatients)

	_, err = svc.Dashboard(ctx, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListUsers(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	clinic := store.MustClinic("Riverside")
	store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)
	store.MustUser("Outside", "out@example.com", model.RoleBHCM)

	users, err := svc.ListUsers(ctx, clinic.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Dana Reyes", users[0].Name)
}
