package safetyplan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

func setup(t *testing.T) (*memory.Store, *Service, *model.Patient, *model.User) {
	t.Helper()
	store := memory.NewStore()
	clinic := store.MustClinic("Riverside")
	cm := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)
	p := store.MustPatient(clinic.ID, "MRN200", model.PatientStatusActive)
	return store, NewService(store, event.NewEmitter(true), metrics.NewNop()), p, cm
}

func flags(t *testing.T, store *memory.Store, patientID uuid.UUID) []model.FlagLabel {
	t.Helper()
	out, err := store.Flags().List(context.Background(), patientID)
	require.NoError(t, err)
	return out
}

func TestCreateFlag_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, svc, p, _ := setup(t)

	res, err := svc.CreateFlag(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, res.FlagChanged)

	res, err = svc.CreateFlag(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, res.FlagChanged)
	assert.True(t, res.FlagActive)

	assert.Equal(t, []model.FlagLabel{model.FlagSafetyPlan}, flags(t, store, p.ID))
	history, err := svc.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.SafetyPlanCreated, history[0].Action)
	assert.Len(t, store.Events(), 1)
}

func TestCreateFlag_UnknownPatient(t *testing.T) {
	_, svc, _, _ := setup(t)
	_, err := svc.CreateFlag(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestComplete_WithoutActivePlan(t *testing.T) {
	ctx := context.Background()
	store, svc, p, cm := setup(t)

	_, err := svc.Complete(ctx, &model.CompleteSafetyPlanRequest{PatientID: p.ID, ResolvedBy: cm.ID, Minutes: 10})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, flags(t, store, p.ID))
	assert.Empty(t, store.Entries())

	history, err := svc.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestComplete_ResolvesPlan(t *testing.T) {
	ctx := context.Background()
	store, svc, p, cm := setup(t)
	_, err := svc.CreateFlag(ctx, p.ID)
	require.NoError(t, err)

	res, err := svc.Complete(ctx, &model.CompleteSafetyPlanRequest{
		PatientID: p.ID, ResolvedBy: cm.ID, Minutes: 15, Notes: "Reviewed coping strategies",
	})
	require.NoError(t, err)
	assert.False(t, res.FlagActive)
	assert.Empty(t, flags(t, store, p.ID))

	status, err := svc.Status(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, status.Active)
	require.NotNil(t, status.LastEvent)
	assert.Equal(t, model.SafetyPlanResolved, status.LastEvent.Action)
	assert.Equal(t, &cm.ID, status.LastEvent.ResolvedBy)
	require.NotNil(t, status.LastEvent.Minutes)
	assert.Equal(t, 15, *status.LastEvent.Minutes)
	require.NotNil(t, status.LastEvent.Notes)
	assert.Equal(t, "Reviewed coping strategies", *status.LastEvent.Notes)

	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActivitySafetyPlan, entries[0].Activity)
	assert.Equal(t, 15, entries[0].TotalMinutes)

	_, err = svc.Complete(ctx, &model.CompleteSafetyPlanRequest{PatientID: p.ID, ResolvedBy: cm.ID})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestComplete_HistoryFailureRollsBackFlag(t *testing.T) {
	ctx := context.Background()
	store, svc, p, cm := setup(t)
	_, err := svc.CreateFlag(ctx, p.ID)
	require.NoError(t, err)

	store.FailOn("safety_plans.append_history", errors.New("write failed"))
	_, err = svc.Complete(ctx, &model.CompleteSafetyPlanRequest{PatientID: p.ID, ResolvedBy: cm.ID, Minutes: 5})
	require.Error(t, err)

	assert.Equal(t, []model.FlagLabel{model.FlagSafetyPlan}, flags(t, store, p.ID))
	assert.Empty(t, store.Entries())
}

func TestSaveDocument(t *testing.T) {
	ctx := context.Background()
	store, svc, p, cm := setup(t)

	res, err := svc.SaveDocument(ctx, &model.CreateSafetyPlanRequest{
		PatientID:   p.ID,
		CreatedBy:   cm.ID,
		ContactDate: "2024-04-02",
		Minutes:     20,
	})
	require.NoError(t, err)
	assert.True(t, res.FlagActive)
	assert.True(t, res.FlagChanged)
	assert.Equal(t, []model.FlagLabel{model.FlagSafetyPlan}, flags(t, store, p.ID))

	res, err = svc.SaveDocument(ctx, &model.CreateSafetyPlanRequest{
		PatientID:           p.ID,
		CreatedBy:           cm.ID,
		ContactDate:         "2024-04-09",
		SafetyPlanDiscussed: true,
		Minutes:             10,
	})
	require.NoError(t, err)
	assert.False(t, res.FlagActive)
	assert.True(t, res.FlagChanged)
	assert.Empty(t, flags(t, store, p.ID))

	latest, err := svc.Latest(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, latest.ID)
	assert.Equal(t, "2024-04-09", latest.ContactDate.String())

	entries := store.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.NotNil(t, e.SafetyPlanID)
	}

	history, err := svc.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.SafetyPlanResolved, history[0].Action)
}

func TestSaveDocument_Validation(t *testing.T) {
	_, svc, p, cm := setup(t)
	_, err := svc.SaveDocument(context.Background(), &model.CreateSafetyPlanRequest{
		PatientID: p.ID, CreatedBy: cm.ID, ContactDate: "yesterday", Minutes: 10,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
