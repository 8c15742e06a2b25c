package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

func seedPatient(t *testing.T, s *Store) *model.Patient {
	t.Helper()
	p := &model.Patient{
		ClinicID:       uuid.New(),
		MRN:            "MRN1",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		DateOfBirth:    model.NewDate(1990, 1, 1),
		EnrollmentDate: model.NewDate(2024, 1, 1),
		Status:         model.PatientStatusEnrolled,
	}
	require.NoError(t, s.Patients().Create(context.Background(), p))
	return p
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedPatient(t, s)

	err := s.WithTx(ctx, func(tx repository.Store) error {
		_, err := tx.Flags().Add(ctx, p.ID, model.FlagSafetyPlan)
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)

	has, err := s.Flags().Has(ctx, p.ID, model.FlagSafetyPlan)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedPatient(t, s)

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx repository.Store) error {
			require.NoError(t, tx.Patients().UpdateStatus(ctx, p.ID, model.PatientStatusDeactivated))
			panic("boom")
		})
	})

	got, err := s.Patients().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusEnrolled, got.Status)
}

func TestWithTx_CommitsAndNests(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedPatient(t, s)

	err := s.WithTx(ctx, func(tx repository.Store) error {
		return tx.WithTx(ctx, func(inner repository.Store) error {
			_, err := inner.Flags().Add(ctx, p.ID, model.FlagPsychiatricConsult)
			return err
		})
	})
	require.NoError(t, err)

	flags, err := s.Flags().List(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.FlagLabel{model.FlagPsychiatricConsult}, flags)
}

func TestFailOn(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("disk full")

	s.FailOn("minutes.create", boom)
	err := s.Minutes().Create(ctx, &model.MinuteEntry{UserID: uuid.New(), TotalMinutes: 5})
	assert.ErrorIs(t, err, boom)

	s.FailOn("minutes.create", nil)
	assert.NoError(t, s.Minutes().Create(ctx, &model.MinuteEntry{UserID: uuid.New(), TotalMinutes: 5}))
}

func TestFlagsAreUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedPatient(t, s)

	added, err := s.Flags().Add(ctx, p.ID, model.FlagSafetyPlan)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Flags().Add(ctx, p.ID, model.FlagSafetyPlan)
	require.NoError(t, err)
	assert.False(t, added)

	flags, _ := s.Flags().List(ctx, p.ID)
	assert.Len(t, flags, 1)
}

func TestAssignments_OneOpenPerType(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedPatient(t, s)

	first := &model.Assignment{UserID: uuid.New(), PatientID: p.ID, ProviderType: model.ProviderBHCM, BeginDate: model.NewDate(2024, 1, 1)}
	require.NoError(t, s.Assignments().Open(ctx, first))

	err := s.Assignments().Open(ctx, &model.Assignment{UserID: uuid.New(), PatientID: p.ID, ProviderType: model.ProviderBHCM})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	require.NoError(t, s.Assignments().Close(ctx, first.ID, model.NewDate(2024, 2, 1)))
	err = s.Assignments().Close(ctx, first.ID, model.NewDate(2024, 2, 1))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPatientCreate_DuplicateMRN(t *testing.T) {
	s := NewStore()
	p := seedPatient(t, s)

	dup := &model.Patient{ClinicID: p.ClinicID, MRN: p.MRN}
	err := s.Patients().Create(context.Background(), dup)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}
