package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

type fixture struct {
	store     *memory.Store
	svc       *Service
	patientID uuid.UUID
	manager   *model.User
}

func setup(t *testing.T, today model.Date) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	clinic := &model.Clinic{Name: "Riverside"}
	require.NoError(t, store.Clinics().Create(ctx, clinic))
	manager := &model.User{Name: "Dana Reyes", Email: "dana@example.com", Role: model.RoleBHCM}
	require.NoError(t, store.Users().Create(ctx, manager))
	patient := &model.Patient{
		ClinicID:       clinic.ID,
		MRN:            "MRN100",
		FirstName:      "Ada",
		LastName:       "Stone",
		DateOfBirth:    model.NewDate(1980, time.May, 2),
		EnrollmentDate: model.NewDate(2024, time.January, 1),
		Status:         model.PatientStatusActive,
	}
	require.NoError(t, store.Patients().Create(ctx, patient))

	svc := NewService(store, event.NewEmitter(true), metrics.NewNop())
	svc.now = func() time.Time { return today.Time.Add(9 * time.Hour) }
	return &fixture{store: store, svc: svc, patientID: patient.ID, manager: manager}
}

func (f *fixture) schedule(t *testing.T, contactDate string) *model.Reminder {
	t.Helper()
	r, err := f.svc.Schedule(context.Background(), &model.CreateReminderRequest{
		PatientID:      f.patientID,
		CareManagerID:  f.manager.ID,
		AssessmentType: "PHQ-9",
		ContactDate:    contactDate,
	})
	require.NoError(t, err)
	return r
}

func TestSchedule_DueDateIsSevenDaysLater(t *testing.T) {
	tests := []struct {
		contact string
		due     string
	}{
		{"2024-01-01", "2024-01-08"},
		{"2024-02-25", "2024-03-03"},
		{"2023-12-28", "2024-01-04"},
		{"2023-02-25", "2023-03-04"},
		{"2024-03-01T15:30:00Z", "2024-03-08"},
	}
	for _, tt := range tests {
		t.Run(tt.contact, func(t *testing.T) {
			f := setup(t, model.NewDate(2024, time.January, 1))
			r := f.schedule(t, tt.contact)
			assert.Equal(t, tt.due, r.DueDate.String())
			assert.Equal(t, model.ReminderPending, r.Status)
			assert.Equal(t, "PHQ-9 due for patient", r.Description)
		})
	}
}

func TestSchedule_EmitsEvent(t *testing.T) {
	f := setup(t, model.NewDate(2024, time.January, 1))
	r := f.schedule(t, "2024-01-01")

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventReminderCreated, events[0].EventType)
	assert.Equal(t, r.ID, events[0].AggregateID)
}

func TestSchedule_InvalidContactDate(t *testing.T) {
	f := setup(t, model.NewDate(2024, time.January, 1))
	for _, date := range []string{"", "01/02/2024", "2024-13-01"} {
		_, err := f.svc.Schedule(context.Background(), &model.CreateReminderRequest{
			PatientID: f.patientID, CareManagerID: f.manager.ID, AssessmentType: "GAD-7", ContactDate: date,
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest), date)
	}
	pending, err := f.svc.ListForPatient(context.Background(), f.patientID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSchedule_UnknownPatient(t *testing.T) {
	f := setup(t, model.NewDate(2024, time.January, 1))
	_, err := f.svc.Schedule(context.Background(), &model.CreateReminderRequest{
		PatientID: uuid.New(), CareManagerID: f.manager.ID, AssessmentType: "PHQ-9", ContactDate: "2024-01-01",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSchedule_PersistenceFailure(t *testing.T) {
	f := setup(t, model.NewDate(2024, time.January, 1))
	f.store.FailOn("reminders.create", errors.New("disk full"))

	_, err := f.svc.Schedule(context.Background(), &model.CreateReminderRequest{
		PatientID: f.patientID, CareManagerID: f.manager.ID, AssessmentType: "PHQ-9", ContactDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.Empty(t, f.store.Events())
}

func TestListsAndStats(t *testing.T) {
	ctx := context.Background()
	f := setup(t, model.NewDate(2024, time.March, 10))

	f.schedule(t, "2024-02-25")
	f.schedule(t, "2024-03-03")
	future := f.schedule(t, "2024-03-08")
	done := f.schedule(t, "2024-02-20")

	require.NoError(t, f.svc.Complete(ctx, done.ID, f.manager.ID))

	overdue, err := f.svc.ListOverdue(ctx, f.manager.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 7, overdue[0].DaysOverdue)
	assert.Equal(t, "Riverside", overdue[0].ClinicName)

	dueToday, err := f.svc.ListDueToday(ctx, f.manager.ID)
	require.NoError(t, err)
	require.Len(t, dueToday, 1)
	assert.Equal(t, "2024-03-10", dueToday[0].DueDate.String())

	pending, err := f.svc.ListPending(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	require.NoError(t, f.svc.Dismiss(ctx, future.ID, f.manager.ID))

	stats, err := f.svc.Stats(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStats{Total: 4, Pending: 2, Completed: 1, Dismissed: 1, Overdue: 1}, *stats)

	history, err := f.svc.History(ctx, f.patientID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].CompletedByName)
	assert.Equal(t, "Dana Reyes", *history[0].CompletedByName)
}

func TestResolve_IsTerminal(t *testing.T) {
	ctx := context.Background()
	f := setup(t, model.NewDate(2024, time.January, 1))
	r := f.schedule(t, "2024-01-01")

	require.NoError(t, f.svc.Complete(ctx, r.ID, f.manager.ID))

	err := f.svc.Complete(ctx, r.ID, f.manager.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
	err = f.svc.Dismiss(ctx, r.ID, f.manager.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	stored, err := f.store.Reminders().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderCompleted, stored.Status)
	require.NotNil(t, stored.CompletedBy)
	assert.Equal(t, f.manager.ID, *stored.CompletedBy)
}

func TestResolve_NotFound(t *testing.T) {
	f := setup(t, model.NewDate(2024, time.January, 1))
	err := f.svc.Complete(context.Background(), uuid.New(), f.manager.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t, model.NewDate(2024, time.January, 1))
	r := f.schedule(t, "2024-01-01")

	require.NoError(t, f.svc.Delete(ctx, r.ID))
	assert.True(t, apperrors.Is(f.svc.Delete(ctx, r.ID), apperrors.ErrNotFound))
}

func TestOverdueDigests_GroupsByCareManager(t *testing.T) {
	f := setup(t, model.NewDate(2024, time.March, 10))
	f.schedule(t, "2024-02-01")
	f.schedule(t, "2024-02-10")

	digests, err := f.svc.OverdueDigests(context.Background())
	require.NoError(t, err)
	require.Len(t, digests, 1)
	assert.Equal(t, "dana@example.com", digests[0].CareManagerEmail)
	assert.Len(t, digests[0].Reminders, 2)
}
