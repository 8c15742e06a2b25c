package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

// Store groups every repository behind one handle. Repositories obtained from
// the store passed to WithTx's callback run inside that transaction.
type Store interface {
	Patients() PatientRepository
	Flags() FlagRepository
	Assignments() AssignmentRepository
	Assessments() AssessmentRepository
	Contacts() ContactRepository
	Minutes() MinuteRepository
	Intakes() IntakeRepository
	SafetyPlans() SafetyPlanRepository
	Reminders() ReminderRepository
	Consultations() ConsultationRepository
	Clinics() ClinicRepository
	Users() UserRepository
	Outbox() OutboxRepository
	Audit() AuditRepository

	// WithTx runs fn in a single transaction. It commits when fn returns nil
	// and rolls back on error or panic. Calling WithTx on a store that is
	// already transactional runs fn in the enclosing transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// All repository interfaces in one file. Lookups of a single row return a
// NotFound AppError when it does not exist, except where noted.
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		// GetForUpdate locks the patient row for the rest of the transaction.
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error
		// UpdateScores sets the last scores, and the first scores too when initial is true.
		UpdateScores(ctx context.Context, id uuid.UUID, phq9, gad7 int, initial bool) error
		List(ctx context.Context, filter model.PatientListFilter) ([]*model.PatientSummary, error)
		CreateDeactivation(ctx context.Context, d *model.Deactivation) error
		// LatestDeactivation returns nil when the patient was never deactivated.
		LatestDeactivation(ctx context.Context, patientID uuid.UUID) (*model.Deactivation, error)
	}

	FlagRepository interface {
		// Add reports whether the flag was newly set.
		Add(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error)
		// Remove reports whether a flag row was deleted.
		Remove(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error)
		Has(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error)
		List(ctx context.Context, patientID uuid.UUID) ([]model.FlagLabel, error)
		ListForPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]model.FlagLabel, error)
	}

	AssignmentRepository interface {
		// GetOpen returns nil when no open assignment of that type exists.
		GetOpen(ctx context.Context, patientID uuid.UUID, providerType model.ProviderType) (*model.Assignment, error)
		Open(ctx context.Context, a *model.Assignment) error
		Close(ctx context.Context, id uuid.UUID, end model.Date) error
		ListOpenProviders(ctx context.Context, patientID uuid.UUID) ([]*model.Provider, error)
	}

	AssessmentRepository interface {
		Create(ctx context.Context, a *model.Assessment) error
		// Latest returns nil when the patient has no assessment of that type.
		Latest(ctx context.Context, patientID uuid.UUID, t model.AssessmentType) (*model.Assessment, error)
		History(ctx context.Context, patientID uuid.UUID, t model.AssessmentType) ([]*model.Assessment, error)
		GetByDate(ctx context.Context, patientID uuid.UUID, t model.AssessmentType, date model.Date) (*model.Assessment, error)
	}

	ContactRepository interface {
		Create(ctx context.Context, c *model.Contact) error
		List(ctx context.Context, patientID uuid.UUID) ([]*model.Contact, error)
		// LastContactDate returns nil when the patient has no contacts.
		LastContactDate(ctx context.Context, patientID uuid.UUID) (*model.Date, error)
		TreatmentHistory(ctx context.Context, patientID uuid.UUID) ([]*model.TreatmentHistoryEntry, error)
		// HasConsultReferral reports whether a contact asked consultantID to discuss the patient.
		HasConsultReferral(ctx context.Context, patientID, consultantID uuid.UUID) (bool, error)

		CreateAttempt(ctx context.Context, a *model.ContactAttempt) error
		GetAttempt(ctx context.Context, id uuid.UUID) (*model.ContactAttempt, error)
		ListAttempts(ctx context.Context, patientID uuid.UUID) ([]*model.ContactAttempt, error)
	}

	MinuteRepository interface {
		Create(ctx context.Context, e *model.MinuteEntry) error
		Sum(ctx context.Context, filter model.MinuteFilter) (int, error)
		Report(ctx context.Context, filter model.MinuteFilter) ([]*model.MinuteReportRow, error)
	}

	IntakeRepository interface {
		Create(ctx context.Context, in *model.Intake) error
		Get(ctx context.Context, id uuid.UUID) (*model.Intake, error)
		CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error)
		Latest(ctx context.Context, patientID uuid.UUID) (*model.Intake, error)
		List(ctx context.Context, patientID uuid.UUID) ([]*model.Intake, error)
	}

	SafetyPlanRepository interface {
		Create(ctx context.Context, plan *model.SafetyPlan) error
		Get(ctx context.Context, id uuid.UUID) (*model.SafetyPlan, error)
		Latest(ctx context.Context, patientID uuid.UUID) (*model.SafetyPlan, error)
		List(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlan, error)
		AppendHistory(ctx context.Context, h *model.SafetyPlanHistory) error
		// History is newest first.
		History(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlanHistory, error)
	}

	ReminderRepository interface {
		Create(ctx context.Context, r *model.Reminder) error
		Get(ctx context.Context, id uuid.UUID) (*model.Reminder, error)
		// Resolve moves a pending reminder to a terminal status. It reports
		// false when the reminder was not pending.
		Resolve(ctx context.Context, id uuid.UUID, status model.ReminderStatus, userID uuid.UUID, at time.Time) (bool, error)
		Delete(ctx context.Context, id uuid.UUID) error
		ListPending(ctx context.Context, careManagerID uuid.UUID) ([]*model.ReminderView, error)
		ListOverdue(ctx context.Context, careManagerID uuid.UUID, today model.Date) ([]*model.ReminderView, error)
		ListDueOn(ctx context.Context, careManagerID uuid.UUID, day model.Date) ([]*model.ReminderView, error)
		ListPendingForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Reminder, error)
		History(ctx context.Context, patientID uuid.UUID) ([]*model.ReminderView, error)
		Stats(ctx context.Context, careManagerID uuid.UUID, today model.Date) (*model.ReminderStats, error)
		// ListAllOverdue spans every care manager, for the digest worker.
		ListAllOverdue(ctx context.Context, today model.Date) ([]*model.ReminderView, error)
	}

	ConsultationRepository interface {
		Create(ctx context.Context, c *model.Consultation) error
		History(ctx context.Context, patientID uuid.UUID) ([]*model.ConsultationView, error)
		CountAssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error)
		TotalMinutes(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error)
		CountUpcomingReferrals(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error)
		RecentReferrals(ctx context.Context, consultantID uuid.UUID, limit int) ([]*model.ReferredPatient, error)
		AssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) ([]*model.ReferredPatient, error)
		CareManagerNotes(ctx context.Context, patientID uuid.UUID) ([]*model.CareManagerNote, error)
	}

	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Clinic, error)
		ListUsers(ctx context.Context, clinicID uuid.UUID) ([]*model.UserRef, error)
		Dashboard(ctx context.Context, clinicID uuid.UUID, newSince model.Date) (*model.ClinicDashboard, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
		SetClinics(ctx context.Context, userID uuid.UUID, clinicIDs []uuid.UUID) error
		ListClinics(ctx context.Context, userID uuid.UUID) ([]*model.ClinicRef, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEventsWithLock must run inside a transaction; rows stay locked until it ends.
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, int64, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
