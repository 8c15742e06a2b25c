// Package memory is an in-process repository.Store used by service and
// handler tests. Transactions snapshot the whole dataset and restore it on
// error or panic.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
)

type data struct {
	patients      []model.Patient
	deactivations []model.Deactivation
	flags         []model.PatientFlag
	assignments   []model.Assignment
	assessments   []model.Assessment
	contacts      []model.Contact
	attempts      []model.ContactAttempt
	minutes       []model.MinuteEntry
	intakes       []model.Intake
	safetyPlans   []model.SafetyPlan
	safetyHistory []model.SafetyPlanHistory
	reminders     []model.Reminder
	consultations []model.Consultation
	clinics       []model.Clinic
	users         []model.User
	userClinics   map[uuid.UUID][]uuid.UUID
	outbox        []model.OutboxEvent
	audit         []model.AuditLog
}

func (d *data) clone() *data {
	c := &data{
		patients:      append([]model.Patient(nil), d.patients...),
		deactivations: append([]model.Deactivation(nil), d.deactivations...),
		flags:         append([]model.PatientFlag(nil), d.flags...),
		assignments:   append([]model.Assignment(nil), d.assignments...),
		assessments:   append([]model.Assessment(nil), d.assessments...),
		contacts:      append([]model.Contact(nil), d.contacts...),
		attempts:      append([]model.ContactAttempt(nil), d.attempts...),
		minutes:       append([]model.MinuteEntry(nil), d.minutes...),
		intakes:       append([]model.Intake(nil), d.intakes...),
		safetyPlans:   append([]model.SafetyPlan(nil), d.safetyPlans...),
		safetyHistory: append([]model.SafetyPlanHistory(nil), d.safetyHistory...),
		reminders:     append([]model.Reminder(nil), d.reminders...),
		consultations: append([]model.Consultation(nil), d.consultations...),
		clinics:       append([]model.Clinic(nil), d.clinics...),
		users:         append([]model.User(nil), d.users...),
		userClinics:   make(map[uuid.UUID][]uuid.UUID, len(d.userClinics)),
		outbox:        append([]model.OutboxEvent(nil), d.outbox...),
		audit:         append([]model.AuditLog(nil), d.audit...),
	}
	for k, v := range d.userClinics {
		c.userClinics[k] = append([]uuid.UUID(nil), v...)
	}
	return c
}

type shared struct {
	mu     sync.Mutex
	d      *data
	faults map[string]error
}

// Store implements repository.Store in memory.
type Store struct {
	sh *shared
	tx bool
}

func NewStore() *Store {
	return &Store{sh: &shared{
		d:      &data{userClinics: map[uuid.UUID][]uuid.UUID{}},
		faults: map[string]error{},
	}}
}

// FailOn makes the named operation (for example "minutes.create") return err
// until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	unlock := s.lock()
	defer unlock()
	if err == nil {
		delete(s.sh.faults, op)
		return
	}
	s.sh.faults[op] = err
}

func (s *Store) fault(op string) error {
	return s.sh.faults[op]
}

// lock serializes access. Inside WithTx the lock is already held.
func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.sh.mu.Lock()
	return s.sh.mu.Unlock
}

func (s *Store) db() *data { return s.sh.d }

func (s *Store) Patients() repository.PatientRepository           { return &patientRepo{s} }
func (s *Store) Flags() repository.FlagRepository                 { return &flagRepo{s} }
func (s *Store) Assignments() repository.AssignmentRepository     { return &assignmentRepo{s} }
func (s *Store) Assessments() repository.AssessmentRepository     { return &assessmentRepo{s} }
func (s *Store) Contacts() repository.ContactRepository           { return &contactRepo{s} }
func (s *Store) Minutes() repository.MinuteRepository             { return &minuteRepo{s} }
func (s *Store) Intakes() repository.IntakeRepository             { return &intakeRepo{s} }
func (s *Store) SafetyPlans() repository.SafetyPlanRepository     { return &safetyPlanRepo{s} }
func (s *Store) Reminders() repository.ReminderRepository         { return &reminderRepo{s} }
func (s *Store) Consultations() repository.ConsultationRepository { return &consultationRepo{s} }
func (s *Store) Clinics() repository.ClinicRepository             { return &clinicRepo{s} }
func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository              { return &outboxRepo{s} }
func (s *Store) Audit() repository.AuditRepository                { return &auditRepo{s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()

	snapshot := s.sh.d.clone()
	defer func() {
		if p := recover(); p != nil {
			s.sh.d = snapshot
			panic(p)
		}
	}()

	if err := fn(&Store{sh: s.sh, tx: true}); err != nil {
		s.sh.d = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

var _ repository.Store = (*Store)(nil)

func (d *data) patient(id uuid.UUID) *model.Patient {
	for i := range d.patients {
		if d.patients[i].ID == id {
			return &d.patients[i]
		}
	}
	return nil
}

func (d *data) user(id uuid.UUID) *model.User {
	for i := range d.users {
		if d.users[i].ID == id {
			return &d.users[i]
		}
	}
	return nil
}

func (d *data) clinic(id uuid.UUID) *model.Clinic {
	for i := range d.clinics {
		if d.clinics[i].ID == id {
			return &d.clinics[i]
		}
	}
	return nil
}

func (d *data) userName(id uuid.UUID) *string {
	if u := d.user(id); u != nil {
		name := u.Name
		return &name
	}
	return nil
}

// openProvider returns the open assignment of type t for a patient.
func (d *data) openProvider(patientID uuid.UUID, t model.ProviderType) *model.Assignment {
	for i := range d.assignments {
		a := &d.assignments[i]
		if a.PatientID == patientID && a.ProviderType == t && a.IsOpen() {
			return a
		}
	}
	return nil
}

// maxScore is the highest score of type t, as used on referral lists.
func (d *data) maxScore(patientID uuid.UUID, t model.AssessmentType) *int {
	var out *int
	for _, a := range d.assessments {
		if a.PatientID == patientID && a.Type == t && (out == nil || a.Score > *out) {
			s := a.Score
			out = &s
		}
	}
	return out
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
