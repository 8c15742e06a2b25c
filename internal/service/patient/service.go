package patient

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/clinical"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

// ListScope selects which statuses a patient list covers.
type ListScope string

const (
	ScopeActive   ListScope = "active"
	ScopeEnrolled ListScope = "enrolled"
	ScopeInactive ListScope = "inactive"
)

func (s ListScope) statuses() ([]model.PatientStatus, error) {
	switch s {
	case ScopeActive:
		return model.ActiveStatuses, nil
	case ScopeEnrolled:
		return []model.PatientStatus{model.PatientStatusEnrolled}, nil
	case ScopeInactive:
		return []model.PatientStatus{model.PatientStatusDeactivated}, nil
	}
	return nil, apperrors.NewValidation("invalid patient list", map[string]string{"scope": "must be active, enrolled or inactive"})
}

type Service struct {
	store   repository.Store
	events  *event.Emitter
	auditor *audit.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store repository.Store, events *event.Emitter, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		events:  events,
		auditor: auditor,
		metrics: m,
		now:     time.Now,
	}
}

// Create registers a patient as Enrolled and opens the initial care team.
func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	details := map[string]string{}
	dob, err := model.ParseDate(req.DateOfBirth)
	if err != nil {
		details["dob"] = err.Error()
	}
	enrollment, err := model.ParseDate(req.EnrollmentDate)
	if err != nil {
		details["enrollmentDate"] = err.Error()
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidation("invalid patient", details)
	}

	patient := &model.Patient{
		ClinicID:       req.ClinicID,
		MRN:            req.MRN,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    dob,
		EnrollmentDate: enrollment,
		Status:         model.PatientStatusEnrolled,
	}
	team := []struct {
		userID *uuid.UUID
		t      model.ProviderType
	}{
		{req.CareManagerID, model.ProviderBHCM},
		{req.PsychiatricConsultantID, model.ProviderPsychiatricConsultant},
		{req.PrimaryCarePhysicianID, model.ProviderPrimaryCarePhysician},
	}
	today := model.DateOf(s.now())
	pediatric := patient.IsPediatricOn(enrollment)

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Clinics().Get(ctx, req.ClinicID); err != nil {
			return err
		}
		if err := tx.Patients().Create(ctx, patient); err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}
		if pediatric {
			if _, err := tx.Flags().Add(ctx, patient.ID, model.FlagPediatricPatient); err != nil {
				return fmt.Errorf("failed to add pediatric flag: %w", err)
			}
		}
		for _, member := range team {
			if member.userID == nil || *member.userID == uuid.Nil {
				continue
			}
			if _, err := tx.Users().Get(ctx, *member.userID); err != nil {
				return err
			}
			if err := clinical.AssignProvider(ctx, tx, patient.ID, *member.userID, member.t, today, false); err != nil {
				return err
			}
		}
		return s.events.Emit(ctx, tx, "patient", patient.ID, model.EventPatientCreated, patient)
	})
	if err != nil {
		return nil, err
	}

	if pediatric {
		s.metrics.FlagsRaised.WithLabelValues(string(model.FlagPediatricPatient)).Inc()
	}
	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionCreate, model.AuditEntityPatient, patient.ID, patient)
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.PatientDetail, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &model.PatientDetail{Patient: *patient}

	if clinic, err := s.store.Clinics().Get(ctx, patient.ClinicID); err == nil {
		detail.ClinicName = clinic.Name
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	if detail.Providers, err = s.store.Assignments().ListOpenProviders(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	if detail.Flags, err = s.store.Flags().List(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return detail, nil
}

func (s *Service) Flags(ctx context.Context, id uuid.UUID) ([]model.FlagLabel, error) {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Flags().List(ctx, id)
}

// List returns the clinic's patients in scope with their flags.
func (s *Service) List(ctx context.Context, clinicID uuid.UUID, scope ListScope) ([]*model.PatientSummary, error) {
	statuses, err := scope.statuses()
	if err != nil {
		return nil, err
	}
	patients, err := s.store.Patients().List(ctx, model.PatientListFilter{ClinicID: clinicID, Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	if len(patients) == 0 {
		return patients, nil
	}

	ids := make([]uuid.UUID, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	flags, err := s.store.Flags().ListForPatients(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	for _, p := range patients {
		p.Flags = flags[p.ID]
		if p.Flags == nil {
			p.Flags = []model.FlagLabel{}
		}
	}
	return patients, nil
}

func (s *Service) LatestAssessments(ctx context.Context, id uuid.UUID) (*model.LatestAssessments, error) {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		return nil, err
	}
	phq9, err := s.store.Assessments().Latest(ctx, id, model.AssessmentPHQ9)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest PHQ-9: %w", err)
	}
	gad7, err := s.store.Assessments().Latest(ctx, id, model.AssessmentGAD7)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest GAD-7: %w", err)
	}
	return &model.LatestAssessments{PHQ9: model.NewAssessmentView(phq9), GAD7: model.NewAssessmentView(gad7)}, nil
}

func (s *Service) AssessmentHistory(ctx context.Context, id uuid.UUID, t model.AssessmentType) ([]*model.AssessmentView, error) {
	if !t.Valid() {
		return nil, apperrors.NewValidation("invalid assessment type", map[string]string{"type": "must be PHQ-9 or GAD-7"})
	}
	rows, err := s.store.Assessments().History(ctx, id, t)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment history: %w", err)
	}
	out := make([]*model.AssessmentView, len(rows))
	for i, a := range rows {
		out[i] = model.NewAssessmentView(a)
	}
	return out, nil
}

// GetAssessment returns the assessment of type t taken on date.
func (s *Service) GetAssessment(ctx context.Context, id uuid.UUID, t model.AssessmentType, date model.Date) (*model.AssessmentView, error) {
	if !t.Valid() {
		return nil, apperrors.NewValidation("invalid assessment type", map[string]string{"type": "must be PHQ-9 or GAD-7"})
	}
	a, err := s.store.Assessments().GetByDate(ctx, id, t, date)
	if err != nil {
		return nil, err
	}
	return model.NewAssessmentView(a), nil
}

func (s *Service) LastUpdate(ctx context.Context, id uuid.UUID, t model.AssessmentType) (*model.LastUpdate, error) {
	if !t.Valid() {
		return nil, apperrors.NewValidation("invalid assessment type", map[string]string{"type": "must be PHQ-9 or GAD-7"})
	}
	a, err := s.store.Assessments().Latest(ctx, id, t)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	out := &model.LastUpdate{Type: t}
	if a != nil {
		date, score := a.Date, a.Score
		out.Date, out.Score = &date, &score
	}
	return out, nil
}

func (s *Service) LastContact(ctx context.Context, id uuid.UUID) (*model.Date, error) {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Contacts().LastContactDate(ctx, id)
}

func (s *Service) TreatmentHistory(ctx context.Context, id uuid.UUID) ([]*model.TreatmentHistoryEntry, error) {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Contacts().TreatmentHistory(ctx, id)
}

func (s *Service) ContactAttempts(ctx context.Context, id uuid.UUID) ([]*model.ContactAttempt, error) {
	return s.store.Contacts().ListAttempts(ctx, id)
}

func (s *Service) GetContactAttempt(ctx context.Context, id uuid.UUID) (*model.ContactAttempt, error) {
	return s.store.Contacts().GetAttempt(ctx, id)
}

func (s *Service) LatestIntake(ctx context.Context, id uuid.UUID) (*model.Intake, error) {
	return s.store.Intakes().Latest(ctx, id)
}

func (s *Service) GetIntake(ctx context.Context, id uuid.UUID) (*model.Intake, error) {
	return s.store.Intakes().Get(ctx, id)
}

// LatestDeactivation returns NotFound for patients that were never deactivated.
func (s *Service) LatestDeactivation(ctx context.Context, id uuid.UUID) (*model.Deactivation, error) {
	d, err := s.store.Patients().LatestDeactivation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get deactivation: %w", err)
	}
	if d == nil {
		return nil, apperrors.NewNotFound("deactivation", nil)
	}
	return d, nil
}

// Documents lists every exportable record of a patient, newest first.
func (s *Service) Documents(ctx context.Context, id uuid.UUID) (*model.DocumentFolder, error) {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		return nil, err
	}
	folder := &model.DocumentFolder{PatientID: id, Files: []*model.DocumentFile{}}
	base := "/api/v1/patients/" + id.String()

	for _, t := range []model.AssessmentType{model.AssessmentPHQ9, model.AssessmentGAD7} {
		rows, err := s.store.Assessments().History(ctx, id, t)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s assessments: %w", t, err)
		}
		for _, a := range rows {
			folder.Files = append(folder.Files, &model.DocumentFile{
				ID:         a.ID,
				Kind:       model.DocumentAssessment,
				Title:      fmt.Sprintf("%s Assessment", t),
				Date:       a.Date,
				Type:       t,
				ExportPath: fmt.Sprintf("%s/assessments/%s/%s/export", base, a.Date, t),
			})
		}
	}

	intakes, err := s.store.Intakes().List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list intakes: %w", err)
	}
	for _, in := range intakes {
		folder.Files = append(folder.Files, &model.DocumentFile{
			ID:         in.ID,
			Kind:       model.DocumentIntake,
			Title:      "Intake Form",
			Date:       in.ContactDate,
			ExportPath: fmt.Sprintf("/api/v1/intakes/%s/export", in.ID),
		})
	}

	plans, err := s.store.SafetyPlans().List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list safety plans: %w", err)
	}
	for _, p := range plans {
		folder.Files = append(folder.Files, &model.DocumentFile{
			ID:         p.ID,
			Kind:       model.DocumentSafetyPlan,
			Title:      "Safety Plan",
			Date:       p.ContactDate,
			ExportPath: fmt.Sprintf("/api/v1/safety-plans/%s/export", p.ID),
		})
	}

	attempts, err := s.store.Contacts().ListAttempts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact attempts: %w", err)
	}
	for _, a := range attempts {
		folder.Files = append(folder.Files, &model.DocumentFile{
			ID:         a.ID,
			Kind:       model.DocumentContactAttempt,
			Title:      "Contact Attempt",
			Date:       a.AttemptDate,
			ExportPath: fmt.Sprintf("/api/v1/contact-attempts/%s/export", a.ID),
		})
	}

	sort.SliceStable(folder.Files, func(i, j int) bool {
		return folder.Files[j].Date.Before(folder.Files[i].Date)
	})
	return folder, nil
}

// UserMinutes totals a user's tracked minutes between optional bounds.
func (s *Service) UserMinutes(ctx context.Context, userID uuid.UUID, start, end *model.Date) (*model.UserMinutes, error) {
	filter := model.MinuteFilter{UserID: &userID}
	if start != nil {
		filter.StartDate = *start
	}
	if end != nil {
		filter.EndDate = *end
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, apperrors.NewValidation("invalid date range", map[string]string{"endDate": "must not be before startDate"})
	}
	total, err := s.store.Minutes().Sum(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to sum minutes: %w", err)
	}
	return &model.UserMinutes{UserID: userID, StartDate: start, EndDate: end, TotalMinutes: total}, nil
}
