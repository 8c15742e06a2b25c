package psych

import (
	"context"
	"fmt"

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

const recentLimit = 5

type Service struct {
	store   repository.Store
	events  *event.Emitter
	auditor *audit.Service
	metrics *metrics.Metrics
}

func NewService(store repository.Store, events *event.Emitter, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{store: store, events: events, auditor: auditor, metrics: m}
}

// consultant loads the user and rejects anyone who is not a psychiatric consultant.
func (s *Service) consultant(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != model.RolePsychiatricConsultant {
		return nil, apperrors.NewForbidden("only psychiatric consultants can access this resource")
	}
	return u, nil
}

func (s *Service) Dashboard(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (*model.PsychDashboard, error) {
	if _, err := s.consultant(ctx, consultantID); err != nil {
		return nil, err
	}
	repo := s.store.Consultations()

	assigned, err := repo.CountAssignedPatients(ctx, consultantID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to count assigned patients: %w", err)
	}
	minutes, err := repo.TotalMinutes(ctx, consultantID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to total minutes: %w", err)
	}
	upcoming, err := repo.CountUpcomingReferrals(ctx, consultantID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	d := &model.PsychDashboard{
		AssignedPatients:    assigned,
		TotalMinutesTracked: minutes,
		UpcomingReferrals:   upcoming,
	}
	if assigned > 0 {
		d.AverageMinutesPerPatient = minutes / assigned
	}
	return d, nil
}

func (s *Service) RecentPatients(ctx context.Context, consultantID uuid.UUID) ([]*model.ReferredPatient, error) {
	if _, err := s.consultant(ctx, consultantID); err != nil {
		return nil, err
	}
	return s.store.Consultations().RecentReferrals(ctx, consultantID, recentLimit)
}

func (s *Service) AssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) ([]*model.ReferredPatient, error) {
	if _, err := s.consultant(ctx, consultantID); err != nil {
		return nil, err
	}
	return s.store.Consultations().AssignedPatients(ctx, consultantID, clinicID)
}

// Consult records a consultation for a patient the consultant was asked to
// discuss. The consultant becomes the patient's assigned consultant when none is.
func (s *Service) Consult(ctx context.Context, req *model.ConsultRequest) (*model.Consultation, error) {
	details := map[string]string{}
	consultDate, err := model.ParseDate(req.ConsultDate)
	if err != nil {
		details["consultDate"] = err.Error()
	}
	var next *model.Date
	if req.NextFollowUpDate != "" {
		d, err := model.ParseDate(req.NextFollowUpDate)
		if err != nil {
			details["nextFollowUpDate"] = err.Error()
		} else {
			next = &d
		}
	}
	if req.Minutes <= 0 {
		details["minutes"] = "must be positive"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidation("invalid consultation", details)
	}

	if _, err := s.consultant(ctx, req.UserID); err != nil {
		return nil, err
	}

	c := &model.Consultation{
		PatientID:        req.PatientID,
		ConsultantID:     req.UserID,
		ConsultDate:      consultDate,
		Minutes:          req.Minutes,
		Recommendations:  req.Recommendations,
		TreatmentPlan:    req.TreatmentPlan,
		Medications:      req.Medications,
		FollowUpNeeded:   req.FollowUpNeeded,
		NextFollowUpDate: next,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := tx.Patients().GetForUpdate(ctx, req.PatientID)
		if err != nil {
			return err
		}
		if patient.Status.IsDeactivated() {
			return apperrors.NewInvalidState("patient is deactivated")
		}
		referred, err := tx.Contacts().HasConsultReferral(ctx, req.PatientID, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to check referral: %w", err)
		}
		if !referred {
			return apperrors.NewForbidden("patient was not referred to this consultant")
		}

		if err := tx.Consultations().Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create consultation: %w", err)
		}
		if err := tx.Minutes().Create(ctx, &model.MinuteEntry{
			UserID:         req.UserID,
			PatientID:      &req.PatientID,
			TotalMinutes:   req.Minutes,
			TrackingDate:   consultDate,
			Activity:       model.ActivityPsychConsult,
			PsychConsultID: &c.ID,
		}); err != nil {
			return fmt.Errorf("failed to track minutes: %w", err)
		}
		if err := clinical.AssignProvider(ctx, tx, req.PatientID, req.UserID, model.ProviderPsychiatricConsultant, consultDate, false); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, "patient", req.PatientID, model.EventConsultRecorded, c)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MinutesLogged.WithLabelValues(string(model.ActivityPsychConsult)).Add(float64(req.Minutes))
	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionCreate, model.AuditEntityConsultation, c.ID, nil)
	return c, nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*model.ConsultationView, error) {
	if _, err := s.store.Patients().Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.Consultations().History(ctx, patientID)
}

func (s *Service) CareManagerNotes(ctx context.Context, patientID uuid.UUID) ([]*model.CareManagerNote, error) {
	if _, err := s.store.Patients().Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.Consultations().CareManagerNotes(ctx, patientID)
}

