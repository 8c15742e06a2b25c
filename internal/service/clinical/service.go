// Package clinical performs the compound clinical writes. Each operation runs
// in one transaction and derives flags, assignments and ledger rows from its
// inputs; follow-up reminders are scheduled after commit.
package clinical

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/internal/service/safetyplan"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/logger"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

// Scheduler creates follow-up reminders.
type Scheduler interface {
	Schedule(ctx context.Context, req *model.CreateReminderRequest) (*model.Reminder, error)
}

type Service struct {
	store     repository.Store
	reminders Scheduler
	events    *event.Emitter
	auditor   *audit.Service
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(
	store repository.Store,
	reminders Scheduler,
	events *event.Emitter,
	auditor *audit.Service,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		store:     store,
		reminders: reminders,
		events:    events,
		auditor:   auditor,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

func parseDate(field, value string) (model.Date, error) {
	if strings.TrimSpace(value) == "" {
		return model.Date{}, apperrors.NewValidation(field+" is required", map[string]string{field: "required"})
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, apperrors.NewValidation("invalid "+field, map[string]string{field: err.Error()})
	}
	return d, nil
}

func validateAssessment(req *model.SubmitAssessmentRequest) (model.Date, error) {
	contactDate, err := parseDate("contactDate", req.ContactDate)
	if err != nil {
		return model.Date{}, err
	}

	details := map[string]string{}
	if strings.TrimSpace(req.SessionType) == "" {
		details["sessionType"] = "required"
	} else if !model.InteractionMode(req.SessionType).Valid() {
		details["sessionType"] = "must be one of by_phone, by_video, in_clinic, in_group"
	}
	if req.SessionDuration <= 0 {
		details["sessionDuration"] = "required"
	}
	if err := req.PHQ9Answers.Validate(model.AssessmentPHQ9); err != nil {
		details["phq9Answers"] = err.Error()
	}
	if err := req.GAD7Answers.Validate(model.AssessmentGAD7); err != nil {
		details["gad7Answers"] = err.Error()
	}
	if req.PHQ9Score < 0 || req.PHQ9Score > model.AssessmentPHQ9.MaxScore() {
		details["phq9Score"] = fmt.Sprintf("must be between 0 and %d", model.AssessmentPHQ9.MaxScore())
	}
	if req.GAD7Score < 0 || req.GAD7Score > model.AssessmentGAD7.MaxScore() {
		details["gad7Score"] = fmt.Sprintf("must be between 0 and %d", model.AssessmentGAD7.MaxScore())
	}
	if len(details) > 0 {
		return model.Date{}, apperrors.NewValidation("invalid assessment", details)
	}
	return contactDate, nil
}

// SubmitAssessment records a PHQ-9 and GAD-7 pair with its contact. initial
// selects whether the first scores are set as well as the last.
func (s *Service) SubmitAssessment(ctx context.Context, req *model.SubmitAssessmentRequest, initial bool) (*model.AssessmentResult, error) {
	contactDate, err := validateAssessment(req)
	if err != nil {
		return nil, err
	}

	var consultantID *uuid.UUID
	if req.PsychiatricConsultantID != nil && *req.PsychiatricConsultantID != uuid.Nil {
		consultantID = req.PsychiatricConsultantID
	}
	contactType := model.ContactFollowupAssessment
	if initial {
		contactType = model.ContactInitialAssessment
	}

	result := &model.AssessmentResult{
		PHQ9Severity: model.Severity(model.AssessmentPHQ9, req.PHQ9Score),
		GAD7Severity: model.Severity(model.AssessmentGAD7, req.GAD7Score),
	}
	var newFlags []model.FlagLabel

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := tx.Patients().GetForUpdate(ctx, req.PatientID)
		if err != nil {
			return err
		}
		if patient.Status.IsDeactivated() {
			return apperrors.NewInvalidState("cannot submit an assessment for a deactivated patient")
		}
		if req.ClinicID != nil && *req.ClinicID != patient.ClinicID {
			return apperrors.NewValidation("patient does not belong to clinic", map[string]string{
				"clinicId": "does not match the patient's clinic",
			})
		}
		if consultantID != nil {
			if _, err := tx.Users().Get(ctx, *consultantID); err != nil {
				return err
			}
		}

		for _, a := range []*model.Assessment{
			{PatientID: req.PatientID, Type: model.AssessmentPHQ9, Score: req.PHQ9Score, Date: contactDate, Answers: req.PHQ9Answers},
			{PatientID: req.PatientID, Type: model.AssessmentGAD7, Score: req.GAD7Score, Date: contactDate, Answers: req.GAD7Answers},
		} {
			if err := tx.Assessments().Create(ctx, a); err != nil {
				return fmt.Errorf("failed to create %s assessment: %w", a.Type, err)
			}
		}

		contact := &model.Contact{
			PatientID:               req.PatientID,
			ContactDate:             contactDate,
			ContactType:             contactType,
			InteractionMode:         model.InteractionMode(req.SessionType),
			DurationMinutes:         req.SessionDuration,
			FlagPsychiatricConsult:  req.DiscussWithConsultant,
			DiscussWithConsultant:   req.DiscussWithConsultant,
			CreatedBy:               req.CreatedBy,
			PsychiatricConsultantID: consultantID,
		}
		if notes := strings.TrimSpace(req.ConsultantNotes); notes != "" {
			contact.Notes = &notes
		}
		if err := tx.Contacts().Create(ctx, contact); err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
		result.ContactID = contact.ID

		if err := tx.Patients().UpdateScores(ctx, req.PatientID, req.PHQ9Score, req.GAD7Score, initial); err != nil {
			return fmt.Errorf("failed to update patient scores: %w", err)
		}

		if req.PHQ9Answers.IndicatesSelfHarmRisk() {
			added, err := safetyplan.Raise(ctx, tx, req.PatientID)
			if err != nil {
				return err
			}
			result.SafetyPlanFlagged = true
			if added {
				newFlags = append(newFlags, model.FlagSafetyPlan)
				if err := s.events.Emit(ctx, tx, "patient", req.PatientID, model.EventSafetyPlanCreated, map[string]interface{}{
					"patientId": req.PatientID,
					"contactId": contact.ID,
				}); err != nil {
					return err
				}
			}
		}

		if req.ConsultRequested() {
			added, err := tx.Flags().Add(ctx, req.PatientID, model.FlagPsychiatricConsult)
			if err != nil {
				return fmt.Errorf("failed to add psychiatric consult flag: %w", err)
			}
			result.ConsultFlagged = true
			if added {
				newFlags = append(newFlags, model.FlagPsychiatricConsult)
			}
		}

		if consultantID != nil {
			if err := AssignProvider(ctx, tx, req.PatientID, *consultantID, model.ProviderPsychiatricConsultant, contactDate, true); err != nil {
				return err
			}
		}

		contactID, patientID := contact.ID, req.PatientID
		if err := tx.Minutes().Create(ctx, &model.MinuteEntry{
			UserID:       req.CreatedBy,
			PatientID:    &patientID,
			TotalMinutes: req.SessionDuration,
			TrackingDate: contactDate,
			Activity:     model.ActivityAssessment,
			ContactID:    &contactID,
		}); err != nil {
			return fmt.Errorf("failed to track minutes: %w", err)
		}

		return s.events.Emit(ctx, tx, "patient", req.PatientID, model.EventAssessmentSubmitted, map[string]interface{}{
			"patientId":   req.PatientID,
			"contactId":   contact.ID,
			"contactType": contactType,
			"contactDate": contactDate,
			"phq9Score":   req.PHQ9Score,
			"gad7Score":   req.GAD7Score,
		})
	})
	if err != nil {
		return nil, err
	}

	kind := "followup"
	if initial {
		kind = "initial"
	}
	s.metrics.AssessmentsSubmitted.WithLabelValues(kind).Inc()
	s.metrics.MinutesLogged.WithLabelValues(string(model.ActivityAssessment)).Add(float64(req.SessionDuration))
	for _, f := range newFlags {
		s.metrics.FlagsRaised.WithLabelValues(string(f)).Inc()
	}

	result.ReminderScheduled = s.scheduleFollowUp(ctx, req.PatientID, req.CreatedBy, req.ContactDate)
	if initial {
		result.Message = "Initial assessment saved successfully"
	} else {
		result.Message = "Follow-up assessment saved successfully"
	}
	return result, nil
}

// scheduleFollowUp runs after the clinical transaction committed. A failure
// is logged and reported in the result only.
func (s *Service) scheduleFollowUp(ctx context.Context, patientID, careManagerID uuid.UUID, contactDate string) bool {
	_, err := s.reminders.Schedule(ctx, &model.CreateReminderRequest{
		PatientID:      patientID,
		CareManagerID:  careManagerID,
		AssessmentType: string(model.ContactFollowupAssessment),
		ContactDate:    contactDate,
	})
	if err != nil {
		s.logger.Error(err, "Failed to schedule follow-up reminder",
			"patient_id", patientID.String(),
			"care_manager_id", careManagerID.String())
		return false
	}
	return true
}

// AssignProvider makes userID the open provider of type t. When replace is
// true a different open provider is closed at date first; otherwise an
// existing assignment is left alone.
func AssignProvider(ctx context.Context, tx repository.Store, patientID, userID uuid.UUID, t model.ProviderType, date model.Date, replace bool) error {
	open, err := tx.Assignments().GetOpen(ctx, patientID, t)
	if err != nil {
		return fmt.Errorf("failed to get open %s assignment: %w", t, err)
	}
	if open != nil {
		if open.UserID == userID || !replace {
			return nil
		}
		if err := tx.Assignments().Close(ctx, open.ID, date); err != nil {
			return fmt.Errorf("failed to close %s assignment: %w", t, err)
		}
	}
	if err := tx.Assignments().Open(ctx, &model.Assignment{
		UserID:       userID,
		PatientID:    patientID,
		ProviderType: t,
		BeginDate:    date,
	}); err != nil {
		return fmt.Errorf("failed to open %s assignment: %w", t, err)
	}
	return nil
}

// CreateIntake stores an intake form. The first intake of an enrolled patient
// activates them.
func (s *Service) CreateIntake(ctx context.Context, req *model.CreateIntakeRequest) (*model.IntakeResult, error) {
	contactDate, err := parseDate("contactDate", req.ContactDate)
	if err != nil {
		return nil, err
	}
	if req.Minutes <= 0 {
		return nil, apperrors.NewValidation("minutes must be positive", map[string]string{"minutes": "min=1"})
	}

	intake := &model.Intake{
		PatientID:        req.PatientID,
		CreatedBy:        req.CreatedBy,
		ContactDate:      contactDate,
		ClinicalSections: req.ClinicalSections,
		Minutes:          req.Minutes,
		CreatedAt:        s.now(),
	}
	var statusUpdated bool

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := tx.Patients().GetForUpdate(ctx, req.PatientID)
		if err != nil {
			return err
		}

		count, err := tx.Intakes().CountForPatient(ctx, req.PatientID)
		if err != nil {
			return fmt.Errorf("failed to count intakes: %w", err)
		}
		if count == 0 {
			next, err := patient.Status.Transition(model.EventFirstIntake)
			if err != nil {
				return apperrors.NewInvalidState(err.Error())
			}
			if next != patient.Status {
				if err := tx.Patients().UpdateStatus(ctx, req.PatientID, next); err != nil {
					return fmt.Errorf("failed to update patient status: %w", err)
				}
				statusUpdated = true
			}
		}

		if err := tx.Intakes().Create(ctx, intake); err != nil {
			return fmt.Errorf("failed to create intake: %w", err)
		}

		patientID, intakeID := req.PatientID, intake.ID
		if err := tx.Minutes().Create(ctx, &model.MinuteEntry{
			UserID:       req.CreatedBy,
			PatientID:    &patientID,
			TotalMinutes: req.Minutes,
			TrackingDate: contactDate,
			Activity:     model.ActivityIntake,
			IntakeID:     &intakeID,
		}); err != nil {
			return fmt.Errorf("failed to track minutes: %w", err)
		}

		return s.events.Emit(ctx, tx, "patient", req.PatientID, model.EventIntakeCreated, map[string]interface{}{
			"patientId":     req.PatientID,
			"intakeId":      intake.ID,
			"statusUpdated": statusUpdated,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IntakesCreated.Inc()
	s.metrics.MinutesLogged.WithLabelValues(string(model.ActivityIntake)).Add(float64(req.Minutes))
	return &model.IntakeResult{
		ID:            intake.ID,
		Message:       "Intake form saved successfully",
		StatusUpdated: statusUpdated,
	}, nil
}

// DeactivatePatient moves a patient to the terminal deactivated status.
// Deactivating an already deactivated patient records another reason.
func (s *Service) DeactivatePatient(ctx context.Context, patientID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewValidation("reason is required", map[string]string{"reason": "required"})
	}

	deactivation := &model.Deactivation{
		PatientID:        patientID,
		DeactivationDate: model.DateOf(s.now()),
		Reason:           reason,
		CreatedAt:        s.now(),
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := tx.Patients().GetForUpdate(ctx, patientID)
		if err != nil {
			return err
		}
		next, err := patient.Status.Transition(model.EventDeactivate)
		if err != nil {
			return apperrors.NewInvalidState(err.Error())
		}
		if err := tx.Patients().UpdateStatus(ctx, patientID, next); err != nil {
			return fmt.Errorf("failed to update patient status: %w", err)
		}
		if err := tx.Patients().CreateDeactivation(ctx, deactivation); err != nil {
			return fmt.Errorf("failed to record deactivation: %w", err)
		}
		return s.events.Emit(ctx, tx, "patient", patientID, model.EventPatientDeactivated, deactivation)
	})
	if err != nil {
		return err
	}

	s.metrics.PatientsDeactivated.Inc()
	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionDeactivate, model.AuditEntityPatient, patientID, map[string]string{
		"reason": reason,
	})
	return nil
}

// RecordContactAttempt stores an outreach attempt with its billed minutes.
func (s *Service) RecordContactAttempt(ctx context.Context, req *model.RecordContactAttemptRequest) (*model.ContactAttemptResult, error) {
	attemptDate, err := parseDate("attemptDate", req.AttemptDate)
	if err != nil {
		return nil, err
	}
	if req.Minutes <= 0 {
		return nil, apperrors.NewValidation("minutes must be positive", map[string]string{"minutes": "min=1"})
	}

	attempt := &model.ContactAttempt{
		PatientID:   req.PatientID,
		AttemptDate: attemptDate,
		Description: model.AttemptDescription(strings.TrimSpace(req.Notes)),
		CreatedAt:   s.now(),
	}
	patientID := req.PatientID
	entry := &model.MinuteEntry{
		UserID:       req.UserID,
		PatientID:    &patientID,
		TotalMinutes: req.Minutes,
		TrackingDate: attemptDate,
		Activity:     model.ActivityContactAttempt,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().Get(ctx, req.PatientID); err != nil {
			return err
		}
		if err := tx.Contacts().CreateAttempt(ctx, attempt); err != nil {
			return fmt.Errorf("failed to create contact attempt: %w", err)
		}
		attemptID := attempt.ID
		entry.ContactAttemptID = &attemptID
		if err := tx.Minutes().Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to track minutes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MinutesLogged.WithLabelValues(string(model.ActivityContactAttempt)).Add(float64(req.Minutes))
	return &model.ContactAttemptResult{
		AttemptID:       attempt.ID,
		MinuteEntryID:   entry.ID,
		PatientID:       req.PatientID,
		AttemptDate:     attemptDate,
		Minutes:         req.Minutes,
		InteractionMode: req.InteractionMode,
		Message:         "Contact attempt recorded successfully",
	}, nil
}
