// Package safetyplan implements the per-patient safety plan workflow. A patient
// has an active plan exactly while the "Safety Plan" flag is set; every
// change of that flag appends a history row in the same transaction.
package safetyplan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

// Raise activates the plan inside tx. It reports false when a plan was
// already active, in which case nothing is written.
func Raise(ctx context.Context, tx repository.Store, patientID uuid.UUID) (bool, error) {
	added, err := tx.Flags().Add(ctx, patientID, model.FlagSafetyPlan)
	if err != nil {
		return false, fmt.Errorf("failed to add safety plan flag: %w", err)
	}
	if !added {
		return false, nil
	}
	if err := tx.SafetyPlans().AppendHistory(ctx, &model.SafetyPlanHistory{
		PatientID: patientID,
		Action:    model.SafetyPlanCreated,
	}); err != nil {
		return false, fmt.Errorf("failed to record safety plan history: %w", err)
	}
	return true, nil
}

// Resolution carries the details recorded when a plan is closed.
type Resolution struct {
	ResolvedBy uuid.UUID
	Minutes    int
	Notes      string
}

// Resolve deactivates the plan inside tx. It reports false when no plan was active.
func Resolve(ctx context.Context, tx repository.Store, patientID uuid.UUID, res Resolution) (bool, error) {
	removed, err := tx.Flags().Remove(ctx, patientID, model.FlagSafetyPlan)
	if err != nil {
		return false, fmt.Errorf("failed to remove safety plan flag: %w", err)
	}
	if !removed {
		return false, nil
	}

	h := &model.SafetyPlanHistory{
		PatientID:  patientID,
		Action:     model.SafetyPlanResolved,
		ResolvedBy: &res.ResolvedBy,
	}
	if res.Minutes > 0 {
		h.Minutes = &res.Minutes
	}
	if notes := strings.TrimSpace(res.Notes); notes != "" {
		h.Notes = &notes
	}
	if err := tx.SafetyPlans().AppendHistory(ctx, h); err != nil {
		return false, fmt.Errorf("failed to record safety plan history: %w", err)
	}
	return true, nil
}

type Service struct {
	store   repository.Store
	events  *event.Emitter
	metrics *metrics.Metrics
}

func NewService(store repository.Store, events *event.Emitter, m *metrics.Metrics) *Service {
	return &Service{store: store, events: events, metrics: m}
}

// CreateFlag activates a plan. Calling it for a patient with an active plan is a no-op.
func (s *Service) CreateFlag(ctx context.Context, patientID uuid.UUID) (*model.SafetyPlanResult, error) {
	var added bool
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().GetForUpdate(ctx, patientID); err != nil {
			return err
		}
		var err error
		if added, err = Raise(ctx, tx, patientID); err != nil {
			return err
		}
		if !added {
			return nil
		}
		return s.events.Emit(ctx, tx, "patient", patientID, model.EventSafetyPlanCreated, map[string]interface{}{
			"patientId": patientID,
		})
	})
	if err != nil {
		return nil, err
	}

	result := &model.SafetyPlanResult{ID: patientID, FlagActive: true, FlagChanged: added}
	if added {
		s.metrics.FlagsRaised.WithLabelValues(string(model.FlagSafetyPlan)).Inc()
		result.Message = "Safety plan flag created"
	} else {
		result.Message = "Safety plan flag already active"
	}
	return result, nil
}

// Complete resolves the active plan and credits the resolver's minutes.
func (s *Service) Complete(ctx context.Context, req *model.CompleteSafetyPlanRequest) (*model.SafetyPlanResult, error) {
	if req.Minutes < 0 {
		return nil, apperrors.NewValidation("minutes must not be negative", map[string]string{"minutes": "min=0"})
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().GetForUpdate(ctx, req.PatientID); err != nil {
			return err
		}
		resolved, err := Resolve(ctx, tx, req.PatientID, Resolution{
			ResolvedBy: req.ResolvedBy,
			Minutes:    req.Minutes,
			Notes:      req.Notes,
		})
		if err != nil {
			return err
		}
		if !resolved {
			return apperrors.NewNotFound("active safety plan", nil)
		}

		if req.Minutes > 0 {
			patientID := req.PatientID
			if err := tx.Minutes().Create(ctx, &model.MinuteEntry{
				UserID:       req.ResolvedBy,
				PatientID:    &patientID,
				TotalMinutes: req.Minutes,
				TrackingDate: model.Today(),
				Activity:     model.ActivitySafetyPlan,
			}); err != nil {
				return fmt.Errorf("failed to track minutes: %w", err)
			}
		}

		return s.events.Emit(ctx, tx, "patient", req.PatientID, model.EventSafetyPlanResolved, map[string]interface{}{
			"patientId":  req.PatientID,
			"resolvedBy": req.ResolvedBy,
			"minutes":    req.Minutes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SafetyPlanResolved.Inc()
	if req.Minutes > 0 {
		s.metrics.MinutesLogged.WithLabelValues(string(model.ActivitySafetyPlan)).Add(float64(req.Minutes))
	}
	return &model.SafetyPlanResult{
		ID:          req.PatientID,
		Message:     "Safety plan resolved",
		FlagActive:  false,
		FlagChanged: true,
	}, nil
}

func (s *Service) Status(ctx context.Context, patientID uuid.UUID) (*model.SafetyPlanStatus, error) {
	if _, err := s.store.Patients().Get(ctx, patientID); err != nil {
		return nil, err
	}
	active, err := s.store.Flags().Has(ctx, patientID, model.FlagSafetyPlan)
	if err != nil {
		return nil, fmt.Errorf("failed to check safety plan flag: %w", err)
	}
	history, err := s.store.SafetyPlans().History(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get safety plan history: %w", err)
	}

	status := &model.SafetyPlanStatus{PatientID: patientID, Active: active}
	if len(history) > 0 {
		status.LastEvent = history[0]
	}
	return status, nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlanHistory, error) {
	if _, err := s.store.Patients().Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.SafetyPlans().History(ctx, patientID)
}

// SaveDocument stores a filled-in safety plan. A discussed plan resolves the
// active flag; an undiscussed one activates it.
func (s *Service) SaveDocument(ctx context.Context, req *model.CreateSafetyPlanRequest) (*model.SafetyPlanResult, error) {
	contactDate, err := model.ParseDate(req.ContactDate)
	if err != nil {
		return nil, apperrors.NewValidation("invalid contact date", map[string]string{"contactDate": err.Error()})
	}
	if req.Minutes <= 0 {
		return nil, apperrors.NewValidation("minutes must be positive", map[string]string{"minutes": "min=1"})
	}

	plan := &model.SafetyPlan{
		PatientID:           req.PatientID,
		CreatedBy:           req.CreatedBy,
		ContactDate:         contactDate,
		ClinicalSections:    req.ClinicalSections,
		SafetyPlanDiscussed: req.SafetyPlanDiscussed,
		Minutes:             req.Minutes,
		CreatedAt:           time.Now(),
	}

	var changed bool
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().GetForUpdate(ctx, req.PatientID); err != nil {
			return err
		}
		if err := tx.SafetyPlans().Create(ctx, plan); err != nil {
			return fmt.Errorf("failed to create safety plan: %w", err)
		}

		patientID, planID := req.PatientID, plan.ID
		if err := tx.Minutes().Create(ctx, &model.MinuteEntry{
			UserID:       req.CreatedBy,
			PatientID:    &patientID,
			TotalMinutes: req.Minutes,
			TrackingDate: contactDate,
			Activity:     model.ActivitySafetyPlan,
			SafetyPlanID: &planID,
		}); err != nil {
			return fmt.Errorf("failed to track minutes: %w", err)
		}

		eventType := model.EventSafetyPlanCreated
		var err error
		if req.SafetyPlanDiscussed {
			eventType = model.EventSafetyPlanResolved
			changed, err = Resolve(ctx, tx, req.PatientID, Resolution{ResolvedBy: req.CreatedBy})
		} else {
			changed, err = Raise(ctx, tx, req.PatientID)
		}
		if err != nil || !changed {
			return err
		}
		return s.events.Emit(ctx, tx, "patient", req.PatientID, eventType, map[string]interface{}{
			"patientId":    req.PatientID,
			"safetyPlanId": plan.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MinutesLogged.WithLabelValues(string(model.ActivitySafetyPlan)).Add(float64(req.Minutes))
	if changed {
		if req.SafetyPlanDiscussed {
			s.metrics.SafetyPlanResolved.Inc()
		} else {
			s.metrics.FlagsRaised.WithLabelValues(string(model.FlagSafetyPlan)).Inc()
		}
	}
	return &model.SafetyPlanResult{
		ID:          plan.ID,
		Message:     "Safety plan saved successfully",
		FlagActive:  !req.SafetyPlanDiscussed,
		FlagChanged: changed,
	}, nil
}

func (s *Service) Latest(ctx context.Context, patientID uuid.UUID) (*model.SafetyPlan, error) {
	return s.store.SafetyPlans().Latest(ctx, patientID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.SafetyPlan, error) {
	return s.store.SafetyPlans().Get(ctx, id)
}
