package reminder

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

type Service struct {
	store   repository.Store
	events  *event.Emitter
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store repository.Store, events *event.Emitter, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		events:  events,
		metrics: m,
		now:     time.Now,
	}
}

func (s *Service) today() model.Date {
	return model.DateOf(s.now())
}

// Schedule creates a pending follow-up reminder due seven days after the contact date.
func (s *Service) Schedule(ctx context.Context, req *model.CreateReminderRequest) (*model.Reminder, error) {
	if strings.TrimSpace(req.ContactDate) == "" {
		s.metrics.RemindersScheduled.WithLabelValues("invalid").Inc()
		return nil, apperrors.NewValidation("contact date is required", map[string]string{"contactDate": "required"})
	}
	contact, err := model.ParseDate(req.ContactDate)
	if err != nil {
		s.metrics.RemindersScheduled.WithLabelValues("invalid").Inc()
		return nil, apperrors.NewValidation("invalid contact date", map[string]string{"contactDate": err.Error()})
	}

	reminder := &model.Reminder{
		PatientID:     req.PatientID,
		CareManagerID: req.CareManagerID,
		ReminderType:  req.AssessmentType,
		DueDate:       model.FollowUpDueDate(contact),
		Description:   model.FollowUpDescription(req.AssessmentType),
		Status:        model.ReminderPending,
		CreatedAt:     s.now(),
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().Get(ctx, req.PatientID); err != nil {
			return err
		}
		if err := tx.Reminders().Create(ctx, reminder); err != nil {
			return fmt.Errorf("failed to create reminder: %w", err)
		}
		return s.events.Emit(ctx, tx, "reminder", reminder.ID, model.EventReminderCreated, reminder)
	})
	if err != nil {
		s.metrics.RemindersScheduled.WithLabelValues("failed").Inc()
		return nil, err
	}

	s.metrics.RemindersScheduled.WithLabelValues("scheduled").Inc()
	return reminder, nil
}

func (s *Service) ListPending(ctx context.Context, careManagerID uuid.UUID) ([]*model.ReminderView, error) {
	return s.store.Reminders().ListPending(ctx, careManagerID)
}

func (s *Service) ListOverdue(ctx context.Context, careManagerID uuid.UUID) ([]*model.ReminderView, error) {
	return s.store.Reminders().ListOverdue(ctx, careManagerID, s.today())
}

func (s *Service) ListDueToday(ctx context.Context, careManagerID uuid.UUID) ([]*model.ReminderView, error) {
	return s.store.Reminders().ListDueOn(ctx, careManagerID, s.today())
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Reminder, error) {
	return s.store.Reminders().ListPendingForPatient(ctx, patientID)
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*model.ReminderView, error) {
	return s.store.Reminders().History(ctx, patientID)
}

func (s *Service) Stats(ctx context.Context, careManagerID uuid.UUID) (*model.ReminderStats, error) {
	return s.store.Reminders().Stats(ctx, careManagerID, s.today())
}

func (s *Service) Complete(ctx context.Context, id, userID uuid.UUID) error {
	return s.resolve(ctx, id, model.ReminderCompleted, userID)
}

func (s *Service) Dismiss(ctx context.Context, id, userID uuid.UUID) error {
	return s.resolve(ctx, id, model.ReminderDismissed, userID)
}

func (s *Service) resolve(ctx context.Context, id uuid.UUID, status model.ReminderStatus, userID uuid.UUID) error {
	existing, err := s.store.Reminders().Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status.IsTerminal() {
		return apperrors.NewInvalidState(fmt.Sprintf("reminder is already %s", existing.Status))
	}

	ok, err := s.store.Reminders().Resolve(ctx, id, status, userID, s.now())
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if !ok {
		return apperrors.NewInvalidState("reminder is no longer pending")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Reminders().Delete(ctx, id)
}

// OverdueDigests groups every overdue reminder by care manager for the e-mail digest.
func (s *Service) OverdueDigests(ctx context.Context) ([]*model.OverdueDigest, error) {
	views, err := s.store.Reminders().ListAllOverdue(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue reminders: %w", err)
	}

	var digests []*model.OverdueDigest
	byManager := make(map[uuid.UUID]*model.OverdueDigest)
	for _, v := range views {
		d, ok := byManager[v.CareManagerID]
		if !ok {
			user, err := s.store.Users().Get(ctx, v.CareManagerID)
			if err != nil {
				return nil, fmt.Errorf("failed to load care manager %s: %w", v.CareManagerID, err)
			}
			d = &model.OverdueDigest{
				CareManagerID:    user.ID,
				CareManagerName:  user.Name,
				CareManagerEmail: user.Email,
			}
			byManager[v.CareManagerID] = d
			digests = append(digests, d)
		}
		d.Reminders = append(d.Reminders, v)
	}
	return digests, nil
}
