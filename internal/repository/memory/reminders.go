package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

type reminderRepo struct{ s *Store }

func (r *reminderRepo) Create(ctx context.Context, rem *model.Reminder) error {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("reminders.create"); err != nil {
		return err
	}

	rem.ID = uuid.New()
	rem.CreatedAt = time.Now()
	if rem.Status == "" {
		rem.Status = model.ReminderPending
	}
	r.s.db().reminders = append(r.s.db().reminders, *rem)
	return nil
}

func (r *reminderRepo) find(id uuid.UUID) *model.Reminder {
	d := r.s.db()
	for i := range d.reminders {
		if d.reminders[i].ID == id {
			return &d.reminders[i]
		}
	}
	return nil
}

func (r *reminderRepo) Get(ctx context.Context, id uuid.UUID) (*model.Reminder, error) {
	unlock := r.s.lock()
	defer unlock()

	rem := r.find(id)
	if rem == nil {
		return nil, apperrors.NewNotFound("reminder", nil)
	}
	out := *rem
	return &out, nil
}

func (r *reminderRepo) Resolve(ctx context.Context, id uuid.UUID, status model.ReminderStatus, userID uuid.UUID, at time.Time) (bool, error) {
	unlock := r.s.lock()
	defer unlock()
	if err := r.s.fault("reminders.resolve"); err != nil {
		return false, err
	}

	rem := r.find(id)
	if rem == nil || rem.Status != model.ReminderPending {
		return false, nil
	}
	by, when := userID, at
	rem.Status, rem.CompletedBy, rem.CompletedAt = status, &by, &when
	return true, nil
}

func (r *reminderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := r.s.lock()
	defer unlock()

	d := r.s.db()
	for i := range d.reminders {
		if d.reminders[i].ID == id {
			d.reminders = append(d.reminders[:i:i], d.reminders[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFound("reminder", nil)
}

func (r *reminderRepo) views(match func(model.Reminder) bool) []*model.ReminderView {
	d := r.s.db()
	out := []*model.ReminderView{}
	for _, rem := range d.reminders {
		if !match(rem) {
			continue
		}
		p := d.patient(rem.PatientID)
		if p == nil {
			continue
		}
		v := &model.ReminderView{Reminder: rem, FirstName: p.FirstName, LastName: p.LastName, MRN: p.MRN}
		if c := d.clinic(p.ClinicID); c != nil {
			v.ClinicName = c.Name
		}
		if rem.CompletedBy != nil {
			v.CompletedByName = d.userName(*rem.CompletedBy)
		}
		out = append(out, v)
	}
	return out
}

func byDueDate(views []*model.ReminderView, desc bool) {
	sort.SliceStable(views, func(i, j int) bool {
		if desc {
			return views[j].DueDate.Before(views[i].DueDate)
		}
		return views[i].DueDate.Before(views[j].DueDate)
	})
}

func overdue(views []*model.ReminderView, today model.Date) []*model.ReminderView {
	for _, v := range views {
		v.DaysOverdue = v.DueDate.DaysUntil(today)
	}
	return views
}

func (r *reminderRepo) ListPending(ctx context.Context, careManagerID uuid.UUID) ([]*model.ReminderView, error) {
	unlock := r.s.lock()
	defer unlock()

	out := r.views(func(rem model.Reminder) bool {
		return rem.CareManagerID == careManagerID && rem.Status == model.ReminderPending
	})
	byDueDate(out, false)
	return out, nil
}

func (r *reminderRepo) ListOverdue(ctx context.Context, careManagerID uuid.UUID, today model.Date) ([]*model.ReminderView, error) {
	unlock := r.s.lock()
	defer unlock()

	out := r.views(func(rem model.Reminder) bool {
		return rem.CareManagerID == careManagerID && rem.Status == model.ReminderPending && rem.DueDate.Before(today)
	})
	byDueDate(out, false)
	return overdue(out, today), nil
}

func (r *reminderRepo) ListDueOn(ctx context.Context, careManagerID uuid.UUID, day model.Date) ([]*model.ReminderView, error) {
	unlock := r.s.lock()
	defer unlock()

	return r.views(func(rem model.Reminder) bool {
		return rem.CareManagerID == careManagerID && rem.Status == model.ReminderPending && rem.DueDate.Equal(day)
	}), nil
}

func (r *reminderRepo) ListPendingForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Reminder, error) {
	unlock := r.s.lock()
	defer unlock()

	out := []*model.Reminder{}
	for _, v := range r.views(func(rem model.Reminder) bool {
		return rem.PatientID == patientID && rem.Status == model.ReminderPending
	}) {
		rem := v.Reminder
		out = append(out, &rem)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *reminderRepo) History(ctx context.Context, patientID uuid.UUID) ([]*model.ReminderView, error) {
	unlock := r.s.lock()
	defer unlock()

	out := r.views(func(rem model.Reminder) bool {
		return rem.PatientID == patientID && rem.Status.IsTerminal()
	})
	byDueDate(out, true)
	return out, nil
}

func (r *reminderRepo) Stats(ctx context.Context, careManagerID uuid.UUID, today model.Date) (*model.ReminderStats, error) {
	unlock := r.s.lock()
	defer unlock()

	stats := &model.ReminderStats{}
	for _, rem := range r.s.db().reminders {
		if rem.CareManagerID != careManagerID {
			continue
		}
		stats.Total++
		switch rem.Status {
		case model.ReminderPending:
			stats.Pending++
			if rem.DueDate.Before(today) {
				stats.Overdue++
			}
		case model.ReminderCompleted:
			stats.Completed++
		case model.ReminderDismissed:
			stats.Dismissed++
		}
	}
	return stats, nil
}

func (r *reminderRepo) ListAllOverdue(ctx context.Context, today model.Date) ([]*model.ReminderView, error) {
	unlock := r.s.lock()
	defer unlock()

	out := r.views(func(rem model.Reminder) bool {
		return rem.Status == model.ReminderPending && rem.DueDate.Before(today)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CareManagerID != out[j].CareManagerID {
			return out[i].CareManagerID.String() < out[j].CareManagerID.String()
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return overdue(out, today), nil
}
