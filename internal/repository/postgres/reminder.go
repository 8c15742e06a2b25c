package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type reminderRepository struct {
	q sqlx.ExtContext
}

const reminderColumns = `r.id, r.patient_id, r.care_manager_id, r.reminder_type, r.reminder_date,
	r.description, r.status, r.completed_by, r.completed_at, r.created_at`

const reminderViewSelect = `SELECT ` + reminderColumns + `,
		p.first_name, p.last_name, p.mrn, c.name AS clinic_name, u.name AS completed_by_name
	FROM reminders r
	JOIN patients p ON p.id = r.patient_id
	JOIN clinics c ON c.id = p.clinic_id
	LEFT JOIN users u ON u.id = r.completed_by`

func (r *reminderRepository) Create(ctx context.Context, rem *model.Reminder) error {
	query := `
		INSERT INTO reminders (id, patient_id, care_manager_id, reminder_type, reminder_date, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	rem.ID = uuid.New()
	rem.CreatedAt = time.Now()
	if rem.Status == "" {
		rem.Status = model.ReminderPending
	}
	_, err := r.q.ExecContext(ctx, query,
		rem.ID,
		rem.PatientID,
		rem.CareManagerID,
		rem.ReminderType,
		rem.DueDate,
		rem.Description,
		rem.Status,
		rem.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reminder, error) {
	var rem model.Reminder
	if err := get(ctx, r.q, &rem, "reminder", `SELECT `+reminderColumns+` FROM reminders r WHERE r.id = $1`, id); err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *reminderRepository) Resolve(ctx context.Context, id uuid.UUID, status model.ReminderStatus, userID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE reminders
		SET status = $1, completed_by = $2, completed_at = $3
		WHERE id = $4 AND status = 'pending'
	`
	res, err := r.q.ExecContext(ctx, query, status, userID, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to update reminder status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *reminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.q, "reminder", `DELETE FROM reminders WHERE id = $1`, id)
}

func (r *reminderRepository) selectViews(ctx context.Context, where string, args ...interface{}) ([]*model.ReminderView, error) {
	out := []*model.ReminderView{}
	if err := sqlx.SelectContext(ctx, r.q, &out, reminderViewSelect+" "+where, args...); err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return out, nil
}

func (r *reminderRepository) ListPending(ctx context.Context, careManagerID uuid.UUID) ([]*model.ReminderView, error) {
	return r.selectViews(ctx, `WHERE r.care_manager_id = $1 AND r.status = 'pending' ORDER BY r.reminder_date ASC`, careManagerID)
}

func (r *reminderRepository) ListOverdue(ctx context.Context, careManagerID uuid.UUID, today model.Date) ([]*model.ReminderView, error) {
	views, err := r.selectViews(ctx,
		`WHERE r.care_manager_id = $1 AND r.status = 'pending' AND r.reminder_date < $2 ORDER BY r.reminder_date ASC`,
		careManagerID, today)
	if err != nil {
		return nil, err
	}
	setDaysOverdue(views, today)
	return views, nil
}

func (r *reminderRepository) ListDueOn(ctx context.Context, careManagerID uuid.UUID, day model.Date) ([]*model.ReminderView, error) {
	return r.selectViews(ctx,
		`WHERE r.care_manager_id = $1 AND r.status = 'pending' AND r.reminder_date = $2 ORDER BY r.created_at ASC`,
		careManagerID, day)
}

func (r *reminderRepository) ListPendingForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders r
		WHERE r.patient_id = $1 AND r.status = 'pending'
		ORDER BY r.reminder_date ASC`
	out := []*model.Reminder{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient reminders: %w", err)
	}
	return out, nil
}

func (r *reminderRepository) History(ctx context.Context, patientID uuid.UUID) ([]*model.ReminderView, error) {
	return r.selectViews(ctx,
		`WHERE r.patient_id = $1 AND r.status IN ('completed', 'dismissed') ORDER BY r.reminder_date DESC`,
		patientID)
}

func (r *reminderRepository) Stats(ctx context.Context, careManagerID uuid.UUID, today model.Date) (*model.ReminderStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_reminders,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_reminders,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_reminders,
			COUNT(*) FILTER (WHERE status = 'dismissed') AS dismissed_reminders,
			COUNT(*) FILTER (WHERE status = 'pending' AND reminder_date < $2) AS overdue_reminders
		FROM reminders
		WHERE care_manager_id = $1
	`
	var stats model.ReminderStats
	if err := sqlx.GetContext(ctx, r.q, &stats, query, careManagerID, today); err != nil {
		return nil, fmt.Errorf("failed to get reminder stats: %w", err)
	}
	return &stats, nil
}

func (r *reminderRepository) ListAllOverdue(ctx context.Context, today model.Date) ([]*model.ReminderView, error) {
	views, err := r.selectViews(ctx,
		`WHERE r.status = 'pending' AND r.reminder_date < $1 ORDER BY r.care_manager_id, r.reminder_date ASC`,
		today)
	if err != nil {
		return nil, err
	}
	setDaysOverdue(views, today)
	return views, nil
}

func setDaysOverdue(views []*model.ReminderView, today model.Date) {
	for _, v := range views {
		v.DaysOverdue = v.DueDate.DaysUntil(today)
	}
}
