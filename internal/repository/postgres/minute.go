package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type minuteRepository struct {
	q sqlx.ExtContext
}

type minuteWhere model.MinuteFilter

func (r *minuteRepository) Create(ctx context.Context, e *model.MinuteEntry) error {
	query := `
		INSERT INTO minute_tracking (
			id, user_id, patient_id, total_minutes, tracking_date, activity,
			contact_id, contact_attempt_id, psych_consult_id, intake_id, safety_plan_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	_, err := r.q.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.PatientID,
		e.TotalMinutes,
		e.TrackingDate,
		e.Activity,
		e.ContactID,
		e.ContactAttemptID,
		e.PsychConsultID,
		e.IntakeID,
		e.SafetyPlanID,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to track minutes: %w", err)
	}
	return nil
}

// build returns the WHERE clause and its args. Clinic filtering goes through the patient.
func (f minuteWhere) build() (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != nil {
		add("mt.user_id = $%d", *f.UserID)
	}
	if f.ClinicID != nil {
		add("p.clinic_id = $%d", *f.ClinicID)
	}
	if !f.StartDate.IsZero() {
		add("mt.tracking_date >= $%d", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		add("mt.tracking_date <= $%d", f.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *minuteRepository) Sum(ctx context.Context, filter model.MinuteFilter) (int, error) {
	where, args := minuteWhere(filter).build()
	query := `
		SELECT COALESCE(SUM(mt.total_minutes), 0)
		FROM minute_tracking mt
		LEFT JOIN patients p ON p.id = mt.patient_id` + where

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to sum minutes: %w", err)
	}
	return total, nil
}

func (r *minuteRepository) Report(ctx context.Context, filter model.MinuteFilter) ([]*model.MinuteReportRow, error) {
	where, args := minuteWhere(filter).build()
	query := `
		SELECT mt.tracking_date, u.name AS user_name,
			p.first_name || ' ' || p.last_name AS patient_name,
			p.mrn AS patient_mrn,
			mt.activity, mt.total_minutes
		FROM minute_tracking mt
		JOIN users u ON u.id = mt.user_id
		LEFT JOIN patients p ON p.id = mt.patient_id` + where + `
		ORDER BY mt.tracking_date, u.name`

	out := []*model.MinuteReportRow{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to build minutes report: %w", err)
	}
	return out, nil
}
