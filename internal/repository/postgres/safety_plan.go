package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type safetyPlanRepository struct {
	q sqlx.ExtContext
}

const safetyPlanColumns = `id, patient_id, created_by, contact_date, ` + sectionColumns + `,
	safety_plan_discussed, minutes, created_at`

func (r *safetyPlanRepository) Create(ctx context.Context, plan *model.SafetyPlan) error {
	query := `
		INSERT INTO safety_plans (id, patient_id, created_by, contact_date, ` + sectionColumns + `,
			safety_plan_discussed, minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	plan.ID = uuid.New()
	plan.CreatedAt = time.Now()

	args := []interface{}{plan.ID, plan.PatientID, plan.CreatedBy, plan.ContactDate}
	args = append(args, sectionArgs(&plan.ClinicalSections)...)
	args = append(args, plan.SafetyPlanDiscussed, plan.Minutes, plan.CreatedAt)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create safety plan: %w", err)
	}
	return nil
}

func (r *safetyPlanRepository) Get(ctx context.Context, id uuid.UUID) (*model.SafetyPlan, error) {
	var plan model.SafetyPlan
	if err := get(ctx, r.q, &plan, "safety plan", `SELECT `+safetyPlanColumns+` FROM safety_plans WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *safetyPlanRepository) Latest(ctx context.Context, patientID uuid.UUID) (*model.SafetyPlan, error) {
	query := `SELECT ` + safetyPlanColumns + ` FROM safety_plans
		WHERE patient_id = $1
		ORDER BY contact_date DESC, created_at DESC
		LIMIT 1`
	var plan model.SafetyPlan
	if err := get(ctx, r.q, &plan, "safety plan", query, patientID); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *safetyPlanRepository) List(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlan, error) {
	query := `SELECT ` + safetyPlanColumns + ` FROM safety_plans
		WHERE patient_id = $1
		ORDER BY contact_date DESC, created_at DESC`
	out := []*model.SafetyPlan{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list safety plans: %w", err)
	}
	return out, nil
}

func (r *safetyPlanRepository) AppendHistory(ctx context.Context, h *model.SafetyPlanHistory) error {
	query := `
		INSERT INTO safety_plan_history (id, patient_id, action, resolved_by, minutes, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	if _, err := r.q.ExecContext(ctx, query, h.ID, h.PatientID, h.Action, h.ResolvedBy, h.Minutes, h.Notes, h.CreatedAt); err != nil {
		return fmt.Errorf("failed to append safety plan history: %w", err)
	}
	return nil
}

func (r *safetyPlanRepository) History(ctx context.Context, patientID uuid.UUID) ([]*model.SafetyPlanHistory, error) {
	query := `
		SELECT id, patient_id, action, resolved_by, minutes, notes, created_at
		FROM safety_plan_history
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	out := []*model.SafetyPlanHistory{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to get safety plan history: %w", err)
	}
	return out, nil
}
