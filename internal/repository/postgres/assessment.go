package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type assessmentRepository struct {
	q sqlx.ExtContext
}

const assessmentColumns = `id, patient_id, type, score, date, answers_json, created_at`

func (r *assessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	query := `
		INSERT INTO assessments (id, patient_id, type, score, date, answers_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	if _, err := r.q.ExecContext(ctx, query, a.ID, a.PatientID, a.Type, a.Score, a.Date, a.Answers, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create %s assessment: %w", a.Type, err)
	}
	return nil
}

func (r *assessmentRepository) Latest(ctx context.Context, patientID uuid.UUID, t model.AssessmentType) (*model.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments
		WHERE patient_id = $1 AND type = $2
		ORDER BY date DESC, created_at DESC
		LIMIT 1`
	var a model.Assessment
	found, err := getOptional(ctx, r.q, &a, "assessment", query, patientID, t)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepository) History(ctx context.Context, patientID uuid.UUID, t model.AssessmentType) ([]*model.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments
		WHERE patient_id = $1 AND type = $2
		ORDER BY date DESC, created_at DESC`
	out := []*model.Assessment{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID, t); err != nil {
		return nil, fmt.Errorf("failed to list %s assessments: %w", t, err)
	}
	return out, nil
}

func (r *assessmentRepository) GetByDate(ctx context.Context, patientID uuid.UUID, t model.AssessmentType, date model.Date) (*model.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments
		WHERE patient_id = $1 AND type = $2 AND date = $3
		ORDER BY created_at DESC
		LIMIT 1`
	var a model.Assessment
	if err := get(ctx, r.q, &a, "assessment", query, patientID, t, date); err != nil {
		return nil, err
	}
	return &a, nil
}
