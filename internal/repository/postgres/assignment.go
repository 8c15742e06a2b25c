package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type assignmentRepository struct {
	q sqlx.ExtContext
}

func (r *assignmentRepository) GetOpen(ctx context.Context, patientID uuid.UUID, providerType model.ProviderType) (*model.Assignment, error) {
	query := `
		SELECT id, user_id, patient_id, provider_type, service_begin_date, service_end_date
		FROM user_patients
		WHERE patient_id = $1 AND provider_type = $2 AND service_end_date IS NULL
		FOR UPDATE
	`
	var a model.Assignment
	found, err := getOptional(ctx, r.q, &a, "assignment", query, patientID, providerType)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) Open(ctx context.Context, a *model.Assignment) error {
	query := `
		INSERT INTO user_patients (id, user_id, patient_id, provider_type, service_begin_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.EndDate = nil
	if _, err := r.q.ExecContext(ctx, query, a.ID, a.UserID, a.PatientID, a.ProviderType, a.BeginDate); err != nil {
		return mapWriteErr("open "+string(a.ProviderType)+" assignment", err)
	}
	return nil
}

func (r *assignmentRepository) Close(ctx context.Context, id uuid.UUID, end model.Date) error {
	query := `UPDATE user_patients SET service_end_date = $1 WHERE id = $2 AND service_end_date IS NULL`
	return execOne(ctx, r.q, "open assignment", query, end, id)
}

func (r *assignmentRepository) ListOpenProviders(ctx context.Context, patientID uuid.UUID) ([]*model.Provider, error) {
	query := `
		SELECT u.id AS user_id, u.name, u.email, up.provider_type, up.service_begin_date
		FROM user_patients up
		JOIN users u ON u.id = up.user_id
		WHERE up.patient_id = $1 AND up.service_end_date IS NULL
		ORDER BY up.provider_type
	`
	providers := []*model.Provider{}
	if err := sqlx.SelectContext(ctx, r.q, &providers, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}
