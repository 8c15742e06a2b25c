package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type clinicRepository struct {
	q sqlx.ExtContext
}

const clinicColumns = `id, name, address, phone_number, email, created_at, updated_at`

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, address, phone_number, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	clinic.ID = uuid.New()
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = clinic.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Address,
		clinic.PhoneNumber,
		clinic.Email,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	var clinic model.Clinic
	if err := get(ctx, r.q, &clinic, "clinic", `SELECT `+clinicColumns+` FROM clinics WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, address = $2, phone_number = $3, email = $4, updated_at = $5
		WHERE id = $6
	`
	clinic.UpdatedAt = time.Now()
	return execOne(ctx, r.q, "clinic", query,
		clinic.Name, clinic.Address, clinic.PhoneNumber, clinic.Email, clinic.UpdatedAt, clinic.ID)
}

func (r *clinicRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.q, "clinic", `DELETE FROM clinics WHERE id = $1`, id)
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	clinics := []*model.Clinic{}
	if err := sqlx.SelectContext(ctx, r.q, &clinics, `SELECT `+clinicColumns+` FROM clinics ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) ListUsers(ctx context.Context, clinicID uuid.UUID) ([]*model.UserRef, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role
		FROM users u
		JOIN user_clinics uc ON uc.user_id = u.id
		WHERE uc.clinic_id = $1
		ORDER BY u.name
	`
	users := []*model.UserRef{}
	if err := sqlx.SelectContext(ctx, r.q, &users, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list clinic users: %w", err)
	}
	return users, nil
}

func (r *clinicRepository) Dashboard(ctx context.Context, clinicID uuid.UUID, newSince model.Date) (*model.ClinicDashboard, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1) AS total_patients,
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1 AND status IN ('A', 'R', 'T')) AS active_patients,
			(SELECT COALESCE(SUM(mt.total_minutes), 0)
				FROM minute_tracking mt
				JOIN patients p ON p.id = mt.patient_id
				WHERE p.clinic_id = $1) AS total_minutes,
			(SELECT COUNT(*) FROM patients WHERE clinic_id = $1 AND enrollment_date >= $2) AS new_patients
	`
	var d model.ClinicDashboard
	if err := sqlx.GetContext(ctx, r.q, &d, query, clinicID, newSince); err != nil {
		return nil, fmt.Errorf("failed to get clinic dashboard: %w", err)
	}
	if d.TotalPatients > 0 {
		d.AverageMinutesPerPatient = d.TotalMinutesTracked / d.TotalPatients
	}
	return &d, nil
}
