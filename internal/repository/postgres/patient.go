package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type patientRepository struct {
	q sqlx.ExtContext
}

const patientColumns = `id, clinic_id, mrn, first_name, last_name, dob, enrollment_date, status,
	phq9_first, phq9_last, gad7_first, gad7_last, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, clinic_id, mrn, first_name, last_name, dob, enrollment_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		patient.ID,
		patient.ClinicID,
		patient.MRN,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.EnrollmentDate,
		patient.Status,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr("patient with this MRN", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	if err := get(ctx, r.q, &patient, "patient", query, id); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 FOR UPDATE`
	if err := get(ctx, r.q, &patient, "patient", query, id); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error {
	query := `UPDATE patients SET status = $1, updated_at = NOW() WHERE id = $2`
	return execOne(ctx, r.q, "patient", query, status, id)
}

func (r *patientRepository) UpdateScores(ctx context.Context, id uuid.UUID, phq9, gad7 int, initial bool) error {
	query := `UPDATE patients SET phq9_last = $1, gad7_last = $2, updated_at = NOW() WHERE id = $3`
	if initial {
		query = `
			UPDATE patients
			SET phq9_first = $1, gad7_first = $2, phq9_last = $1, gad7_last = $2, updated_at = NOW()
			WHERE id = $3
		`
	}
	return execOne(ctx, r.q, "patient", query, phq9, gad7, id)
}

func (r *patientRepository) List(ctx context.Context, filter model.PatientListFilter) ([]*model.PatientSummary, error) {
	query := `
		SELECT p.id, p.mrn, p.first_name, p.last_name, p.dob, p.enrollment_date, p.status,
			p.phq9_first, p.phq9_last, p.gad7_first, p.gad7_last,
			(SELECT MAX(c.contact_date) FROM contacts c WHERE c.patient_id = p.id) AS last_contact_date,
			(SELECT u.name FROM user_patients up JOIN users u ON u.id = up.user_id
				WHERE up.patient_id = p.id AND up.provider_type = 'BHCM' AND up.service_end_date IS NULL
				LIMIT 1) AS care_manager_name,
			d.deactivation_date,
			d.reason AS deactivation_reason
		FROM patients p
		LEFT JOIN LATERAL (
			SELECT deactivation_date, reason FROM deactivations
			WHERE patient_id = p.id ORDER BY deactivation_date DESC, created_at DESC LIMIT 1
		) d ON TRUE
		WHERE p.clinic_id = $1 AND p.status = ANY($2)
		ORDER BY p.last_name, p.first_name
	`
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	var patients []*model.PatientSummary
	if err := sqlx.SelectContext(ctx, r.q, &patients, query, filter.ClinicID, pq.Array(statuses)); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) CreateDeactivation(ctx context.Context, d *model.Deactivation) error {
	query := `
		INSERT INTO deactivations (id, patient_id, deactivation_date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	if _, err := r.q.ExecContext(ctx, query, d.ID, d.PatientID, d.DeactivationDate, d.Reason, d.CreatedAt); err != nil {
		return fmt.Errorf("failed to create deactivation: %w", err)
	}
	return nil
}

func (r *patientRepository) LatestDeactivation(ctx context.Context, patientID uuid.UUID) (*model.Deactivation, error) {
	query := `
		SELECT id, patient_id, deactivation_date, reason, created_at
		FROM deactivations
		WHERE patient_id = $1
		ORDER BY deactivation_date DESC, created_at DESC
		LIMIT 1
	`
	var d model.Deactivation
	found, err := getOptional(ctx, r.q, &d, "deactivation", query, patientID)
	if err != nil || !found {
		return nil, err
	}
	return &d, nil
}
