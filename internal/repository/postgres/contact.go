package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type contactRepository struct {
	q sqlx.ExtContext
}

func (r *contactRepository) Create(ctx context.Context, c *model.Contact) error {
	query := `
		INSERT INTO contacts (
			id, patient_id, contact_date, contact_type, interaction_mode, duration_minutes,
			flag_psychiatric_consult, discuss_with_consultant, notes, created_by,
			psychiatric_consultant_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	_, err := r.q.ExecContext(ctx, query,
		c.ID,
		c.PatientID,
		c.ContactDate,
		c.ContactType,
		c.InteractionMode,
		c.DurationMinutes,
		c.FlagPsychiatricConsult,
		c.DiscussWithConsultant,
		c.Notes,
		c.CreatedBy,
		c.PsychiatricConsultantID,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) List(ctx context.Context, patientID uuid.UUID) ([]*model.Contact, error) {
	query := `
		SELECT id, patient_id, contact_date, contact_type, interaction_mode, duration_minutes,
			flag_psychiatric_consult, discuss_with_consultant, notes, created_by,
			psychiatric_consultant_id, created_at
		FROM contacts
		WHERE patient_id = $1
		ORDER BY contact_date DESC, created_at DESC
	`
	out := []*model.Contact{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return out, nil
}

func (r *contactRepository) LastContactDate(ctx context.Context, patientID uuid.UUID) (*model.Date, error) {
	var last *model.Date
	query := `SELECT MAX(contact_date) FROM contacts WHERE patient_id = $1`
	if err := sqlx.GetContext(ctx, r.q, &last, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to get last contact: %w", err)
	}
	return last, nil
}

func (r *contactRepository) TreatmentHistory(ctx context.Context, patientID uuid.UUID) ([]*model.TreatmentHistoryEntry, error) {
	query := `
		SELECT c.id, c.contact_date, c.contact_type, c.interaction_mode, c.duration_minutes, c.notes,
			(SELECT a.score FROM assessments a
				WHERE a.patient_id = c.patient_id AND a.type = 'PHQ-9' AND a.date = c.contact_date
				ORDER BY a.created_at DESC LIMIT 1) AS phq9_score,
			(SELECT a.score FROM assessments a
				WHERE a.patient_id = c.patient_id AND a.type = 'GAD-7' AND a.date = c.contact_date
				ORDER BY a.created_at DESC LIMIT 1) AS gad7_score,
			u.name AS created_by_name
		FROM contacts c
		LEFT JOIN users u ON u.id = c.created_by
		WHERE c.patient_id = $1
		ORDER BY c.contact_date DESC, c.created_at DESC
	`
	out := []*model.TreatmentHistoryEntry{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to get treatment history: %w", err)
	}
	for _, e := range out {
		e.Mode = e.InteractionMode.Label()
	}
	return out, nil
}

func (r *contactRepository) HasConsultReferral(ctx context.Context, patientID, consultantID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM contacts
			WHERE patient_id = $1 AND psychiatric_consultant_id = $2 AND discuss_with_consultant
		)
	`
	if err := sqlx.GetContext(ctx, r.q, &exists, query, patientID, consultantID); err != nil {
		return false, fmt.Errorf("failed to check consult referral: %w", err)
	}
	return exists, nil
}

func (r *contactRepository) CreateAttempt(ctx context.Context, a *model.ContactAttempt) error {
	query := `
		INSERT INTO contact_attempts (id, patient_id, attempt_date, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	if _, err := r.q.ExecContext(ctx, query, a.ID, a.PatientID, a.AttemptDate, a.Description, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create contact attempt: %w", err)
	}
	return nil
}

func (r *contactRepository) GetAttempt(ctx context.Context, id uuid.UUID) (*model.ContactAttempt, error) {
	var a model.ContactAttempt
	query := `SELECT id, patient_id, attempt_date, description, created_at FROM contact_attempts WHERE id = $1`
	if err := get(ctx, r.q, &a, "contact attempt", query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *contactRepository) ListAttempts(ctx context.Context, patientID uuid.UUID) ([]*model.ContactAttempt, error) {
	query := `
		SELECT id, patient_id, attempt_date, description, created_at
		FROM contact_attempts
		WHERE patient_id = $1
		ORDER BY attempt_date DESC, created_at DESC
	`
	out := []*model.ContactAttempt{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list contact attempts: %w", err)
	}
	return out, nil
}
