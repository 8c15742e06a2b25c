package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type consultationRepository struct {
	q sqlx.ExtContext
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	query := `
		INSERT INTO psych_consultations (
			id, patient_id, consultant_id, consult_date, minutes, recommendations,
			treatment_plan, medications, follow_up_needed, next_follow_up_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	_, err := r.q.ExecContext(ctx, query,
		c.ID,
		c.PatientID,
		c.ConsultantID,
		c.ConsultDate,
		c.Minutes,
		c.Recommendations,
		c.TreatmentPlan,
		c.Medications,
		c.FollowUpNeeded,
		c.NextFollowUpDate,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) History(ctx context.Context, patientID uuid.UUID) ([]*model.ConsultationView, error) {
	query := `
		SELECT pc.id, pc.patient_id, pc.consultant_id, pc.consult_date, pc.minutes, pc.recommendations,
			pc.treatment_plan, pc.medications, pc.follow_up_needed, pc.next_follow_up_date, pc.created_at,
			u.name AS consult_by, u.role AS consult_by_role
		FROM psych_consultations pc
		JOIN users u ON u.id = pc.consultant_id
		WHERE pc.patient_id = $1
		ORDER BY pc.consult_date DESC, pc.created_at DESC
	`
	out := []*model.ConsultationView{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to get consultation history: %w", err)
	}
	return out, nil
}

// clinicClause appends an optional clinic filter on alias p as the next placeholder.
func clinicClause(args []interface{}, clinicID *uuid.UUID) (string, []interface{}) {
	if clinicID == nil {
		return "", args
	}
	args = append(args, *clinicID)
	return fmt.Sprintf(" AND p.clinic_id = $%d", len(args)), args
}

func (r *consultationRepository) CountAssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error) {
	clause, args := clinicClause([]interface{}{consultantID}, clinicID)
	query := `
		SELECT COUNT(DISTINCT p.id)
		FROM patients p
		JOIN user_patients up ON up.patient_id = p.id
		WHERE up.user_id = $1 AND up.provider_type = 'Psychiatric Consultant'` + clause

	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count assigned patients: %w", err)
	}
	return n, nil
}

func (r *consultationRepository) TotalMinutes(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error) {
	clause, args := clinicClause([]interface{}{consultantID}, clinicID)
	query := `
		SELECT COALESCE(SUM(mt.total_minutes), 0)
		FROM minute_tracking mt
		JOIN patients p ON p.id = mt.patient_id
		WHERE mt.user_id = $1 AND mt.activity IN ('psych_consult', 'contact_attempt')` + clause

	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to sum consultant minutes: %w", err)
	}
	return n, nil
}

func (r *consultationRepository) CountUpcomingReferrals(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) (int, error) {
	clause, args := clinicClause([]interface{}{consultantID}, clinicID)
	query := `
		SELECT COUNT(DISTINCT p.id)
		FROM patients p
		JOIN contacts c ON c.patient_id = p.id
		WHERE c.discuss_with_consultant AND c.psychiatric_consultant_id = $1
			AND NOT EXISTS (
				SELECT 1 FROM psych_consultations pc
				WHERE pc.patient_id = p.id AND pc.consultant_id = $1
			)` + clause

	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return n, nil
}

func (r *consultationRepository) RecentReferrals(ctx context.Context, consultantID uuid.UUID, limit int) ([]*model.ReferredPatient, error) {
	query := `
		SELECT p.id, p.first_name, p.last_name, p.mrn,
			c.contact_date AS referral_date, c.notes AS referral_reason,
			(SELECT MAX(a.score) FROM assessments a WHERE a.patient_id = p.id AND a.type = 'PHQ-9') AS phq9_score,
			(SELECT MAX(a.score) FROM assessments a WHERE a.patient_id = p.id AND a.type = 'GAD-7') AS gad7_score
		FROM contacts c
		JOIN patients p ON p.id = c.patient_id
		WHERE c.discuss_with_consultant AND c.psychiatric_consultant_id = $1
		ORDER BY c.contact_date DESC, c.created_at DESC
		LIMIT $2
	`
	out := []*model.ReferredPatient{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, consultantID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent referrals: %w", err)
	}
	return out, nil
}

func (r *consultationRepository) AssignedPatients(ctx context.Context, consultantID uuid.UUID, clinicID *uuid.UUID) ([]*model.ReferredPatient, error) {
	clause, args := clinicClause([]interface{}{consultantID}, clinicID)
	query := `
		SELECT DISTINCT p.id, p.first_name, p.last_name, p.mrn, p.dob, p.status,
			(SELECT MAX(c.contact_date) FROM contacts c WHERE c.patient_id = p.id) AS referral_date,
			(SELECT c.notes FROM contacts c WHERE c.patient_id = p.id
				ORDER BY c.contact_date DESC, c.created_at DESC LIMIT 1) AS referral_reason,
			(SELECT MAX(a.score) FROM assessments a WHERE a.patient_id = p.id AND a.type = 'PHQ-9') AS phq9_score,
			(SELECT MAX(a.score) FROM assessments a WHERE a.patient_id = p.id AND a.type = 'GAD-7') AS gad7_score,
			(SELECT u.name FROM user_patients bh JOIN users u ON u.id = bh.user_id
				WHERE bh.patient_id = p.id AND bh.provider_type = 'BHCM' AND bh.service_end_date IS NULL
				LIMIT 1) AS care_manager_name
		FROM patients p
		JOIN user_patients up ON up.patient_id = p.id
		WHERE up.user_id = $1 AND up.provider_type = 'Psychiatric Consultant'` + clause + `
		ORDER BY p.last_name ASC`

	out := []*model.ReferredPatient{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list assigned patients: %w", err)
	}
	return out, nil
}

func (r *consultationRepository) CareManagerNotes(ctx context.Context, patientID uuid.UUID) ([]*model.CareManagerNote, error) {
	query := `
		SELECT c.id, c.contact_date, a.answers_json, c.discuss_with_consultant, c.notes,
			u.name AS created_by_name, u.role AS user_role
		FROM contacts c
		JOIN assessments a ON a.patient_id = c.patient_id AND a.date = c.contact_date AND a.type = 'PHQ-9'
		JOIN users u ON u.id = c.created_by
		WHERE c.patient_id = $1 AND c.discuss_with_consultant
		ORDER BY c.contact_date DESC
	`
	out := []*model.CareManagerNote{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to get care manager notes: %w", err)
	}
	return out, nil
}
