package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

// sectionColumns are the clinical section columns shared by patient_intake and safety_plans.
const sectionColumns = `symptoms_json, columbia_suicide_severity, anxiety_panic_attacks,
	past_mental_health_json, psychiatric_hospitalizations, substance_use_json, medical_history_json,
	other_medical_history, family_mental_health_json, social_situation_json, current_medications,
	past_medications, narrative`

func sectionArgs(s *model.ClinicalSections) []interface{} {
	return []interface{}{
		s.Symptoms,
		s.ColumbiaSuicideSeverity,
		s.AnxietyPanicAttacks,
		s.PastMentalHealth,
		s.PsychiatricHospitalizations,
		s.SubstanceUse,
		s.MedicalHistory,
		s.OtherMedicalHistory,
		s.FamilyMentalHealth,
		s.SocialSituation,
		s.CurrentMedications,
		s.PastMedications,
		s.Narrative,
	}
}

type intakeRepository struct {
	q sqlx.ExtContext
}

const intakeColumns = `id, patient_id, created_by, contact_date, ` + sectionColumns + `, minutes, created_at`

func (r *intakeRepository) Create(ctx context.Context, in *model.Intake) error {
	query := `
		INSERT INTO patient_intake (id, patient_id, created_by, contact_date, ` + sectionColumns + `, minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	in.ID = uuid.New()
	in.CreatedAt = time.Now()

	args := []interface{}{in.ID, in.PatientID, in.CreatedBy, in.ContactDate}
	args = append(args, sectionArgs(&in.ClinicalSections)...)
	args = append(args, in.Minutes, in.CreatedAt)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create intake: %w", err)
	}
	return nil
}

func (r *intakeRepository) Get(ctx context.Context, id uuid.UUID) (*model.Intake, error) {
	var in model.Intake
	if err := get(ctx, r.q, &in, "intake", `SELECT `+intakeColumns+` FROM patient_intake WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *intakeRepository) CountForPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM patient_intake WHERE patient_id = $1`, patientID); err != nil {
		return 0, fmt.Errorf("failed to count intakes: %w", err)
	}
	return n, nil
}

func (r *intakeRepository) Latest(ctx context.Context, patientID uuid.UUID) (*model.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM patient_intake
		WHERE patient_id = $1
		ORDER BY contact_date DESC, created_at DESC
		LIMIT 1`
	var in model.Intake
	if err := get(ctx, r.q, &in, "intake", query, patientID); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *intakeRepository) List(ctx context.Context, patientID uuid.UUID) ([]*model.Intake, error) {
	query := `SELECT ` + intakeColumns + ` FROM patient_intake
		WHERE patient_id = $1
		ORDER BY contact_date DESC, created_at DESC`
	out := []*model.Intake{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list intakes: %w", err)
	}
	return out, nil
}
