package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

type flagRepository struct {
	q sqlx.ExtContext
}

func (r *flagRepository) Add(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error) {
	query := `
		INSERT INTO patient_flags (id, patient_id, flag)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id, flag) DO NOTHING
	`
	res, err := r.q.ExecContext(ctx, query, uuid.New(), patientID, flag)
	if err != nil {
		return false, fmt.Errorf("failed to add %s flag: %w", flag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *flagRepository) Remove(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM patient_flags WHERE patient_id = $1 AND flag = $2`, patientID, flag)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s flag: %w", flag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *flagRepository) Has(ctx context.Context, patientID uuid.UUID, flag model.FlagLabel) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM patient_flags WHERE patient_id = $1 AND flag = $2)`
	if err := sqlx.GetContext(ctx, r.q, &exists, query, patientID, flag); err != nil {
		return false, fmt.Errorf("failed to check %s flag: %w", flag, err)
	}
	return exists, nil
}

func (r *flagRepository) List(ctx context.Context, patientID uuid.UUID) ([]model.FlagLabel, error) {
	flags := []model.FlagLabel{}
	query := `SELECT flag FROM patient_flags WHERE patient_id = $1 ORDER BY flag`
	if err := sqlx.SelectContext(ctx, r.q, &flags, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return flags, nil
}

func (r *flagRepository) ListForPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]model.FlagLabel, error) {
	out := make(map[uuid.UUID][]model.FlagLabel, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(patientIDs))
	for i, id := range patientIDs {
		ids[i] = id.String()
	}

	var rows []model.PatientFlag
	query := `SELECT id, patient_id, flag, created_at FROM patient_flags WHERE patient_id = ANY($1::uuid[]) ORDER BY flag`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	for _, row := range rows {
		out[row.PatientID] = append(out[row.PatientID], row.Flag)
	}
	return out, nil
}
