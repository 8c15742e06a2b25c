package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/collabcare-api/internal/repository"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

const uniqueViolation = "23505"

// Store implements repository.Store over a *sqlx.DB. A Store created by
// WithTx is bound to that transaction.
type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx bool
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Patients() repository.PatientRepository           { return &patientRepository{q: s.q} }
func (s *Store) Flags() repository.FlagRepository                 { return &flagRepository{q: s.q} }
func (s *Store) Assignments() repository.AssignmentRepository     { return &assignmentRepository{q: s.q} }
func (s *Store) Assessments() repository.AssessmentRepository     { return &assessmentRepository{q: s.q} }
func (s *Store) Contacts() repository.ContactRepository           { return &contactRepository{q: s.q} }
func (s *Store) Minutes() repository.MinuteRepository             { return &minuteRepository{q: s.q} }
func (s *Store) Intakes() repository.IntakeRepository             { return &intakeRepository{q: s.q} }
func (s *Store) SafetyPlans() repository.SafetyPlanRepository     { return &safetyPlanRepository{q: s.q} }
func (s *Store) Reminders() repository.ReminderRepository         { return &reminderRepository{q: s.q} }
func (s *Store) Consultations() repository.ConsultationRepository { return &consultationRepository{q: s.q} }
func (s *Store) Clinics() repository.ClinicRepository             { return &clinicRepository{q: s.q} }
func (s *Store) Users() repository.UserRepository                 { return &userRepository{q: s.q} }
func (s *Store) Outbox() repository.OutboxRepository              { return &outboxRepository{q: s.q} }
func (s *Store) Audit() repository.AuditRepository                { return &auditRepository{q: s.q} }

// WithTx executes a function within a transaction
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, tx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ repository.Store = (*Store)(nil)

// get scans a single row into dest, mapping sql.ErrNoRows to NotFound.
func get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, resource, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFound(resource, err)
		}
		return fmt.Errorf("failed to get %s: %w", resource, err)
	}
	return nil
}

// getOptional is get for lookups where absence is not an error. It reports whether a row was found.
func getOptional(ctx context.Context, q sqlx.QueryerContext, dest interface{}, resource, query string, args ...interface{}) (bool, error) {
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", resource, err)
	}
	return true, nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, q sqlx.ExecerContext, resource, query string, args ...interface{}) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteErr(resource, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", resource, err)
	}
	if n == 0 {
		return apperrors.NewNotFound(resource, sql.ErrNoRows)
	}
	return nil
}

// mapWriteErr turns unique violations into Conflict errors.
func mapWriteErr(resource string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.NewConflict(fmt.Sprintf("%s already exists", resource), err)
	}
	return fmt.Errorf("failed to write %s: %w", resource, err)
}
