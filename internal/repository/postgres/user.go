package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/collabcare-api/internal/model"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

type userRepository struct {
	q sqlx.ExtContext
}

const userColumns = `u.id, u.name, u.email, u.password_hash, u.phone_number, u.role, u.created_at, u.updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, phone_number, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.PhoneNumber,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr("user with this email", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := get(ctx, r.q, &user, "user", `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	if err := get(ctx, r.q, &user, "user", query, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, phone_number = $4, role = $5, updated_at = $6
		WHERE id = $7
	`
	user.UpdatedAt = time.Now()
	res, err := r.q.ExecContext(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.PhoneNumber,
		user.Role,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapWriteErr("user with this email", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFound("user", sql.ErrNoRows)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.q, "user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("u.role = $%d", len(args)))
	}
	if filter.ClinicID != nil {
		args = append(args, *filter.ClinicID)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM user_clinics f WHERE f.user_id = u.id AND f.clinic_id = $%d)", len(args)))
	}

	query := `
		SELECT ` + userColumns + `, STRING_AGG(c.name, ', ' ORDER BY c.name) AS clinic_names
		FROM users u
		LEFT JOIN user_clinics uc ON uc.user_id = u.id
		LEFT JOIN clinics c ON c.id = uc.clinic_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY u.id ORDER BY u.name"

	users := []*model.User{}
	if err := sqlx.SelectContext(ctx, r.q, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) SetClinics(ctx context.Context, userID uuid.UUID, clinicIDs []uuid.UUID) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM user_clinics WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user clinics: %w", err)
	}
	for _, clinicID := range clinicIDs {
		query := `INSERT INTO user_clinics (user_id, clinic_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := r.q.ExecContext(ctx, query, userID, clinicID); err != nil {
			return fmt.Errorf("failed to assign user to clinic: %w", err)
		}
	}
	return nil
}

func (r *userRepository) ListClinics(ctx context.Context, userID uuid.UUID) ([]*model.ClinicRef, error) {
	query := `
		SELECT c.id, c.name
		FROM clinics c
		JOIN user_clinics uc ON uc.clinic_id = c.id
		WHERE uc.user_id = $1
		ORDER BY c.name
	`
	clinics := []*model.ClinicRef{}
	if err := sqlx.SelectContext(ctx, r.q, &clinics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user clinics: %w", err)
	}
	return clinics, nil
}
