package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

type UserServicer interface {
	CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.UserDetail, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.UserDetail, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.UserDetail, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
	ListUserClinics(ctx context.Context, userID uuid.UUID) ([]*model.ClinicRef, error)
	ListConsultants(ctx context.Context, clinicID uuid.UUID) ([]*model.User, error)
}

type Service struct {
	store   repository.Store
	hasher  security.PasswordHasher
	auditor *audit.Service
}

var _ UserServicer = (*Service)(nil)

func NewService(store repository.Store, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		auditor: auditor,
	}
}

func validateProfile(name, email string, role model.Role) error {
	details := map[string]string{}
	if strings.TrimSpace(name) == "" {
		details["name"] = "is required"
	}
	if !strings.Contains(email, "@") {
		details["email"] = "must be a valid email address"
	}
	if !role.Valid() {
		details["role"] = "must be one of BHCM, Psychiatric Consultant, Primary Care Physician, Admin"
	}
	if len(details) > 0 {
		return apperrors.NewValidation("invalid user", details)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrWeakPassword) {
		return "", apperrors.NewValidation("invalid user", map[string]string{"password": err.Error()})
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hashed, nil
}

// setClinics replaces the user's memberships after checking each clinic exists.
func setClinics(ctx context.Context, tx repository.Store, userID uuid.UUID, clinicIDs []uuid.UUID) error {
	for _, id := range clinicIDs {
		if _, err := tx.Clinics().Get(ctx, id); err != nil {
			return err
		}
	}
	if err := tx.Users().SetClinics(ctx, userID, clinicIDs); err != nil {
		return fmt.Errorf("failed to set clinics: %w", err)
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.UserDetail, error) {
	if err := validateProfile(req.Name, req.Email, req.Role); err != nil {
		return nil, err
	}
	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		PhoneNumber:  req.PhoneNumber,
		Role:         req.Role,
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return setClinics(ctx, tx, user.ID, req.ClinicIDs)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionCreate, model.AuditEntityUser, user.ID, user)
	return s.GetUser(ctx, user.ID)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.UserDetail, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	clinics, err := s.store.Users().ListClinics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list user clinics: %w", err)
	}
	return &model.UserDetail{User: *user, Clinics: clinics}, nil
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.UserDetail, error) {
	if err := validateProfile(req.Name, req.Email, req.Role); err != nil {
		return nil, err
	}
	var hashed string
	if req.Password != "" {
		var err error
		if hashed, err = s.hash(req.Password); err != nil {
			return nil, err
		}
	}

	var user *model.User
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if user, err = tx.Users().Get(ctx, id); err != nil {
			return err
		}
		user.Name = strings.TrimSpace(req.Name)
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
		user.PhoneNumber = req.PhoneNumber
		user.Role = req.Role
		if hashed != "" {
			user.PasswordHash = hashed
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		return setClinics(ctx, tx, id, req.ClinicIDs)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionUpdate, model.AuditEntityUser, id, user)
	return s.GetUser(ctx, id)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionDelete, model.AuditEntityUser, id, nil)
	return nil
}

func (s *Service) ListUsers(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperrors.NewValidation("invalid user filter", map[string]string{"role": "unknown role"})
	}
	users, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) ListUserClinics(ctx context.Context, userID uuid.UUID) ([]*model.ClinicRef, error) {
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.Users().ListClinics(ctx, userID)
}

// ListConsultants returns the psychiatric consultants who belong to clinicID.
func (s *Service) ListConsultants(ctx context.Context, clinicID uuid.UUID) ([]*model.User, error) {
	return s.ListUsers(ctx, model.UserFilter{Role: model.RolePsychiatricConsultant, ClinicID: &clinicID})
}
