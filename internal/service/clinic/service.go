package clinic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
)

type ClinicServicer interface {
	CreateClinic(ctx context.Context, req *model.ClinicRequest) (*model.Clinic, error)
	GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	UpdateClinic(ctx context.Context, id uuid.UUID, req *model.ClinicRequest) (*model.Clinic, error)
	DeleteClinic(ctx context.Context, id uuid.UUID) error
	ListClinics(ctx context.Context) ([]*model.Clinic, error)
	ListUsers(ctx context.Context, clinicID uuid.UUID) ([]*model.UserRef, error)
	Dashboard(ctx context.Context, clinicID uuid.UUID) (*model.ClinicDashboard, error)
	InvalidateDashboard(clinicID uuid.UUID)
}

type Config struct {
	CacheDuration   time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheDuration:   5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

type Service struct {
	repo    repository.ClinicRepository
	auditor *audit.Service
	cache   *cache.Cache
	now     func() time.Time
}

var _ ClinicServicer = (*Service)(nil)

func NewService(repo repository.ClinicRepository, auditor *audit.Service, config Config) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cache:   cache.New(config.CacheDuration, config.CleanupInterval),
		now:     time.Now,
	}
}

func validateClinic(req *model.ClinicRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidation("invalid clinic", map[string]string{"name": "is required"})
	}
	return nil
}

func (s *Service) CreateClinic(ctx context.Context, req *model.ClinicRequest) (*model.Clinic, error) {
	if err := validateClinic(req); err != nil {
		return nil, err
	}
	clinic := &model.Clinic{
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	}
	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}

	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionCreate, model.AuditEntityClinic, clinic.ID, clinic)
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, req *model.ClinicRequest) (*model.Clinic, error) {
	if err := validateClinic(req); err != nil {
		return nil, err
	}
	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	clinic.Name = strings.TrimSpace(req.Name)
	clinic.Address = req.Address
	clinic.PhoneNumber = req.PhoneNumber
	clinic.Email = req.Email

	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to update clinic: %w", err)
	}

	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionUpdate, model.AuditEntityClinic, clinic.ID, clinic)
	return clinic, nil
}

func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateDashboard(id)
	s.auditor.Record(ctx, auth.ActorID(ctx), model.AuditActionDelete, model.AuditEntityClinic, id, nil)
	return nil
}

func (s *Service) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	clinics, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

func (s *Service) ListUsers(ctx context.Context, clinicID uuid.UUID) ([]*model.UserRef, error) {
	if _, err := s.repo.Get(ctx, clinicID); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx, clinicID)
}

// Dashboard is cached per clinic; new patients are those enrolled in the last month.
func (s *Service) Dashboard(ctx context.Context, clinicID uuid.UUID) (*model.ClinicDashboard, error) {
	key := clinicID.String()
	if cached, ok := s.cache.Get(key); ok {
		d := *cached.(*model.ClinicDashboard)
		return &d, nil
	}

	if _, err := s.repo.Get(ctx, clinicID); err != nil {
		return nil, err
	}
	since := model.DateOf(s.now().AddDate(0, -1, 0))
	d, err := s.repo.Dashboard(ctx, clinicID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	if d.TotalPatients > 0 {
		d.AverageMinutesPerPatient = d.TotalMinutesTracked / d.TotalPatients
	}

	s.cache.SetDefault(key, d)
	out := *d
	return &out, nil
}

func (s *Service) InvalidateDashboard(clinicID uuid.UUID) {
	s.cache.Delete(clinicID.String())
}
