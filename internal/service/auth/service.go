package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

type Service struct {
	users   repository.UserRepository
	jwtSvc  auth.JWTService
	hasher  security.PasswordHasher
	auditor *audit.Service
	now     func() time.Time
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		users:   users,
		jwtSvc:  jwtSvc,
		hasher:  hasher,
		auditor: auditor,
		now:     time.Now,
	}
}

// Login exchanges credentials for an access token. Unknown emails and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.auditor.Record(ctx, &user.ID, model.AuditActionLogin, model.AuditEntityUser, user.ID, nil)
	return &model.LoginResponse{
		Token:     token,
		ExpiresIn: int64(expiresAt.Sub(s.now()).Seconds()),
		User: model.LoginUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// ValidateToken parses a bearer token into its claims.
func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}
