package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type clientKey struct{}

type clientInfo struct {
	ip, userAgent string
}

// WithClient stores the caller's address and user agent for later audit entries.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

type LogOptions struct {
	Changes   interface{}
	IPAddress string
	UserAgent string
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	if opts == nil {
		opts = &LogOptions{}
	}

	var changes json.RawMessage
	if opts.Changes != nil {
		b, err := json.Marshal(opts.Changes)
		if err != nil {
			return fmt.Errorf("failed to marshal audit changes: %w", err)
		}
		changes = b
	}

	// Get IP and User Agent from the request if not provided in opts
	ipAddress, userAgent := opts.IPAddress, opts.UserAgent
	if ipAddress == "" {
		if gc, ok := ctx.(*gin.Context); ok {
			ipAddress = gc.ClientIP()
			userAgent = gc.GetHeader("User-Agent")
		} else if ci, ok := ctx.Value(clientKey{}).(clientInfo); ok {
			ipAddress, userAgent = ci.ip, ci.userAgent
		}
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// Record logs an entry and only reports failures to the log. Callers use it
// after the audited change has already been committed.
func (s *Service) Record(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, changes interface{}) {
	if err := s.Log(ctx, userID, action, entityType, entityID, &LogOptions{Changes: changes}); err != nil {
		log.Warn().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("audit log write failed")
	}
}

func (s *Service) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// Cleanup removes entries older than retentionDays.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %d days", retentionDays)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.repo.DeleteBefore(ctx, cutoff)
}
