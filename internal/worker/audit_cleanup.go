package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

// AuditPurger deletes audit entries older than a retention window.
type AuditPurger interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type AuditCleanupWorker struct {
	audit           AuditPurger
	retentionDays   int
	cleanupInterval time.Duration
	logger          *zap.Logger
	metrics         *metrics.Metrics
}

func NewAuditCleanupWorker(audit AuditPurger, retentionDays int, cleanupInterval time.Duration, logger *zap.Logger, m *metrics.Metrics) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		audit:           audit,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          logger.Named("audit_cleanup"),
		metrics:         m,
	}
}

// Start purges once immediately and then on every tick until ctx is done.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := w.Cleanup(ctx); err != nil {
			w.logger.Error("Audit cleanup failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *AuditCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	rows, err := w.audit.Cleanup(ctx, w.retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}
	w.metrics.AuditLogsPurged.Add(float64(rows))
	w.logger.Info("Cleaned up audit logs",
		zap.Int64("rows", rows),
		zap.Int("retention_days", w.retentionDays),
	)
	return rows, nil
}
