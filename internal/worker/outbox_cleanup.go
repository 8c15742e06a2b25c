package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jwalitptl/collabcare-api/internal/repository"
)

// OutboxCleanupWorker deletes published outbox events once they are older than the retention window.
type OutboxCleanupWorker struct {
	outbox    repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewOutboxCleanupWorker(outbox repository.OutboxRepository, retention, interval time.Duration, logger *zap.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		outbox:    outbox,
		retention: retention,
		interval:  interval,
		logger:    logger.Named("outbox_cleanup"),
		now:       time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error("Outbox cleanup failed", zap.Error(err))
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	rows, err := w.outbox.DeleteProcessedBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed outbox events: %w", err)
	}
	if rows > 0 {
		w.logger.Info("Deleted processed outbox events", zap.Int64("rows", rows))
	}
	return rows, nil
}
