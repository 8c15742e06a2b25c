package worker

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jwalitptl/collabcare-api/internal/email"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

// DigestSource lists overdue reminders grouped by care manager.
type DigestSource interface {
	OverdueDigests(ctx context.Context) ([]*model.OverdueDigest, error)
}

// ReminderDigestWorker e-mails each care manager a summary of their overdue follow-ups.
type ReminderDigestWorker struct {
	source   DigestSource
	sender   email.Sender
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewReminderDigestWorker(source DigestSource, sender email.Sender, interval time.Duration, logger *zap.Logger, m *metrics.Metrics) *ReminderDigestWorker {
	return &ReminderDigestWorker{
		source:   source,
		sender:   sender,
		interval: interval,
		logger:   logger.Named("reminder_digest"),
		metrics:  m,
		now:      time.Now,
	}
}

func (w *ReminderDigestWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SendDigests(ctx); err != nil {
				w.logger.Error("Reminder digest run failed", zap.Error(err))
			}
		}
	}
}

// SendDigests mails every care manager with overdue reminders. A failed
// delivery is logged and counted; the remaining managers are still mailed.
func (w *ReminderDigestWorker) SendDigests(ctx context.Context) (int, error) {
	digests, err := w.source.OverdueDigests(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range digests {
		if d.CareManagerEmail == "" {
			continue
		}
		if err := w.sender.Send(ctx, w.compose(d)); err != nil {
			w.metrics.DigestEmailsFailed.Inc()
			w.logger.Warn("Failed to send reminder digest",
				zap.String("care_manager_id", d.CareManagerID.String()),
				zap.Error(err),
			)
			continue
		}
		w.metrics.DigestEmailsSent.Inc()
		sent++
	}

	w.logger.Info("Reminder digests sent", zap.Int("sent", sent), zap.Int("care_managers", len(digests)))
	return sent, nil
}

func (w *ReminderDigestWorker) compose(d *model.OverdueDigest) *email.Message {
	today := model.DateOf(w.now())

	var text, rows strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\nThe following follow-ups are overdue as of %s:\n\n", d.CareManagerName, today)
	for _, r := range d.Reminders {
		days := r.DueDate.DaysUntil(today)
		name := r.FirstName + " " + r.LastName
		fmt.Fprintf(&text, "- %s (MRN %s, %s): %s due %s, %d days overdue\n",
			name, r.MRN, r.ClinicName, r.ReminderType, r.DueDate, days)
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>",
			html.EscapeString(name), html.EscapeString(r.MRN), html.EscapeString(r.ReminderType), r.DueDate, days)
	}

	return &email.Message{
		To:       d.CareManagerEmail,
		Subject:  fmt.Sprintf("%d overdue follow-up reminders", len(d.Reminders)),
		TextBody: text.String(),
		HTMLBody: "<p>Hello " + html.EscapeString(d.CareManagerName) + ",</p>" +
			"<table><tr><th>Patient</th><th>MRN</th><th>Type</th><th>Due</th><th>Days overdue</th></tr>" +
			rows.String() + "</table>",
	}
}
