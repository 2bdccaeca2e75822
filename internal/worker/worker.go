package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/queue"
)

// Mailer delivers one email message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.EmailConfig
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers a message via the configured relay.
func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	msg := []byte("From: " + m.cfg.FromName + " <" + m.cfg.FromAddress + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, msg)
}

// NotificationProcessor delivers queued notifications: load the row, send via
// the channel's transport, mark the row sent or failed.
type NotificationProcessor struct {
	repo   *notifications.Repository
	queue  *queue.Queue
	mailer Mailer
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification delivery processor.
func NewNotificationProcessor(repo *notifications.Repository, q *queue.Queue, mailer Mailer, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{repo: repo, queue: q, mailer: mailer, logger: logger}
}

// Process executes one notification delivery job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n, err := p.repo.GetByID(ctx, payload.NotificationID)
	if err != nil {
		return fmt.Errorf("notification not found: %s", payload.NotificationID)
	}
	if n.Status != "queued" {
		p.logger.Info("notification already delivered", zap.String("notification_id", n.ID.String()))
		return nil
	}

	switch n.Channel {
	case "email":
		if n.Recipient == "" {
			if err := p.repo.MarkFailed(ctx, n.ID, "no recipient address"); err != nil {
				p.logger.Error("mark failed failed", zap.Error(err))
			}
			return nil
		}
		if err := p.mailer.Send(n.Recipient, n.Subject, n.Body); err != nil {
			if mErr := p.repo.MarkFailed(ctx, n.ID, err.Error()); mErr != nil {
				p.logger.Error("mark failed failed", zap.Error(mErr))
			}
			return fmt.Errorf("send email: %w", err)
		}
	case "push":
		// push provider integration pending; the row is the delivery record
		p.logger.Info("push notification recorded",
			zap.String("notification_id", n.ID.String()),
			zap.String("type", n.Type))
	default:
		if err := p.repo.MarkFailed(ctx, n.ID, "unknown channel: "+n.Channel); err != nil {
			p.logger.Error("mark failed failed", zap.Error(err))
		}
		return nil
	}

	if err := p.repo.MarkSent(ctx, n.ID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	p.logger.Info("notification delivered",
		zap.String("notification_id", n.ID.String()),
		zap.String("channel", n.Channel))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
