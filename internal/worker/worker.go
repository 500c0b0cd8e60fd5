package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gatecrest/backend/internal/emaillogs"
	"github.com/gatecrest/backend/internal/mailer"
	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/queue"
)

// EmailProcessor consumes ticket email jobs: render, send over SMTP,
// record the outcome in email_logs.
type EmailProcessor struct {
	logs   *emaillogs.Repository
	mailer *mailer.Mailer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an email delivery processor.
func NewEmailProcessor(logs *emaillogs.Repository, m *mailer.Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logs: logs, mailer: m, queue: q, logger: logger}
}

// Process executes one ticket email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTicketEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TicketEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sendErr := p.mailer.SendTicket(payload)
	p.record(ctx, payload, sendErr)
	if sendErr != nil {
		return sendErr
	}
	p.logger.Info("ticket email sent",
		zap.String("ticket_id", payload.TicketID.String()),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

// record writes the delivery outcome. Log failures are non-fatal; losing a
// log row must not requeue an email that already went out.
func (p *EmailProcessor) record(ctx context.Context, payload queue.TicketEmailPayload, sendErr error) {
	now := time.Now().UTC()
	el := &models.EmailLog{
		EventID:        &payload.EventID,
		TicketID:       &payload.TicketID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        mailer.Subject(payload),
		Status:         models.EmailLogStatusSent,
		SentAt:         &now,
	}
	if sendErr != nil {
		el.Status = models.EmailLogStatusFailed
		el.SentAt = nil
		el.ErrorMessage = sendErr.Error()
	}
	if err := p.logs.Insert(ctx, el); err != nil {
		p.logger.Warn("email log insert failed", zap.Error(err),
			zap.String("ticket_id", payload.TicketID.String()))
	}
}

// Run consumes jobs until ctx is done.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.Error(err), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}
