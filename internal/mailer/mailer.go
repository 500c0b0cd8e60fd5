// Package mailer sends ticket emails over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/gatecrest/backend/config"
	"github.com/gatecrest/backend/pkg/queue"
)

// Mailer sends ticket emails. When no SMTP host is configured it logs and
// reports success so local setups work without a mail server.
type Mailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// New creates a mailer.
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Subject builds the subject line for a ticket email.
func Subject(p queue.TicketEmailPayload) string {
	return fmt.Sprintf("Your ticket for %s", p.EventTitle)
}

// SendTicket delivers one ticket email.
func (m *Mailer) SendTicket(p queue.TicketEmailPayload) error {
	if m.cfg.SMTPHost == "" {
		m.logger.Info("smtp not configured, skipping send",
			zap.String("recipient", p.RecipientEmail),
			zap.String("ticket_id", p.TicketID.String()))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", p.RecipientEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(p))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", p.RecipientName)
	fmt.Fprintf(&b, "Here is your ticket for %s.\r\n\r\n", p.EventTitle)
	fmt.Fprintf(&b, "Admission code: %s\r\n\r\n", p.Code)
	b.WriteString("Show this code at the entrance.\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{p.RecipientEmail}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
