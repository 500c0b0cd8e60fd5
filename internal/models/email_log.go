package models

import (
	"time"

	"github.com/google/uuid"
)

// Email kinds sent by the delivery worker.
const (
	EmailTypeTicketIssued = "ticket_issued"
	EmailTypeTicketResend = "ticket_resend"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records ticket email delivery attempts. Delivery is best-effort;
// the log exists so organizers can see what went out.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	TicketID       *uuid.UUID `json:"ticket_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
