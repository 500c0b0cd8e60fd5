package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle state of a ticket. USED and CANCELLED
// are terminal.
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "ACTIVE"
	TicketStatusUsed      TicketStatus = "USED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// Ticket payment status.
const (
	TicketPaymentFree = "FREE"
	TicketPaymentPaid = "PAID"
)

// Ticket is a unique admission token bound to one event and one user.
// Code is immutable after creation. PaymentIntentID and CheckoutSessionID
// carry external payment identifiers and are unique when present; the
// payment reconciler keys idempotency on them.
type Ticket struct {
	ID                uuid.UUID    `json:"id"`
	Code              string       `json:"code"`
	EventID           uuid.UUID    `json:"event_id"`
	UserID            uuid.UUID    `json:"user_id"`
	Status            TicketStatus `json:"status"`
	PaymentStatus     string       `json:"payment_status"`
	PaymentIntentID   *string      `json:"payment_intent_id,omitempty"`
	CheckoutSessionID *string      `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UsedAt            *time.Time   `json:"used_at,omitempty"`
}
