package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// CanTransitionTo reports whether the status change is allowed.
// CANCELLED is terminal.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch s {
	case EventStatusDraft:
		return next == EventStatusPublished || next == EventStatusCancelled
	case EventStatusPublished:
		return next == EventStatusCancelled
	default:
		return false
	}
}

// Event is a capacity-limited, time-bounded activity tickets admit to.
type Event struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Location     string      `json:"location,omitempty"`
	OwnerID      uuid.UUID   `json:"owner_id"`
	Capacity     *int        `json:"capacity,omitempty"` // nil = unlimited
	Status       EventStatus `json:"status"`
	Paid         bool        `json:"paid"`
	PriceCents   int         `json:"price_cents"`
	Currency     string      `json:"currency"`
	StartsAt     time.Time   `json:"starts_at"`
	EndsAt       *time.Time  `json:"ends_at,omitempty"`
	SalesStartAt *time.Time  `json:"sales_start_at,omitempty"`
	SalesEndAt   *time.Time  `json:"sales_end_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// EffectivelyPaid reports whether admission requires a payment.
// A zero price means free regardless of the paid flag.
func (e *Event) EffectivelyPaid() bool {
	return e.Paid && e.PriceCents > 0
}
