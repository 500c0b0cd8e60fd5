package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckerAssignment delegates ticket verification for an event to a user
// other than the owner. Unique per (event, user).
type CheckerAssignment struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
