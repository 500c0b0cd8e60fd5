package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/models"
)

// Verification result messages. Stable codes for the door-scan UI.
const (
	MsgOK               = "OK"
	MsgConsumed         = "CONSUMED"
	MsgForbidden        = "FORBIDDEN"
	MsgTicketNotFound   = "TICKET_NOT_FOUND"
	MsgTicketOtherEvent = "TICKET_FOR_ANOTHER_EVENT"
	MsgTicketNotActive  = "TICKET_NOT_ACTIVE"
)

// VerificationResult is the outcome of a door scan.
type VerificationResult struct {
	Valid         bool                `json:"valid"`
	Message       string              `json:"message"`
	TicketID      *uuid.UUID          `json:"ticket_id,omitempty"`
	Code          string              `json:"code"`
	Status        models.TicketStatus `json:"status,omitempty"`
	OwnerUserID   *uuid.UUID          `json:"owner_user_id,omitempty"`
	OwnerFullName string              `json:"owner_full_name,omitempty"`
	EventID       uuid.UUID           `json:"event_id"`
	EventTitle    string              `json:"event_title,omitempty"`
	VerifiedAt    time.Time           `json:"verified_at"`
}

// canVerify allows the event owner and assigned checkers.
func (s *Service) canVerify(ctx context.Context, ev *models.Event, actorID uuid.UUID) (bool, error) {
	if ev.OwnerID == actorID {
		return true, nil
	}
	return s.checkers.Exists(ctx, ev.ID, actorID)
}

// Validate is the read-only half of the check-in protocol. Repeatable; a
// non-authorized actor gets FORBIDDEN without learning whether the code
// exists.
func (s *Service) Validate(ctx context.Context, eventID uuid.UUID, rawCode string, actorID uuid.UUID) (*VerificationResult, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	res := &VerificationResult{
		Valid:      false,
		EventID:    eventID,
		VerifiedAt: s.clock.Now(),
	}

	allowed, err := s.canVerify(ctx, ev, actorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		res.Message = MsgForbidden
		return res, nil
	}

	code := NormalizeCode(rawCode)
	res.Code = code

	t, err := s.store.GetByCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		res.Message = MsgTicketNotFound
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	res.TicketID = &t.ID
	res.Status = t.Status
	res.OwnerUserID = &t.UserID
	if owner, err := s.users.GetByID(ctx, t.UserID); err == nil {
		res.OwnerFullName = owner.FullName
	}

	if t.EventID != eventID {
		res.Message = MsgTicketOtherEvent
		return res, nil
	}

	res.EventTitle = ev.Title
	if t.Status != models.TicketStatusActive {
		res.Message = MsgTicketNotActive
		return res, nil
	}

	res.Valid = true
	res.Message = MsgOK
	return res, nil
}

// Consume re-runs Validate and, if the ticket is admissible, performs the
// one-way ACTIVE to USED transition. A second consume of the same code is
// not an error: it fails validation with TICKET_NOT_ACTIVE.
func (s *Service) Consume(ctx context.Context, eventID uuid.UUID, rawCode string, actorID uuid.UUID) (*VerificationResult, error) {
	res, err := s.Validate(ctx, eventID, rawCode, actorID)
	if err != nil || !res.Valid {
		return res, err
	}

	usedAt := s.clock.Now()
	ok, err := s.store.MarkUsed(ctx, *res.TicketID, usedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Raced with another scan; a second look reports the real state.
		return s.Validate(ctx, eventID, rawCode, actorID)
	}

	res.Status = models.TicketStatusUsed
	res.Message = MsgConsumed
	return res, nil
}

// VerifyAndUse is the error-raising variant of Consume for callers that
// prefer failures over a result object.
func (s *Service) VerifyAndUse(ctx context.Context, eventID uuid.UUID, rawCode string, actorID uuid.UUID) (*models.Ticket, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.canVerify(ctx, ev, actorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.ErrForbidden
	}

	t, err := s.store.GetByCode(ctx, NormalizeCode(rawCode))
	if err != nil {
		return nil, err
	}
	if t.EventID != eventID {
		return nil, models.ErrTicketOtherEvent
	}
	switch t.Status {
	case models.TicketStatusUsed:
		return nil, models.ErrTicketUsed
	case models.TicketStatusCancelled:
		return nil, models.ErrTicketCancelled
	}

	usedAt := s.clock.Now()
	ok, err := s.store.MarkUsed(ctx, t.ID, usedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrTicketUsed
	}
	t.Status = models.TicketStatusUsed
	t.UsedAt = &usedAt
	return t, nil
}
