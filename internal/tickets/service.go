package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatecrest/backend/internal/clock"
	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/queue"
)

// EventStore reads events for admission decisions.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// UserStore resolves ticket holders.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CheckerStore answers whether a user may verify tickets for an event.
type CheckerStore interface {
	Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

// Deliverer hands a finished ticket off for artifact delivery. Failures are
// logged and swallowed; delivery never participates in issuance.
type Deliverer interface {
	EnqueueTicketEmail(ctx context.Context, p queue.TicketEmailPayload) error
}

// AdmitFunc re-validates admission inside the issuing transaction, with the
// event row locked and admitted holding the count of ACTIVE/USED tickets.
type AdmitFunc func(ev *models.Event, admitted int) error

// Store is the durable ticket record. The implementation owns the
// uniqueness and capacity invariants; see Repository.Issue.
type Store interface {
	CodeChecker
	Issue(ctx context.Context, t *models.Ticket, admit AdmitFunc) error
	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Ticket, error)
	GetByCode(ctx context.Context, code string) (*models.Ticket, error)
	GetByPaymentIntentID(ctx context.Context, id string) (*models.Ticket, error)
	GetByCheckoutSessionID(ctx context.Context, id string) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error)
	CountAdmitted(ctx context.Context, eventID uuid.UUID) (int, error)
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error)
}

// Service issues tickets, reconciles payment notifications, and runs the
// check-in protocol.
type Service struct {
	store    Store
	events   EventStore
	users    UserStore
	checkers CheckerStore
	codes    *CodeGenerator
	clock    clock.Clock
	delivery Deliverer
	logger   *zap.Logger
}

// NewService creates a ticket service.
func NewService(store Store, events EventStore, users UserStore, checkers CheckerStore, clk clock.Clock, delivery Deliverer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		events:   events,
		users:    users,
		checkers: checkers,
		codes:    NewCodeGenerator(store),
		clock:    clk,
		delivery: delivery,
		logger:   logger,
	}
}

// registrationOpen rejects issuance outside the admission window.
func (s *Service) registrationOpen(e *models.Event) error {
	now := s.clock.Now()
	switch e.Status {
	case models.EventStatusCancelled:
		return models.ErrEventCancelled
	case models.EventStatusDraft:
		return models.ErrEventNotPublished
	}
	if e.SalesStartAt != nil && now.Before(*e.SalesStartAt) {
		return models.ErrSalesNotStarted
	}
	if e.SalesEndAt != nil && now.After(*e.SalesEndAt) {
		return models.ErrSalesEnded
	}
	return nil
}

// admitFunc is evaluated by the store with the event row locked, so the
// window and capacity checks are authoritative at the moment of the write.
func (s *Service) admitFunc() AdmitFunc {
	return func(ev *models.Event, admitted int) error {
		if err := s.registrationOpen(ev); err != nil {
			return err
		}
		if ev.Capacity != nil && admitted >= *ev.Capacity {
			return models.ErrEventFull
		}
		return nil
	}
}

// IssueFree registers a user for a free event and returns the new ticket.
func (s *Service) IssueFree(ctx context.Context, eventID, userID uuid.UUID) (*models.Ticket, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ev.EffectivelyPaid() {
		return nil, models.ErrPaymentRequired
	}
	if _, err := s.store.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, models.ErrAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	// Fail fast before generating a code; the same checks run again under
	// the event row lock inside Issue.
	if err := s.registrationOpen(ev); err != nil {
		return nil, err
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	t := &models.Ticket{
		Code:          code,
		EventID:       eventID,
		UserID:        userID,
		PaymentStatus: models.TicketPaymentFree,
	}
	if err := s.store.Issue(ctx, t, s.admitFunc()); err != nil {
		return nil, err
	}
	s.deliver(ctx, ev, user, t, models.EmailTypeTicketIssued)
	return t, nil
}

// ReconcilePaid converts a confirmed payment notification into a ticket.
// It is safe to re-invoke for the same logical payment: redeliveries and
// out-of-order notifications converge on the one persisted ticket.
func (s *Service) ReconcilePaid(ctx context.Context, eventID, userID uuid.UUID, paymentIntentID, checkoutSessionID *string) (*models.Ticket, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	// A payment notification for a now-free event is a plain registration.
	if !ev.EffectivelyPaid() {
		t, err := s.IssueFree(ctx, eventID, userID)
		if errors.Is(err, models.ErrAlreadyExists) {
			return s.store.GetByEventAndUser(ctx, eventID, userID)
		}
		return t, err
	}

	if t, err := s.findExisting(ctx, eventID, userID, paymentIntentID, checkoutSessionID); err != nil || t != nil {
		return t, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	t := &models.Ticket{
		Code:              code,
		EventID:           eventID,
		UserID:            userID,
		PaymentStatus:     models.TicketPaymentPaid,
		PaymentIntentID:   paymentIntentID,
		CheckoutSessionID: checkoutSessionID,
	}
	err = s.store.Issue(ctx, t, s.admitFunc())
	if errors.Is(err, models.ErrAlreadyExists) {
		// Lost a redelivery race; the row that won is our ticket.
		existing, lookupErr := s.findExisting(ctx, eventID, userID, paymentIntentID, checkoutSessionID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return existing, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, ev, user, t, models.EmailTypeTicketIssued)
	return t, nil
}

// findExisting resolves the ticket a prior notification may already have
// created: by checkout session, then payment intent, then (event, user).
func (s *Service) findExisting(ctx context.Context, eventID, userID uuid.UUID, paymentIntentID, checkoutSessionID *string) (*models.Ticket, error) {
	lookups := []func() (*models.Ticket, error){}
	if checkoutSessionID != nil && *checkoutSessionID != "" {
		lookups = append(lookups, func() (*models.Ticket, error) {
			return s.store.GetByCheckoutSessionID(ctx, *checkoutSessionID)
		})
	}
	if paymentIntentID != nil && *paymentIntentID != "" {
		lookups = append(lookups, func() (*models.Ticket, error) {
			return s.store.GetByPaymentIntentID(ctx, *paymentIntentID)
		})
	}
	lookups = append(lookups, func() (*models.Ticket, error) {
		return s.store.GetByEventAndUser(ctx, eventID, userID)
	})

	for _, lookup := range lookups {
		t, err := lookup()
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// GetMy returns the caller's ticket for an event.
func (s *Service) GetMy(ctx context.Context, eventID, userID uuid.UUID) (*models.Ticket, error) {
	return s.store.GetByEventAndUser(ctx, eventID, userID)
}

// GetMine returns all of the caller's tickets, newest first.
func (s *Service) GetMine(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	return s.store.ListByUser(ctx, userID)
}

// CountAdmitted counts seats taken (ACTIVE or USED) for an event.
func (s *Service) CountAdmitted(ctx context.Context, eventID uuid.UUID) (int, error) {
	return s.store.CountAdmitted(ctx, eventID)
}

// ResendEmail re-enqueues the ticket email for the caller's own ticket.
func (s *Service) ResendEmail(ctx context.Context, eventID, userID uuid.UUID) error {
	t, err := s.store.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return err
	}
	ev, err := s.events.GetByID(ctx, t.EventID)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		return err
	}
	return s.delivery.EnqueueTicketEmail(ctx, queue.TicketEmailPayload{
		TicketID:       t.ID,
		EventID:        ev.ID,
		Code:           t.Code,
		EventTitle:     ev.Title,
		RecipientEmail: user.Email,
		RecipientName:  user.FullName,
		EmailType:      models.EmailTypeTicketResend,
	})
}

// deliver enqueues the ticket email. Best-effort: a delivery failure never
// rolls back or fails the issuance.
func (s *Service) deliver(ctx context.Context, ev *models.Event, user *models.User, t *models.Ticket, emailType string) {
	if s.delivery == nil {
		return
	}
	err := s.delivery.EnqueueTicketEmail(ctx, queue.TicketEmailPayload{
		TicketID:       t.ID,
		EventID:        ev.ID,
		Code:           t.Code,
		EventTitle:     ev.Title,
		RecipientEmail: user.Email,
		RecipientName:  user.FullName,
		EmailType:      emailType,
	})
	if err != nil {
		s.logger.Warn("ticket email enqueue failed",
			zap.Error(err),
			zap.String("ticket_id", t.ID.String()))
	}
}
