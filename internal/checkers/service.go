package checkers

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/models"
)

// EventStore reads events for ownership checks.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// UserStore resolves delegates, including by email.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is the checker assignment record.
type Store interface {
	Create(ctx context.Context, a *models.CheckerAssignment) error
	Delete(ctx context.Context, eventID, userID uuid.UUID) error
	Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.CheckerAssignment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CheckerAssignment, error)
}

// Service manages verification delegates for events. Only the event owner
// may assign or revoke.
type Service struct {
	store  Store
	events EventStore
	users  UserStore
}

// NewService creates a checkers service.
func NewService(store Store, events EventStore, users UserStore) *Service {
	return &Service{store: store, events: events, users: users}
}

func (s *Service) requireOwner(ctx context.Context, eventID, actorID uuid.UUID) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OwnerID != actorID {
		return nil, models.ErrForbidden
	}
	return ev, nil
}

// Assign makes userID a checker for the event. Owner-only; a duplicate
// assignment fails with ErrAlreadyExists.
func (s *Service) Assign(ctx context.Context, eventID, ownerID, userID uuid.UUID) (*models.CheckerAssignment, error) {
	if _, err := s.requireOwner(ctx, eventID, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	a := &models.CheckerAssignment{EventID: eventID, UserID: userID}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Revoke removes a checker. Owner-only; a missing assignment fails with
// ErrNotFound.
func (s *Service) Revoke(ctx context.Context, eventID, ownerID, userID uuid.UUID) error {
	if _, err := s.requireOwner(ctx, eventID, ownerID); err != nil {
		return err
	}
	return s.store.Delete(ctx, eventID, userID)
}

// AssignByEmail resolves the delegate by normalized email, then assigns.
func (s *Service) AssignByEmail(ctx context.Context, eventID, ownerID uuid.UUID, email string) (*models.CheckerAssignment, error) {
	if _, err := s.requireOwner(ctx, eventID, ownerID); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	a := &models.CheckerAssignment{EventID: eventID, UserID: u.ID}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RevokeByEmail resolves the delegate by normalized email, then revokes.
func (s *Service) RevokeByEmail(ctx context.Context, eventID, ownerID uuid.UUID, email string) error {
	if _, err := s.requireOwner(ctx, eventID, ownerID); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, eventID, u.ID)
}

// IsChecker reports whether userID may verify tickets for the event
// (excluding the implicit owner permission).
func (s *Service) IsChecker(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return s.store.Exists(ctx, eventID, userID)
}

// ListByEvent lists an event's checkers. Owner-only.
func (s *Service) ListByEvent(ctx context.Context, eventID, actorID uuid.UUID) ([]models.CheckerAssignment, error) {
	if _, err := s.requireOwner(ctx, eventID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListByEvent(ctx, eventID)
}

// ListMine lists the events the user checks for.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.CheckerAssignment, error) {
	return s.store.ListByUser(ctx, userID)
}
