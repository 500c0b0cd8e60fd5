package tickets

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/queue"
)

// fakeEvents is an in-memory EventStore.
type fakeEvents struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
}

func newFakeEvents(evs ...*models.Event) *fakeEvents {
	f := &fakeEvents{events: make(map[uuid.UUID]*models.Event)}
	for _, ev := range evs {
		f.events[ev.ID] = ev
	}
	return f
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsers(us ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[uuid.UUID]*models.User)}
	for _, u := range us {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeCheckers answers membership from a fixed set.
type fakeCheckers struct {
	assigned map[[2]uuid.UUID]bool
}

func newFakeCheckers() *fakeCheckers {
	return &fakeCheckers{assigned: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeCheckers) add(eventID, userID uuid.UUID) {
	f.assigned[[2]uuid.UUID{eventID, userID}] = true
}

func (f *fakeCheckers) Exists(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	return f.assigned[[2]uuid.UUID{eventID, userID}], nil
}

// fakeQueue records enqueued email payloads.
type fakeQueue struct {
	mu       sync.Mutex
	enqueued []queue.TicketEmailPayload
	err      error
}

func (f *fakeQueue) EnqueueTicketEmail(_ context.Context, p queue.TicketEmailPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, p)
	return nil
}

// fakeStore is an in-memory Store that mirrors the repository's invariants:
// unique code, unique (event, user), unique payment identifiers, and the
// admit callback evaluated against the current admitted count.
type fakeStore struct {
	mu      sync.Mutex
	events  *fakeEvents
	tickets map[uuid.UUID]*models.Ticket
}

func newFakeStore(events *fakeEvents) *fakeStore {
	return &fakeStore{events: events, tickets: make(map[uuid.UUID]*models.Ticket)}
}

func (f *fakeStore) ExistsByCode(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Issue(ctx context.Context, t *models.Ticket, admit AdmitFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ev, err := f.events.GetByID(ctx, t.EventID)
	if err != nil {
		return err
	}

	admitted := 0
	for _, existing := range f.tickets {
		if existing.EventID == t.EventID && existing.Status != models.TicketStatusCancelled {
			admitted++
		}
	}
	if err := admit(ev, admitted); err != nil {
		return err
	}

	for _, existing := range f.tickets {
		if existing.EventID == t.EventID && existing.UserID == t.UserID {
			return models.ErrAlreadyExists
		}
		if existing.Code == t.Code {
			return models.ErrAlreadyExists
		}
		if t.PaymentIntentID != nil && existing.PaymentIntentID != nil && *existing.PaymentIntentID == *t.PaymentIntentID {
			return models.ErrAlreadyExists
		}
		if t.CheckoutSessionID != nil && existing.CheckoutSessionID != nil && *existing.CheckoutSessionID == *t.CheckoutSessionID {
			return models.ErrAlreadyExists
		}
	}

	t.ID = uuid.New()
	t.Status = models.TicketStatusActive
	t.CreatedAt = time.Now().UTC()
	cp := *t
	f.tickets[t.ID] = &cp
	return nil
}

func (f *fakeStore) GetByEventAndUser(_ context.Context, eventID, userID uuid.UUID) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.EventID == eventID && t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) GetByPaymentIntentID(_ context.Context, id string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.PaymentIntentID != nil && *t.PaymentIntentID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) GetByCheckoutSessionID(_ context.Context, id string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.CheckoutSessionID != nil && *t.CheckoutSessionID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Ticket
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeStore) CountAdmitted(_ context.Context, eventID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickets {
		if t.EventID == eventID && t.Status != models.TicketStatusCancelled {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.Status != models.TicketStatusActive {
		return false, nil
	}
	t.Status = models.TicketStatusUsed
	u := usedAt
	t.UsedAt = &u
	return true, nil
}

// setStatus force-sets a stored ticket's status, for scenario setup.
func (f *fakeStore) setStatus(id uuid.UUID, status models.TicketStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tickets[id]; ok {
		t.Status = status
	}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
