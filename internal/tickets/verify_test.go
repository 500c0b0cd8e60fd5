package tickets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/models"
)

// checkInFixture issues one active ticket and assigns one checker.
func checkInFixture(t *testing.T) (*fixture, *models.Ticket, *models.User) {
	t.Helper()
	ctx := context.Background()
	fx := newFixture(t)
	tk, err := fx.svc.IssueFree(ctx, fx.event.ID, fx.attendee.ID)
	if err != nil {
		t.Fatalf("IssueFree: %v", err)
	}
	checker := &models.User{ID: uuid.New(), Email: "door@example.com", FullName: "Dana Door"}
	fx.users.users[checker.ID] = checker
	fx.checkers.add(fx.event.ID, checker.ID)
	return fx, tk, checker
}

func TestValidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("checker validates an active ticket", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		res, err := fx.svc.Validate(ctx, fx.event.ID, tk.Code, checker.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !res.Valid || res.Message != MsgOK {
			t.Fatalf("result = %+v, want valid OK", res)
		}
		if res.OwnerFullName != fx.attendee.FullName {
			t.Errorf("owner name = %q, want %q", res.OwnerFullName, fx.attendee.FullName)
		}
		if res.EventTitle != fx.event.Title {
			t.Errorf("event title = %q, want %q", res.EventTitle, fx.event.Title)
		}
		if !res.VerifiedAt.Equal(testNow) {
			t.Errorf("verified at = %v, want %v", res.VerifiedAt, testNow)
		}
	})

	t.Run("owner may validate without an assignment", func(t *testing.T) {
		t.Parallel()
		fx, tk, _ := checkInFixture(t)

		res, err := fx.svc.Validate(ctx, fx.event.ID, tk.Code, fx.owner.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !res.Valid {
			t.Fatalf("owner validation failed: %+v", res)
		}
	})

	t.Run("scanned codes are normalized", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		res, err := fx.svc.Validate(ctx, fx.event.ID, "  "+strings.ToLower(tk.Code)+"  ", checker.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if !res.Valid {
			t.Fatalf("normalized code not accepted: %+v", res)
		}
	})

	t.Run("stranger gets FORBIDDEN and learns nothing about the code", func(t *testing.T) {
		t.Parallel()
		fx, tk, _ := checkInFixture(t)

		res, err := fx.svc.Validate(ctx, fx.event.ID, tk.Code, fx.attendee.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid || res.Message != MsgForbidden {
			t.Fatalf("result = %+v, want invalid FORBIDDEN", res)
		}
		if res.TicketID != nil || res.Code != "" || res.OwnerFullName != "" {
			t.Errorf("forbidden result leaks ticket details: %+v", res)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		fx, _, checker := checkInFixture(t)

		res, err := fx.svc.Validate(ctx, fx.event.ID, "DOESNOTEXIST", checker.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid || res.Message != MsgTicketNotFound {
			t.Fatalf("result = %+v, want TICKET_NOT_FOUND", res)
		}
	})

	t.Run("ticket for another event", func(t *testing.T) {
		t.Parallel()
		fx, tk, _ := checkInFixture(t)

		other := &models.Event{
			ID:      uuid.New(),
			Title:   "Other Night",
			OwnerID: fx.owner.ID,
			Status:  models.EventStatusPublished,
		}
		fx.events.events[other.ID] = other

		res, err := fx.svc.Validate(ctx, other.ID, tk.Code, fx.owner.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid || res.Message != MsgTicketOtherEvent {
			t.Fatalf("result = %+v, want TICKET_FOR_ANOTHER_EVENT", res)
		}
		if res.EventTitle != "" {
			t.Errorf("cross-event result leaks the title: %+v", res)
		}
	})

	t.Run("cancelled ticket is not admissible", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)
		fx.store.setStatus(tk.ID, models.TicketStatusCancelled)

		res, err := fx.svc.Validate(ctx, fx.event.ID, tk.Code, checker.ID)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid || res.Message != MsgTicketNotActive {
			t.Fatalf("result = %+v, want TICKET_NOT_ACTIVE", res)
		}
	})

	t.Run("validate is repeatable", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		for i := 0; i < 3; i++ {
			res, err := fx.svc.Validate(ctx, fx.event.ID, tk.Code, checker.ID)
			if err != nil || !res.Valid {
				t.Fatalf("validate #%d: res=%+v err=%v", i+1, res, err)
			}
		}
		stored, err := fx.store.GetByCode(ctx, tk.Code)
		if err != nil {
			t.Fatalf("GetByCode: %v", err)
		}
		if stored.Status != models.TicketStatusActive {
			t.Fatalf("validate mutated the ticket: %s", stored.Status)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		_, err := fx.svc.Validate(ctx, uuid.New(), tk.Code, checker.ID)
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestConsume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("consumes once, then reports TICKET_NOT_ACTIVE", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		res, err := fx.svc.Consume(ctx, fx.event.ID, tk.Code, checker.ID)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if !res.Valid || res.Message != MsgConsumed || res.Status != models.TicketStatusUsed {
			t.Fatalf("first consume = %+v", res)
		}

		stored, err := fx.store.GetByCode(ctx, tk.Code)
		if err != nil {
			t.Fatalf("GetByCode: %v", err)
		}
		if stored.UsedAt == nil || !stored.UsedAt.Equal(testNow) {
			t.Fatalf("used at = %v, want %v", stored.UsedAt, testNow)
		}

		again, err := fx.svc.Consume(ctx, fx.event.ID, tk.Code, checker.ID)
		if err != nil {
			t.Fatalf("second Consume: %v", err)
		}
		if again.Valid || again.Message != MsgTicketNotActive {
			t.Fatalf("second consume = %+v, want invalid TICKET_NOT_ACTIVE", again)
		}

		after, err := fx.store.GetByCode(ctx, tk.Code)
		if err != nil {
			t.Fatalf("GetByCode: %v", err)
		}
		if !after.UsedAt.Equal(*stored.UsedAt) {
			t.Fatalf("second consume changed used_at: %v vs %v", after.UsedAt, stored.UsedAt)
		}
	})

	t.Run("forbidden actor cannot consume", func(t *testing.T) {
		t.Parallel()
		fx, tk, _ := checkInFixture(t)

		res, err := fx.svc.Consume(ctx, fx.event.ID, tk.Code, fx.attendee.ID)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if res.Valid || res.Message != MsgForbidden {
			t.Fatalf("result = %+v, want FORBIDDEN", res)
		}
		stored, _ := fx.store.GetByCode(ctx, tk.Code)
		if stored.Status != models.TicketStatusActive {
			t.Fatalf("forbidden consume mutated the ticket: %s", stored.Status)
		}
	})
}

func TestVerifyAndUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("marks the ticket used", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		used, err := fx.svc.VerifyAndUse(ctx, fx.event.ID, tk.Code, checker.ID)
		if err != nil {
			t.Fatalf("VerifyAndUse: %v", err)
		}
		if used.Status != models.TicketStatusUsed || used.UsedAt == nil {
			t.Fatalf("ticket = %+v, want USED with used_at", used)
		}
	})

	t.Run("error per refusal", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)

		if _, err := fx.svc.VerifyAndUse(ctx, fx.event.ID, tk.Code, fx.attendee.ID); !errors.Is(err, models.ErrForbidden) {
			t.Errorf("stranger: err = %v, want ErrForbidden", err)
		}
		if _, err := fx.svc.VerifyAndUse(ctx, fx.event.ID, "NOPE", checker.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("unknown code: err = %v, want ErrNotFound", err)
		}

		if _, err := fx.svc.VerifyAndUse(ctx, fx.event.ID, tk.Code, checker.ID); err != nil {
			t.Fatalf("VerifyAndUse: %v", err)
		}
		if _, err := fx.svc.VerifyAndUse(ctx, fx.event.ID, tk.Code, checker.ID); !errors.Is(err, models.ErrTicketUsed) {
			t.Errorf("used ticket: err = %v, want ErrTicketUsed", err)
		}
	})

	t.Run("cancelled ticket", func(t *testing.T) {
		t.Parallel()
		fx, tk, checker := checkInFixture(t)
		fx.store.setStatus(tk.ID, models.TicketStatusCancelled)

		if _, err := fx.svc.VerifyAndUse(ctx, fx.event.ID, tk.Code, checker.ID); !errors.Is(err, models.ErrTicketCancelled) {
			t.Fatalf("err = %v, want ErrTicketCancelled", err)
		}
	})
}
