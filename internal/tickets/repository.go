package tickets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatecrest/backend/internal/models"
)

const ticketColumns = `id, code, event_id, user_id, status, payment_status, payment_intent_id, checkout_session_id, created_at, used_at`

// Repository is the PostgreSQL ticket store. The schema enforces
// uniqueness on (event_id, user_id), code, payment_intent_id, and
// checkout_session_id; Issue serializes capacity counting per event with a
// row lock, so over-selling is impossible regardless of what the
// application-level checks saw.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tickets repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(&t.ID, &t.Code, &t.EventID, &t.UserID, &t.Status, &t.PaymentStatus,
		&t.PaymentIntentID, &t.CheckoutSessionID, &t.CreatedAt, &t.UsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Issue persists a new ticket in one transaction: lock the event row, let
// admit re-validate window and capacity against the locked state, insert.
// Unique-constraint violations surface as ErrAlreadyExists so concurrent
// duplicates are detectable, never a generic failure.
func (r *Repository) Issue(ctx context.Context, t *models.Ticket, admit AdmitFunc) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var e models.Event
	err = tx.QueryRow(ctx, `SELECT id, title, description, location, owner_id, capacity, status, paid, price_cents, currency,
		starts_at, ends_at, sales_start_at, sales_end_at, created_at, updated_at
		FROM events WHERE id = $1 FOR UPDATE`, t.EventID).Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.OwnerID, &e.Capacity, &e.Status, &e.Paid,
		&e.PriceCents, &e.Currency, &e.StartsAt, &e.EndsAt, &e.SalesStartAt, &e.SalesEndAt,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}

	var admitted int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE event_id = $1 AND status IN ('ACTIVE', 'USED')`, t.EventID).
		Scan(&admitted)
	if err != nil {
		return err
	}
	if err := admit(&e, admitted); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `INSERT INTO tickets (id, code, event_id, user_id, status, payment_status, payment_intent_id, checkout_session_id)
		VALUES (gen_random_uuid(), $1, $2, $3, 'ACTIVE', $4, $5, $6)
		RETURNING id, status, created_at`,
		t.Code, t.EventID, t.UserID, t.PaymentStatus, t.PaymentIntentID, t.CheckoutSessionID).
		Scan(&t.ID, &t.Status, &t.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ExistsByCode reports whether a code is taken.
func (r *Repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

// GetByEventAndUser returns the ticket for an (event, user) pair.
func (r *Repository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 AND user_id = $2`, eventID, userID))
}

// GetByCode returns a ticket by its code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE code = $1`, code))
}

// GetByPaymentIntentID returns the ticket carrying a payment intent.
func (r *Repository) GetByPaymentIntentID(ctx context.Context, id string) (*models.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE payment_intent_id = $1`, id))
}

// GetByCheckoutSessionID returns the ticket carrying a checkout session.
func (r *Repository) GetByCheckoutSessionID(ctx context.Context, id string) (*models.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE checkout_session_id = $1`, id))
}

// ListByUser returns a user's tickets, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.EventID, &t.UserID, &t.Status, &t.PaymentStatus,
			&t.PaymentIntentID, &t.CheckoutSessionID, &t.CreatedAt, &t.UsedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// CountAdmitted counts tickets occupying seats: ACTIVE and USED, never
// CANCELLED.
func (r *Repository) CountAdmitted(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE event_id = $1 AND status IN ('ACTIVE', 'USED')`, eventID).Scan(&n)
	return n, err
}

// MarkUsed performs the one-way ACTIVE to USED transition. Returns false
// when the ticket was not ACTIVE anymore, leaving used_at untouched.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tickets SET status = 'USED', used_at = $2 WHERE id = $1 AND status = 'ACTIVE'`, id, usedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
