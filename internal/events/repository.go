package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatecrest/backend/internal/models"
)

const eventColumns = `id, title, description, location, owner_id, capacity, status, paid, price_cents, currency,
		starts_at, ends_at, sales_start_at, sales_end_at, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event in DRAFT status.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, description, location, owner_id, capacity, paid, price_cents, currency, starts_at, ends_at, sales_start_at, sales_end_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, status, created_at, updated_at`
	if e.Currency == "" {
		e.Currency = "USD"
	}
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Location, e.OwnerID, e.Capacity,
		e.Paid, e.PriceCents, e.Currency, e.StartsAt, e.EndsAt, e.SalesStartAt, e.SalesEndAt).
		Scan(&e.ID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var e models.Event
	err := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.OwnerID, &e.Capacity, &e.Status, &e.Paid,
		&e.PriceCents, &e.Currency, &e.StartsAt, &e.EndsAt, &e.SalesStartAt, &e.SalesEndAt,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events, optionally filtered by owner.
func (r *Repository) List(ctx context.Context, ownerID *uuid.UUID) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	if ownerID != nil {
		q += ` WHERE owner_id = $1`
		args = append(args, *ownerID)
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY starts_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.OwnerID, &e.Capacity,
			&e.Status, &e.Paid, &e.PriceCents, &e.Currency, &e.StartsAt, &e.EndsAt,
			&e.SalesStartAt, &e.SalesEndAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpdateStatus moves an event from one status to another. The conditional
// WHERE keeps concurrent transitions from clobbering each other; zero rows
// means the event moved underneath us (or never existed).
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.EventStatus) error {
	const q = `UPDATE events SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	tag, err := r.pool.Exec(ctx, q, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrBadTransition
	}
	return nil
}
