package checkers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatecrest/backend/internal/models"
)

// Repository handles checker assignment persistence. The (event_id,
// user_id) unique constraint backs the one-assignment-per-pair invariant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a checkers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts an assignment; a duplicate pair yields ErrAlreadyExists.
func (r *Repository) Create(ctx context.Context, a *models.CheckerAssignment) error {
	const q = `INSERT INTO event_checkers (id, event_id, user_id)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, a.EventID, a.UserID).Scan(&a.ID, &a.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrAlreadyExists
	}
	return err
}

// Delete removes an assignment; a missing pair yields ErrNotFound.
func (r *Repository) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM event_checkers WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Exists reports whether a user is a checker for an event.
func (r *Repository) Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM event_checkers WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&exists)
	return exists, err
}

// ListByEvent returns assignments for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.CheckerAssignment, error) {
	return r.list(ctx, `SELECT id, event_id, user_id, created_at FROM event_checkers WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
}

// ListByUser returns a user's assignments, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CheckerAssignment, error) {
	return r.list(ctx, `SELECT id, event_id, user_id, created_at FROM event_checkers WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) list(ctx context.Context, q string, arg uuid.UUID) ([]models.CheckerAssignment, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.CheckerAssignment
	for rows.Next() {
		var a models.CheckerAssignment
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
