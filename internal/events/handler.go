package events

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/middleware"
	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/response"
)

// AdmittedCounter counts tickets that occupy seats (ACTIVE or USED).
type AdmittedCounter interface {
	CountAdmitted(ctx context.Context, eventID uuid.UUID) (int, error)
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	Capacity     *int    `json:"capacity"`
	Paid         bool    `json:"paid"`
	PriceCents   int     `json:"price_cents"`
	Currency     string  `json:"currency"`
	StartsAt     string  `json:"starts_at" binding:"required"`
	EndsAt       *string `json:"ends_at"`
	SalesStartAt *string `json:"sales_start_at"`
	SalesEndAt   *string `json:"sales_end_at"`
}

// StatusRequest is the body for PATCH /events/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo    *Repository
	tickets AdmittedCounter
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, tickets AdmittedCounter) *Handler {
	return &Handler{repo: repo, tickets: tickets}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create handles POST /events (organizer or admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		response.BadRequest(c, "capacity must be non-negative")
		return
	}
	if req.PriceCents < 0 {
		response.BadRequest(c, "price_cents must be non-negative")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	endsAt, err := parseOptionalTime(req.EndsAt)
	if err != nil {
		response.BadRequest(c, "invalid ends_at")
		return
	}
	salesStartAt, err := parseOptionalTime(req.SalesStartAt)
	if err != nil {
		response.BadRequest(c, "invalid sales_start_at")
		return
	}
	salesEndAt, err := parseOptionalTime(req.SalesEndAt)
	if err != nil {
		response.BadRequest(c, "invalid sales_end_at")
		return
	}

	e := &models.Event{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		OwnerID:      userID,
		Capacity:     req.Capacity,
		Paid:         req.Paid,
		PriceCents:   req.PriceCents,
		Currency:     req.Currency,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		SalesStartAt: salesStartAt,
		SalesEndAt:   salesEndAt,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// List handles GET /events. With ?mine=true only the caller's events.
func (h *Handler) List(c *gin.Context) {
	var ownerID *uuid.UUID
	if c.Query("mine") == "true" {
		id := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		ownerID = &id
	}
	list, err := h.repo.List(c.Request.Context(), ownerID)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// UpdateStatus handles PATCH /events/:id/status (owner only).
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	next := models.EventStatus(req.Status)
	switch next {
	case models.EventStatusPublished, models.EventStatusCancelled:
	default:
		response.BadRequest(c, "status must be PUBLISHED or CANCELLED")
		return
	}

	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if e.OwnerID != userID {
		response.Forbidden(c, "only the event owner can change status")
		return
	}
	if !e.Status.CanTransitionTo(next) {
		response.Conflict(c, models.ErrBadTransition.Code)
		return
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), id, e.Status, next); err != nil {
		if errors.Is(err, models.ErrBadTransition) {
			response.Conflict(c, models.ErrBadTransition.Code)
			return
		}
		response.Internal(c, "failed to update status")
		return
	}
	e.Status = next
	response.OK(c, e)
}

// Availability handles GET /events/:id/availability.
// Returns {seats, available}; both null for unlimited events.
func (h *Handler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}

	var seats, available *int
	if e.Capacity != nil {
		sold, err := h.tickets.CountAdmitted(c.Request.Context(), e.ID)
		if err != nil {
			response.Internal(c, "failed to count tickets")
			return
		}
		left := *e.Capacity - sold
		if left < 0 {
			left = 0
		}
		seats, available = e.Capacity, &left
	}
	response.OK(c, gin.H{"seats": seats, "available": available})
}
