package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/middleware"
	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/response"
)

// EventStore reads events for ownership checks.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   *Repository
	events EventStore
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, events EventStore) *Handler {
	return &Handler{repo: repo, events: events}
}

// ListByEvent handles GET /events/:id/emails (owner only).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ev, err := h.events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if ev.OwnerID != actorID {
		response.Forbidden(c, "only the event owner can view email logs")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, list)
}
