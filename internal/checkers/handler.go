package checkers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatecrest/backend/internal/middleware"
	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/response"
)

// AssignRequest is the body for POST /events/:id/checkers. Exactly one of
// user_id or email identifies the delegate.
type AssignRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Handler handles checker HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a checkers handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, models.ErrAlreadyExists):
		response.Conflict(c, "already a checker for this event")
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, "only the event owner can manage checkers")
	default:
		response.Internal(c, "internal error")
	}
}

// Assign handles POST /events/:id/checkers.
func (h *Handler) Assign(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var a *models.CheckerAssignment
	switch {
	case req.UserID != "":
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		a, err = h.svc.Assign(c.Request.Context(), eventID, ownerID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
	case req.Email != "":
		a, err = h.svc.AssignByEmail(c.Request.Context(), eventID, ownerID, req.Email)
		if err != nil {
			respondError(c, err)
			return
		}
	default:
		response.BadRequest(c, "user_id or email required")
		return
	}
	response.Created(c, a)
}

// Revoke handles DELETE /events/:id/checkers/:userId.
func (h *Handler) Revoke(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Revoke(c.Request.Context(), eventID, ownerID, userID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// RevokeByEmail handles DELETE /events/:id/checkers?email=...
func (h *Handler) RevokeByEmail(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email required")
		return
	}
	ownerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.RevokeByEmail(c.Request.Context(), eventID, ownerID, email); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// ListByEvent handles GET /events/:id/checkers (owner only).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListByEvent(c.Request.Context(), eventID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// Mine handles GET /checkers/mine.
func (h *Handler) Mine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, list)
}

// AmIChecker handles GET /events/:id/checkers/me.
func (h *Handler) AmIChecker(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.svc.IsChecker(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"checker": ok})
}
