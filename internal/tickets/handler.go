package tickets

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatecrest/backend/internal/middleware"
	"github.com/gatecrest/backend/internal/models"
	"github.com/gatecrest/backend/pkg/response"
)

// VerifyRequest is the body for the validate/consume endpoints.
type VerifyRequest struct {
	EventID string `json:"event_id" binding:"required,uuid"`
	Code    string `json:"code" binding:"required"`
}

// CodeRequest carries just a code, for the error-raising verify endpoint.
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Handler handles ticket HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a tickets handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, models.ErrAlreadyExists):
		response.Conflict(c, "already registered for this event")
	case errors.Is(err, models.ErrForbidden):
		response.Forbidden(c, "not allowed to verify tickets for this event")
	default:
		if se, ok := models.AsStateError(err); ok {
			if se == models.ErrPaymentRequired {
				response.PaymentRequired(c, se.Code)
				return
			}
			response.Conflict(c, se.Code)
			return
		}
		h.logger.Error("ticket operation failed", zap.Error(err), zap.String("path", c.FullPath()))
		response.Internal(c, "internal error")
	}
}

// Register handles POST /events/:id/tickets (free-path registration).
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	t, err := h.svc.IssueFree(c.Request.Context(), eventID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, t)
}

// Mine handles GET /tickets/mine.
func (h *Handler) Mine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, list)
}

// My handles GET /events/:id/tickets/me.
func (h *Handler) My(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	t, err := h.svc.GetMy(c.Request.Context(), eventID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, t)
}

// ResendEmail handles POST /events/:id/tickets/email.
func (h *Handler) ResendEmail(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.ResendEmail(c.Request.Context(), eventID, userID); err != nil {
		h.respondError(c, err)
		return
	}
	response.Accepted(c, gin.H{"status": "queued"})
}

// Validate handles POST /tickets/verify/validate (read-only door scan).
func (h *Handler) Validate(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eventID, _ := uuid.Parse(req.EventID)
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	res, err := h.svc.Validate(c.Request.Context(), eventID, req.Code, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, res)
}

// Consume handles POST /tickets/verify/consume (one-way admit).
func (h *Handler) Consume(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eventID, _ := uuid.Parse(req.EventID)
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	res, err := h.svc.Consume(c.Request.Context(), eventID, req.Code, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, res)
}

// VerifyAndUse handles POST /events/:id/tickets/verify. Same transition as
// Consume, but invalid tickets come back as error statuses instead of a
// result object.
func (h *Handler) VerifyAndUse(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	t, err := h.svc.VerifyAndUse(c.Request.Context(), eventID, req.Code, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, t)
}
