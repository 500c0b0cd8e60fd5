// Package payments consumes payment gateway notifications and drives
// idempotent ticket issuance for the paid path.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatecrest/backend/internal/models"
)

// Notification kinds accepted from the gateway.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// Reconciler converts a confirmed payment into a durable ticket.
type Reconciler interface {
	ReconcilePaid(ctx context.Context, eventID, userID uuid.UUID, paymentIntentID, checkoutSessionID *string) (*models.Ticket, error)
}

type envelope struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

type paymentIntent struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// WebhookHandler handles payment gateway webhooks. The notifier delivers
// at-least-once and out of order, so every path answers 200 once the
// payload is understood; reconciliation refusals are logged for manual
// follow-up instead of being redelivered forever.
type WebhookHandler struct {
	tickets Reconciler
	logger  *zap.Logger
}

// NewWebhookHandler creates a payment webhook handler.
func NewWebhookHandler(tickets Reconciler, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{tickets: tickets, logger: logger}
}

// HandleEvent handles POST /webhooks/payments.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	var env envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}

	switch env.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncSucceeded:
		h.handleCheckout(c, env)
	case EventPaymentIntentSucceeded:
		h.handlePaymentIntent(c, env)
	default:
		c.String(http.StatusOK, "ok")
	}
}

func (h *WebhookHandler) handleCheckout(c *gin.Context, env envelope) {
	var session checkoutSession
	if err := json.Unmarshal(env.Data.Object, &session); err != nil {
		h.logger.Warn("checkout session deserialization failed", zap.Error(err), zap.String("type", env.Type))
		c.String(http.StatusOK, "ok")
		return
	}

	// Synchronous checkout events arrive before the charge settles;
	// only the paid status (or the async success kind) confirms payment.
	confirmed := session.PaymentStatus == "paid" || env.Type == EventCheckoutAsyncSucceeded
	eventID, userID, ok := parseMetadata(session.Metadata)
	if !confirmed || !ok {
		h.logger.Warn("checkout session not eligible or missing metadata",
			zap.String("session_id", session.ID),
			zap.String("payment_status", session.PaymentStatus),
			zap.Bool("confirmed", confirmed))
		c.String(http.StatusOK, "ok")
		return
	}

	var pi *string
	if session.PaymentIntent != "" {
		pi = &session.PaymentIntent
	}
	h.reconcile(c, eventID, userID, pi, &session.ID)
}

func (h *WebhookHandler) handlePaymentIntent(c *gin.Context, env envelope) {
	var pi paymentIntent
	if err := json.Unmarshal(env.Data.Object, &pi); err != nil {
		h.logger.Warn("payment intent deserialization failed", zap.Error(err))
		c.String(http.StatusOK, "ok")
		return
	}

	eventID, userID, ok := parseMetadata(pi.Metadata)
	if !ok {
		h.logger.Warn("payment intent missing metadata", zap.String("payment_intent_id", pi.ID))
		c.String(http.StatusOK, "ok")
		return
	}
	h.reconcile(c, eventID, userID, &pi.ID, nil)
}

func (h *WebhookHandler) reconcile(c *gin.Context, eventID, userID uuid.UUID, paymentIntentID, checkoutSessionID *string) {
	t, err := h.tickets.ReconcilePaid(c.Request.Context(), eventID, userID, paymentIntentID, checkoutSessionID)
	if err != nil {
		// The gateway already captured funds; an unresolvable refusal
		// (event full, cancelled, window closed) needs a human, not a
		// redelivery loop.
		if _, isState := models.AsStateError(err); isState || errors.Is(err, models.ErrNotFound) {
			h.logger.Error("confirmed payment could not be converted to a ticket",
				zap.Error(err),
				zap.String("event_id", eventID.String()),
				zap.String("user_id", userID.String()))
			c.String(http.StatusOK, "ok")
			return
		}
		h.logger.Error("payment reconciliation failed", zap.Error(err),
			zap.String("event_id", eventID.String()),
			zap.String("user_id", userID.String()))
		c.String(http.StatusInternalServerError, "error")
		return
	}

	h.logger.Info("ticket ensured for payment",
		zap.String("ticket_id", t.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()))
	c.String(http.StatusOK, "ok")
}

// parseMetadata extracts the event and user the payment was made for.
// Notifications without both are accepted but produce no ticket.
func parseMetadata(md map[string]string) (eventID, userID uuid.UUID, ok bool) {
	if md == nil {
		return uuid.Nil, uuid.Nil, false
	}
	eventID, err := uuid.Parse(md["eventId"])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(md["userId"])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return eventID, userID, true
}
