package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stayhive/hotel-booking-backend/internal/models"
	"github.com/stayhive/hotel-booking-backend/internal/services"
)

// WebhookHandler receives payment processor callbacks. Payment state is
// only ever updated from these reports; the engine never guesses outcomes.
type WebhookHandler struct {
	lifecycleService *services.LifecycleService
	stripeService    *services.StripeService
	logger           *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	lifecycleService *services.LifecycleService,
	stripeService *services.StripeService,
	logger *logrus.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		lifecycleService: lifecycleService,
		stripeService:    stripeService,
		logger:           logger,
	}
}

// HandlePaymentWebhook processes a signed Stripe event
// @Summary Payment webhook
// @Description Verifies the event signature and reconciles the payment state
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Event signature"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Bad signature or payload"
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.stripeService.VerifyWebhookSignature(payload, signature, time.Now()); err != nil {
		h.logger.WithError(err).Warn("Webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	event, err := h.stripeService.ParseWebhookEvent(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// Events other than a completed checkout are acknowledged and ignored
	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	bookingID, err := uuid.Parse(event.BookingID)
	if err != nil {
		h.logger.WithField("session_id", event.SessionID).Warn("Webhook event without a valid booking id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id in event metadata"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.lifecycleService.ReconcilePayment(ctx, bookingID, models.PaymentStatePaid, event.Amount); err != nil {
		if models.IsLifecycleError(err, models.ErrUnknownBooking) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown_booking"})
			return
		}
		h.logger.WithError(err).Error("Failed to reconcile payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// The initial room charge confirms the booking. Stripe retries webhook
	// delivery, so an already-confirmed booking is not an error here.
	if event.Purpose == services.CheckoutPurposeBooking {
		if _, _, err := h.lifecycleService.ConfirmBooking(ctx, bookingID); err != nil {
			if !models.IsLifecycleError(err, models.ErrInvalidTransition) {
				h.logger.WithError(err).Error("Failed to confirm booking after payment")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			h.logger.WithField("booking_id", bookingID).Debug("Booking already past pending, skipping confirm")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"session_id": event.SessionID,
		"amount":     event.Amount,
		"purpose":    event.Purpose,
	}).Info("Payment webhook processed")

	c.JSON(http.StatusOK, gin.H{"received": true})
}
