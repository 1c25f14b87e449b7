package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamtrails/travel-booking-backend/internal/middleware"
	"github.com/roamtrails/travel-booking-backend/internal/models"
	"github.com/roamtrails/travel-booking-backend/internal/services"
)

// PaymentHandler handles gateway webhook deliveries and client payment intents
type PaymentHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(bookingService *services.BookingService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// HandleWebhook receives signed payment events from the gateway
// @Summary Payment gateway webhook
// @Description Verifies the signature and reconciles the payment event. Replayed deliveries are acknowledged without side effects.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Event processed"
// @Failure 400 {object} map[string]interface{} "Invalid signature or payload"
// @Router /api/v1/payments/webhook [post]
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "could not read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")

	if err := h.bookingService.HandleWebhookEvent(payload, sigHeader); err != nil {
		h.logger.WithError(err).Warn("Webhook processing failed")
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// CreatePaymentIntent opens a bare payment intent for client-side payment forms
// @Summary Create a payment intent
// @Description Prices the request server-side and returns the client secret for the payment element.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.PaymentIntentRequest true "Payment intent request"
// @Success 200 {object} map[string]interface{} "Client secret"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Package not found"
// @Failure 502 {object} map[string]interface{} "Gateway error"
// @Security BearerAuth
// @Router /api/v1/payments/create-payment-intent [post]
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	intent, err := h.bookingService.CreatePaymentIntent(userCtx.UserID.String(), &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
	})
}

// GetSessionAudits returns the payment audit trail for a checkout session
// @Summary Get session audit trail
// @Description Returns every payment event recorded for a checkout session, oldest first. Admin only.
// @Tags Payments
// @Produce json
// @Param id path string true "Checkout session ID"
// @Success 200 {object} map[string]interface{} "Audit events"
// @Failure 403 {object} map[string]interface{} "Admin access required"
// @Security BearerAuth
// @Router /api/v1/payments/sessions/{id}/audits [get]
func (h *PaymentHandler) GetSessionAudits(c *gin.Context) {
	audits, err := h.bookingService.GetSessionAudits(c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": len(audits),
		"audits":  audits,
	})
}
