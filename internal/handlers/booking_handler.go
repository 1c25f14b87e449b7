package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamtrails/travel-booking-backend/internal/middleware"
	"github.com/roamtrails/travel-booking-backend/internal/models"
	"github.com/roamtrails/travel-booking-backend/internal/services"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// CreateCheckoutSession starts a hosted gateway checkout for a package
// @Summary Create a checkout session
// @Description Price the booking server-side and open a hosted payment page. No booking is persisted until payment succeeds.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param packageId path string true "Package ID"
// @Param request body models.CheckoutSessionRequest true "Checkout request"
// @Success 200 {object} services.CheckoutSessionResult "Session created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Package not found"
// @Failure 502 {object} map[string]interface{} "Gateway error"
// @Security BearerAuth
// @Router /api/v1/bookings/checkout-session/{packageId} [post]
func (h *BookingHandler) CreateCheckoutSession(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	result, err := h.bookingService.CreateCheckoutSession(userCtx.UserID.String(), c.Param("packageId"), &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckoutSuccess reconciles a checkout session after the gateway redirect
// @Summary Confirm a completed checkout
// @Description Re-fetch the session from the gateway and create the booking if paid. Idempotent.
// @Tags Bookings
// @Produce json
// @Param session_id query string true "Checkout session ID"
// @Success 200 {object} models.Booking "Booking confirmed"
// @Failure 400 {object} map[string]interface{} "Session not paid"
// @Failure 502 {object} map[string]interface{} "Gateway error"
// @Router /api/v1/bookings/checkout-success [get]
func (h *BookingHandler) CheckoutSuccess(c *gin.Context) {
	booking, err := h.bookingService.ReconcileSession(c.Query("session_id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// CreateDirectBooking creates a reserve-now-pay-later booking
// @Summary Create a direct booking
// @Description Reserve immediately and pay later by bank transfer. Returns a QR code and payment instructions.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param packageId path string true "Package ID"
// @Param request body models.DirectBookingRequest true "Direct booking request"
// @Success 201 {object} models.DirectBookingResponse "Booking created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Package not found"
// @Security BearerAuth
// @Router /api/v1/bookings/create/{packageId} [post]
func (h *BookingHandler) CreateDirectBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.DirectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	result, err := h.bookingService.CreateDirectBooking(userCtx.UserID.String(), c.Param("packageId"), &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// CancelBooking cancels a booking owned by the caller, or any booking for admins
// @Summary Cancel a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking "Booking cancelled"
// @Failure 403 {object} map[string]interface{} "Not the booking owner"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Already cancelled"
// @Security BearerAuth
// @Router /api/v1/bookings/cancel/{id} [patch]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Param("id"), userCtx.UserID.String(), userCtx.Role)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// GetMyBookings lists the caller's bookings
// @Summary List my bookings
// @Tags Bookings
// @Produce json
// @Success 200 {array} models.Booking "Bookings"
// @Security BearerAuth
// @Router /api/v1/bookings/my-bookings [get]
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookings, err := h.bookingService.ListUserBookings(userCtx.UserID.String())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":  len(bookings),
		"bookings": bookings,
	})
}

// GetBooking returns a single booking, readable by its owner or an admin
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking "Booking"
// @Failure 403 {object} map[string]interface{} "Not the booking owner"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	booking, err := h.bookingService.GetBooking(c.Param("id"), userCtx.UserID.String(), userCtx.Role)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// UpdateBooking applies an admin partial update to a booking
// @Summary Update a booking (admin)
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.UpdateBookingRequest true "Fields to update"
// @Success 200 {object} models.Booking "Updated booking"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{id} [patch]
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	booking, err := h.bookingService.AdminUpdateBooking(c.Param("id"), &req)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// ListBookings lists every booking (admin)
// @Summary List all bookings (admin)
// @Tags Bookings
// @Produce json
// @Success 200 {array} models.Booking "Bookings"
// @Security BearerAuth
// @Router /api/v1/bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListAllBookings()
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":  len(bookings),
		"bookings": bookings,
	})
}

// GetStats returns monthly booking counts and revenue (admin)
// @Summary Monthly booking stats (admin)
// @Description Non-cancelled bookings grouped by calendar month of the start date.
// @Tags Bookings
// @Produce json
// @Success 200 {array} models.MonthlyBookingStat "Stats"
// @Security BearerAuth
// @Router /api/v1/bookings/stats [get]
func (h *BookingHandler) GetStats(c *gin.Context) {
	stats, err := h.bookingService.GetMonthlyStats()
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
